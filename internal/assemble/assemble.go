// Package assemble merges registered routes and the schema table into one
// OpenAPI 3.0 document and renders it as JSON or YAML.
package assemble

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/doc2openapi/internal/diag"
	"github.com/mark3labs/doc2openapi/internal/doccomment"
	"github.com/mark3labs/doc2openapi/internal/registry"
	"github.com/mark3labs/doc2openapi/internal/schema"
)

// OpenAPIVersion is written to the "openapi" field.
const OpenAPIVersion = "3.0.3"

// Info describes the API as a whole.
type Info struct {
	Title       string
	Version     string
	Description string
	Servers     []Server
}

type Server struct {
	URL         string
	Description string
}

// Document is an assembled OpenAPI document. It is never modified after
// Assemble returns.
type Document struct {
	T        *openapi3.T
	Warnings []diag.Warning
}

type assembler struct {
	table    *schema.Table
	conv     *converter
	examples *exampleChecker
	errs     []error
	warnings []diag.Warning
}

// Assemble builds the document from routes and table. Its output depends only
// on its inputs. Every fatal problem (schema conflicts, unresolved
// references) is collected and returned as one joined error; no document is
// returned in that case.
//
// Routes and table names are walked in registration order, which fixes the
// order of warnings and errors. The rendered document does not keep that
// order: paths, component schemas and object properties are maps in
// openapi3, so JSON and YAML output lists their keys sorted.
func Assemble(info Info, routes []registry.Route, table *schema.Table) (*Document, error) {
	a := &assembler{table: table, conv: newConverter(table)}
	for _, c := range table.Conflicts() {
		a.errs = append(a.errs, c)
	}
	for _, name := range table.Names() {
		n, _ := table.Lookup(name)
		for _, ref := range n.Refs() {
			if _, ok := table.Lookup(ref); !ok {
				a.errs = append(a.errs, &UnresolvedRefError{Type: name, Name: ref})
			}
		}
	}

	doc := &openapi3.T{
		OpenAPI: OpenAPIVersion,
		Info:    &openapi3.Info{Title: info.Title, Version: info.Version, Description: info.Description},
		Paths:   make(openapi3.Paths),
	}
	for _, s := range info.Servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: s.URL, Description: s.Description})
	}
	if names := table.Names(); len(names) > 0 {
		comps := openapi3.NewComponents()
		comps.Schemas = a.conv.components(table)
		doc.Components = &comps
	}
	a.examples = newExampleChecker(doc.Components)

	var tags []string
	for _, rt := range routes {
		a.warnings = append(a.warnings, rt.Warnings...)
		doc.AddOperation(rt.Template, string(rt.Method), a.operation(rt))
		for _, t := range rt.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	for _, t := range tags {
		doc.Tags = append(doc.Tags, &openapi3.Tag{Name: t})
	}

	if len(a.errs) > 0 {
		return nil, errors.Join(a.errs...)
	}
	return &Document{T: doc, Warnings: a.warnings}, nil
}

func (a *assembler) operation(rt registry.Route) *openapi3.Operation {
	op := &openapi3.Operation{
		Summary:     rt.Doc.Summary,
		Description: rt.Doc.Description,
		OperationID: rt.OperationID,
		Tags:        rt.Tags,
		Parameters:  a.parameters(rt),
		RequestBody: a.requestBody(rt),
		Responses:   a.responses(rt),
	}
	if op.Summary == "" {
		op.Summary = rt.Scope()
	}
	for _, sec := range rt.Doc.Extensions {
		if op.Extensions == nil {
			op.Extensions = make(map[string]interface{})
		}
		key := "x-doc-" + slug(sec.Title)
		if _, dup := op.Extensions[key]; dup {
			a.warn(rt, "section %q repeated; keeping the first", sec.Title)
			continue
		}
		op.Extensions[key] = sec.Body
	}
	return op
}

// parameters lists the template's path parameters in path order, then the
// other documented parameters in documentation order. Undocumented path
// parameters are emitted without a description so the document stays valid.
func (a *assembler) parameters(rt registry.Route) openapi3.Parameters {
	var out openapi3.Parameters
	for _, name := range rt.PathParams {
		p, _ := rt.Doc.Param(name, doccomment.InPath)
		out = append(out, &openapi3.ParameterRef{Value: &openapi3.Parameter{
			Name:        name,
			In:          openapi3.ParameterInPath,
			Description: p.Description,
			Required:    true,
			Schema:      openapi3.NewStringSchema().NewRef(),
		}})
	}
	for _, p := range rt.Doc.Parameters {
		if p.In == doccomment.InPath {
			continue
		}
		out = append(out, &openapi3.ParameterRef{Value: &openapi3.Parameter{
			Name:        p.Name,
			In:          string(p.In),
			Description: p.Description,
			Schema:      openapi3.NewStringSchema().NewRef(),
		}})
	}
	return out
}

func (a *assembler) requestBody(rt registry.Route) *openapi3.RequestBodyRef {
	doc := rt.Doc.RequestBody
	if doc == nil && rt.Request == "" {
		return nil
	}
	body := &openapi3.RequestBody{Required: true}
	ct, name := doccomment.DefaultContentType, rt.Request
	if doc != nil {
		body.Description = doc.Description
		ct = doc.ContentType
		if doc.SchemaRef != "" {
			name = doc.SchemaRef
		}
	}
	mt := &openapi3.MediaType{}
	if name != "" && a.resolve(rt, 0, name) {
		mt.Schema = a.conv.ref(name)
	}
	body.Content = openapi3.Content{ct: mt}
	return &openapi3.RequestBodyRef{Value: body}
}

func (a *assembler) warn(rt registry.Route, format string, args ...any) {
	a.warnings = append(a.warnings, diag.Warning{Scope: rt.Scope(), Message: fmt.Sprintf(format, args...)})
}

// resolve reports whether name is in the table, recording an error for the
// route otherwise.
func (a *assembler) resolve(rt registry.Route, status int, name string) bool {
	if _, ok := a.table.Lookup(name); ok {
		return true
	}
	a.errs = append(a.errs, &UnresolvedRefError{Method: string(rt.Method), Path: rt.Path, Status: status, Name: name})
	return false
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "section"
	}
	return b.String()
}
