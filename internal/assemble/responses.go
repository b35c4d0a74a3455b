package assemble

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/doc2openapi/internal/doccomment"
	"github.com/mark3labs/doc2openapi/internal/registry"
	"github.com/mark3labs/doc2openapi/internal/schema"
)

// SuccessStatus is the status of the automatic success response.
const SuccessStatus = 200

// responses merges documented and inferred responses. Per status:
//  1. an elaborate documented response is used as written;
//  2. a simple documented response keeps its description and takes the
//     success schema (2xx) or the error type's schema for that status;
//  3. an inferred-only status gets a generated description.
//
// The success response is inferred only when no 2xx status is documented.
func (a *assembler) responses(rt registry.Route) openapi3.Responses {
	var errSet schema.ErrorSet
	if rt.Error != "" {
		errSet, _ = a.table.Errors(rt.Error)
	}
	inferSuccess := rt.Success != "" && !rt.Doc.HasSuccess()

	var statuses []int
	for code := range rt.Doc.Responses {
		statuses = append(statuses, code)
	}
	if inferSuccess {
		statuses = append(statuses, SuccessStatus)
	}
	statuses = append(statuses, errSet.Statuses()...)
	slices.Sort(statuses)
	statuses = slices.Compact(statuses)

	out := make(openapi3.Responses, len(statuses))
	for _, code := range statuses {
		var resp *openapi3.Response
		explicit, documented := rt.Doc.Responses[code]
		switch {
		case documented && explicit.Elaborate:
			resp = a.elaborate(rt, explicit)
		case documented:
			resp = &openapi3.Response{Description: strPtr(explicit.Description)}
			a.inferContent(rt, resp, code, errSet)
		case code == SuccessStatus && inferSuccess:
			resp = &openapi3.Response{Description: strPtr("Successfully returned " + rt.Success)}
			a.inferContent(rt, resp, code, errSet)
		default:
			desc := errSet.ByStatus[code].Description
			if desc == "" {
				desc = rt.Error + " error"
			}
			resp = &openapi3.Response{Description: strPtr(desc)}
			a.inferContent(rt, resp, code, errSet)
		}
		out[strconv.Itoa(code)] = &openapi3.ResponseRef{Value: resp}
	}
	return out
}

// inferContent attaches the success schema to 2xx statuses and the error
// type's schema to statuses it declares. Statuses that never carry a body
// are left without content.
func (a *assembler) inferContent(rt registry.Route, resp *openapi3.Response, code int, errSet schema.ErrorSet) {
	if code == 204 || code == 205 || code == 304 {
		return
	}
	var ref *openapi3.SchemaRef
	switch {
	case code >= 200 && code < 300 && rt.Success != "":
		ref = a.conv.ref(rt.Success)
	case code >= 400:
		if e, ok := errSet.ByStatus[code]; ok {
			ref = a.conv.refs(e.Schemas)
		}
	}
	if ref != nil {
		resp.Content = openapi3.NewContentWithJSONSchemaRef(ref)
	}
}

func (a *assembler) elaborate(rt registry.Route, d doccomment.ResponseDoc) *openapi3.Response {
	resp := &openapi3.Response{Description: strPtr(d.Description)}
	ct := d.ContentType
	var mt *openapi3.MediaType
	switch {
	case d.SchemaRef != "":
		mt = &openapi3.MediaType{}
		if a.resolve(rt, d.Status, d.SchemaRef) {
			mt.Schema = a.conv.ref(d.SchemaRef)
		}
	case ct != "":
		mt = &openapi3.MediaType{}
	}
	if len(d.Examples) > 0 {
		if mt == nil {
			ct, mt = doccomment.DefaultContentType, &openapi3.MediaType{}
		}
		mt.Examples = make(openapi3.Examples, len(d.Examples))
		for i, ex := range d.Examples {
			name := ex.Name
			if name == "" {
				name = fmt.Sprintf("example%d", i+1)
			}
			mt.Examples[name] = &openapi3.ExampleRef{Value: &openapi3.Example{Summary: ex.Summary, Value: exampleValue(ex.Value)}}
			if mt.Schema != nil {
				if err := a.examples.check(d.SchemaRef, ex.Value); err != nil {
					a.warn(rt, "response %d example %q does not match schema %s: %v", d.Status, name, d.SchemaRef, err)
				}
			}
		}
	}
	if mt != nil {
		resp.Content = openapi3.Content{ct: mt}
	}
	return resp
}

func strPtr(s string) *string { return &s }
