// Package registry accumulates documented routes during the declaration
// phase and hands them to the document assembler.
package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mark3labs/doc2openapi/internal/diag"
	"github.com/mark3labs/doc2openapi/internal/doccomment"
	"github.com/mark3labs/doc2openapi/internal/schema"
)

type Method string

const (
	GET     Method = "GET"
	POST    Method = "POST"
	PUT     Method = "PUT"
	DELETE  Method = "DELETE"
	PATCH   Method = "PATCH"
	HEAD    Method = "HEAD"
	OPTIONS Method = "OPTIONS"
	TRACE   Method = "TRACE"
)

// Methods lists the supported methods in output order.
var Methods = []Method{GET, PUT, POST, DELETE, OPTIONS, HEAD, PATCH, TRACE}

// ParseMethod accepts a method name in any case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(Methods, m) {
		return "", fmt.Errorf("unsupported HTTP method %q", s)
	}
	return m, nil
}

// Route is one registered route. It is immutable once registered.
type Route struct {
	Method Method
	// Path is the template as declared; Template is its OpenAPI form.
	Path       string
	Template   string
	PathParams []string

	Doc doccomment.EndpointDoc

	// Table names of the success, error and request body types; empty when
	// the route does not declare one.
	Success string
	Error   string
	Request string

	Tags        []string
	OperationID string
	Warnings    []diag.Warning
}

// Scope names the route in diagnostics ("GET /users/:id").
func (r Route) Scope() string { return string(r.Method) + " " + r.Path }

// DuplicateRouteError is returned when a method and path template are
// registered twice.
type DuplicateRouteError struct {
	Method   Method
	Path     string
	Existing string // path of the earlier registration
}

func (e *DuplicateRouteError) Error() string {
	if e.Existing != e.Path {
		return fmt.Sprintf("duplicate route %s %s (already registered as %s)", e.Method, e.Path, e.Existing)
	}
	return fmt.Sprintf("duplicate route %s %s", e.Method, e.Path)
}

// FrozenError is returned by Register after the registry was frozen.
type FrozenError struct {
	Method Method
	Path   string
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("cannot register %s %s: registry is frozen", e.Method, e.Path)
}

// OperationIDError is returned when an explicit operation id is reused.
type OperationIDError struct {
	ID       string
	Existing string // scope of the route already using ID
}

func (e *OperationIDError) Error() string {
	return fmt.Sprintf("operation id %q already used by %s", e.ID, e.Existing)
}

// Option configures one registration.
type Option func(*routeConfig)

type routeConfig struct {
	request     *schema.TypeDesc
	tags        []string
	operationID string
}

// WithRequest declares the request body type.
func WithRequest(d schema.TypeDesc) Option {
	return func(c *routeConfig) { c.request = &d }
}

// WithTags attaches tags to the operation. Blank tags are dropped.
func WithTags(tags ...string) Option {
	return func(c *routeConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t != "" && !slices.Contains(c.tags, t) {
				c.tags = append(c.tags, t)
			}
		}
	}
}

// WithOperationID overrides the generated operation id.
func WithOperationID(id string) Option {
	return func(c *routeConfig) { c.operationID = strings.TrimSpace(id) }
}

// Registry holds routes in registration order. Register is safe for
// concurrent use; the assembler reads the routes after Freeze.
type Registry struct {
	mu     sync.Mutex
	synth  *schema.Synthesizer
	routes []Route
	keys   map[string]int
	opIDs  map[string]int
	frozen bool
}

// New returns a registry that synthesizes route types through synth.
func New(synth *schema.Synthesizer) *Registry {
	return &Registry{
		synth: synth,
		keys:  make(map[string]int),
		opIDs: make(map[string]int),
	}
}

// Table returns the schema table route types are registered in.
func (r *Registry) Table() *schema.Table { return r.synth.Table() }

// Register parses rawDoc and records the route. The success, error and
// request descriptors are all validated before any of them is synthesized,
// so a rejected registration leaves the schema table untouched. Schema
// conflicts are recorded in the table and reported by the assembler. On
// error the route is not recorded.
func (r *Registry) Register(method Method, path, rawDoc string, success, errType *schema.TypeDesc, opts ...Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &FrozenError{Method: method, Path: path}
	}
	if !slices.Contains(Methods, method) {
		return fmt.Errorf("register %s %s: unsupported HTTP method", method, path)
	}
	segs, err := parseTemplate(path)
	if err != nil {
		return err
	}
	key := routeKey(method, segs)
	if i, dup := r.keys[key]; dup {
		return &DuplicateRouteError{Method: method, Path: path, Existing: r.routes[i].Path}
	}

	cfg := &routeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	route := Route{
		Method:     method,
		Path:       path,
		Template:   openAPIPath(segs),
		PathParams: pathParams(segs),
		Tags:       cfg.tags,
	}
	for _, c := range []struct {
		role string
		desc *schema.TypeDesc
	}{{"success", success}, {"error", errType}, {"request", cfg.request}} {
		if c.desc == nil {
			continue
		}
		if err := c.desc.Validate(); err != nil {
			return fmt.Errorf("register %s: %s type: %w", route.Scope(), c.role, err)
		}
	}

	route.OperationID = cfg.operationID
	if route.OperationID != "" {
		if i, used := r.opIDs[route.OperationID]; used {
			return &OperationIDError{ID: route.OperationID, Existing: r.routes[i].Scope()}
		}
	} else {
		base := defaultOperationID(method, segs)
		route.OperationID = base
		for n := 2; ; n++ {
			if _, used := r.opIDs[route.OperationID]; !used {
				break
			}
			route.OperationID = fmt.Sprintf("%s%d", base, n)
		}
	}

	doc, warns := doccomment.Parse(rawDoc)
	route.Doc = doc
	route.Warnings = diag.WithScope(route.Scope(), warns)

	if success != nil {
		if _, err := r.synth.Synthesize(*success); err != nil {
			return fmt.Errorf("register %s: success type: %w", route.Scope(), err)
		}
		route.Success = success.Name
	}
	if errType != nil {
		_, ew, err := r.synth.ExtractErrors(*errType)
		if err != nil {
			return fmt.Errorf("register %s: error type: %w", route.Scope(), err)
		}
		route.Error = errType.Name
		route.Warnings = append(route.Warnings, ew...)
	}
	if cfg.request != nil {
		if _, err := r.synth.Synthesize(*cfg.request); err != nil {
			return fmt.Errorf("register %s: request type: %w", route.Scope(), err)
		}
		route.Request = cfg.request.Name
	}

	route.Warnings = append(route.Warnings, completeness(route)...)

	r.keys[key] = len(r.routes)
	r.opIDs[route.OperationID] = len(r.routes)
	r.routes = append(r.routes, route)
	return nil
}

// completeness warns about path parameters missing from the documentation
// and documented path parameters missing from the template.
func completeness(route Route) []diag.Warning {
	var out []diag.Warning
	for _, name := range route.PathParams {
		if _, ok := route.Doc.Param(name, doccomment.InPath); !ok {
			out = append(out, diag.Warning{Scope: route.Scope(), Message: fmt.Sprintf("path parameter %q is not documented", name)})
		}
	}
	for _, p := range route.Doc.Parameters {
		if p.In == doccomment.InPath && !slices.Contains(route.PathParams, p.Name) {
			out = append(out, diag.Warning{Scope: route.Scope(), Message: fmt.Sprintf("documented path parameter %q is not in the path template", p.Name)})
		}
	}
	if len(route.Doc.Responses) == 0 && route.Success == "" && route.Error == "" {
		out = append(out, diag.Warning{Scope: route.Scope(), Message: "no responses documented or inferred"})
	}
	return out
}

// Routes returns the registered routes in registration order.
func (r *Registry) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.routes)
}

// Warnings returns the warnings of every route, in registration order.
func (r *Registry) Warnings() []diag.Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []diag.Warning
	for _, rt := range r.routes {
		out = append(out, rt.Warnings...)
	}
	return out
}

// Freeze stops further registrations and freezes the schema table.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
	r.synth.Table().Freeze()
}
