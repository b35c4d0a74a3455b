package manifest

import (
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/mark3labs/doc2openapi/internal/assemble"
	"github.com/mark3labs/doc2openapi/internal/diag"
	"github.com/mark3labs/doc2openapi/internal/registry"
	"github.com/mark3labs/doc2openapi/internal/schema"
)

// BuildOption configures how a manifest is registered.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	title       string
	version     string
}

// WithIncludeTags keeps only routes that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags drops routes that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

// WithInfo overrides the manifest title and version when non-empty.
func WithInfo(title, version string) BuildOption {
	return func(c *buildConfig) {
		c.title = strings.TrimSpace(title)
		c.version = strings.TrimSpace(version)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// Result is what Build produced besides the registrations themselves.
type Result struct {
	Info     assemble.Info
	Warnings []diag.Warning
	Routes   int // routes registered
	Skipped  int // routes filtered out by tag selection
}

// Build declares every manifest type with synth, synthesizes them in
// declaration order and registers the selected routes with reg. reg must
// have been created with synth.
func Build(m *Manifest, synth *schema.Synthesizer, reg *registry.Registry, opts ...BuildOption) (*Result, error) {
	if m == nil {
		return nil, &ManifestError{Code: InputError, Message: "manifest: nil manifest"}
	}
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	descs := make([]schema.TypeDesc, len(m.Types))
	for i, t := range m.Types {
		d, err := typeDesc(t)
		if err != nil {
			return nil, &ManifestError{Code: ValidationError, Message: err.Error(), Pointer: fmt.Sprintf("#/types/%d", i), Cause: err}
		}
		if err := synth.Declare(d); err != nil {
			return nil, &ManifestError{Code: ValidationError, Message: err.Error(), Pointer: fmt.Sprintf("#/types/%d", i), Cause: err}
		}
		descs[i] = d
	}
	for i, d := range descs {
		if _, err := synth.Synthesize(d); err != nil {
			return nil, &ManifestError{Code: ValidationError, Message: err.Error(), Pointer: fmt.Sprintf("#/types/%d", i), Cause: err}
		}
	}

	res := &Result{Info: info(m, cfg)}
	if !govalidator.IsSemver(strings.TrimPrefix(res.Info.Version, "v")) {
		res.Warnings = append(res.Warnings, diag.Warning{
			Scope:   "info",
			Message: fmt.Sprintf("version %q is not a semantic version", res.Info.Version),
		})
	}

	for i, r := range m.Routes {
		if !allowByTags(r.Tags, cfg) {
			res.Skipped++
			continue
		}
		if err := register(reg, synth, r, i); err != nil {
			return nil, err
		}
		res.Routes++
	}
	return res, nil
}

func info(m *Manifest, cfg *buildConfig) assemble.Info {
	in := assemble.Info{Title: m.Title, Version: m.Version, Description: m.Description}
	if cfg.title != "" {
		in.Title = cfg.title
	}
	if cfg.version != "" {
		in.Version = cfg.version
	}
	for _, s := range m.Servers {
		in.Servers = append(in.Servers, assemble.Server{URL: s.URL, Description: s.Description})
	}
	return in
}

func register(reg *registry.Registry, synth *schema.Synthesizer, r Route, i int) error {
	ptr := func(field string) string {
		if field == "" {
			return fmt.Sprintf("#/routes/%d", i)
		}
		return fmt.Sprintf("#/routes/%d/%s", i, field)
	}
	lookup := func(field, name string) (*schema.TypeDesc, error) {
		if name == "" {
			return nil, nil
		}
		d, ok := synth.Lookup(name)
		if !ok {
			return nil, &ManifestError{
				Code:    ValidationError,
				Message: fmt.Sprintf("route %s %s: %s type %q is not declared", r.Method, r.Path, field, name),
				Pointer: ptr(field),
			}
		}
		return &d, nil
	}

	method, err := registry.ParseMethod(r.Method)
	if err != nil {
		return &ManifestError{Code: ValidationError, Message: err.Error(), Pointer: ptr("method"), Cause: err}
	}
	success, err := lookup("success", r.Success)
	if err != nil {
		return err
	}
	errType, err := lookup("error", r.Error)
	if err != nil {
		return err
	}
	request, err := lookup("request", r.Request)
	if err != nil {
		return err
	}

	var opts []registry.Option
	if len(r.Tags) > 0 {
		opts = append(opts, registry.WithTags(r.Tags...))
	}
	if r.OperationID != "" {
		opts = append(opts, registry.WithOperationID(r.OperationID))
	}
	if request != nil {
		opts = append(opts, registry.WithRequest(*request))
	}
	if err := reg.Register(method, r.Path, r.Doc, success, errType, opts...); err != nil {
		return &ManifestError{Code: ValidationError, Message: err.Error(), Pointer: ptr(""), Cause: err}
	}
	return nil
}

func typeDesc(t Type) (schema.TypeDesc, error) {
	d := schema.TypeDesc{Name: t.Name, Description: t.Description}
	fields, err := fieldDescs(t.Name, t.Fields)
	if err != nil {
		return d, err
	}
	d.Fields = fields
	for _, v := range t.Variants {
		vf, err := fieldDescs(schema.VariantName(t.Name, v.Name), v.Fields)
		if err != nil {
			return d, err
		}
		d.Variants = append(d.Variants, schema.VariantDesc{Name: v.Name, Doc: v.Doc, Fields: vf})
	}
	return d, nil
}

func fieldDescs(owner string, fields []Field) ([]schema.FieldDesc, error) {
	out := make([]schema.FieldDesc, 0, len(fields))
	for _, f := range fields {
		expr, err := ParseTypeExpr(f.Type)
		if err != nil {
			return nil, fmt.Errorf("type %s field %s: %w", owner, f.Name, err)
		}
		out = append(out, schema.FieldDesc{Name: f.Name, Type: expr, Optional: f.Optional, Description: f.Description})
	}
	return out, nil
}

func allowByTags(tags []string, cfg *buildConfig) bool {
	for _, t := range tags {
		if _, ok := cfg.excludeTags[t]; ok {
			return false
		}
	}
	if len(cfg.includeTags) == 0 {
		return true
	}
	for _, t := range tags {
		if _, ok := cfg.includeTags[t]; ok {
			return true
		}
	}
	return false
}
