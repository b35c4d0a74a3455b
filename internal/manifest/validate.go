package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/mark3labs/doc2openapi/internal/registry"
)

var pathRe = regexp.MustCompile(`^/`)

// Validate checks the manifest structure. References between types and
// routes are checked when the manifest is built.
func (m Manifest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Version, validation.Required),
		validation.Field(&m.Servers),
		validation.Field(&m.Types, validation.By(uniqueTypeNames)),
		validation.Field(&m.Routes, validation.Required),
	)
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.URL, validation.Required, is.URL),
	)
}

func (t Type) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.Match(typeNameRe)),
		validation.Field(&t.Fields),
		validation.Field(&t.Variants,
			validation.When(len(t.Fields) > 0, validation.Empty.Error("must be empty when fields are declared"))),
	)
}

func (f Field) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required),
		validation.Field(&f.Type, validation.Required, validation.By(typeExpr)),
	)
}

func (v Variant) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Name, validation.Required, validation.Match(typeNameRe)),
		validation.Field(&v.Fields),
	)
}

func (r Route) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Method, validation.Required, validation.By(method)),
		validation.Field(&r.Path, validation.Required, validation.Match(pathRe).Error("must start with /")),
		validation.Field(&r.Success, validation.When(r.Success != "", validation.Match(typeNameRe))),
		validation.Field(&r.Error, validation.When(r.Error != "", validation.Match(typeNameRe))),
		validation.Field(&r.Request, validation.When(r.Request != "", validation.Match(typeNameRe))),
	)
}

func method(value interface{}) error {
	s, _ := value.(string)
	if _, err := registry.ParseMethod(s); err != nil {
		names := make([]string, len(registry.Methods))
		for i, m := range registry.Methods {
			names[i] = string(m)
		}
		return fmt.Errorf("must be one of %s", strings.Join(names, ", "))
	}
	return nil
}

func typeExpr(value interface{}) error {
	s, _ := value.(string)
	_, err := ParseTypeExpr(s)
	return err
}

func uniqueTypeNames(value interface{}) error {
	types, _ := value.([]Type)
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		if seen[t.Name] {
			return fmt.Errorf("type %q declared twice", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// errorPointer follows nested validation errors to the first failing field
// and returns its JSON pointer ("#/routes/0/method").
func errorPointer(err error) string {
	var parts []string
	for {
		var es validation.Errors
		if !errors.As(err, &es) || len(es) == 0 {
			break
		}
		keys := make([]string, 0, len(es))
		for k := range es {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts = append(parts, keys[0])
		err = es[keys[0]]
	}
	if len(parts) == 0 {
		return ""
	}
	return "#/" + strings.Join(parts, "/")
}
