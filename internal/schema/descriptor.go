package schema

import "strings"

// ExprKind selects the shape of a TypeExpr.
type ExprKind int

const (
	ExprPrimitive ExprKind = iota
	ExprNamed
	ExprSeq
	ExprOpt
)

// TypeExpr is the type of one field as the host declares it: a primitive
// name, a reference to another declared type, or a sequence/optional wrapper.
type TypeExpr struct {
	Kind ExprKind
	Name string    // primitive or type name
	Elem *TypeExpr // ExprSeq, ExprOpt
}

// Prim returns a primitive type expression ("int", "string", ...).
func Prim(name string) TypeExpr { return TypeExpr{Kind: ExprPrimitive, Name: name} }

// Named returns a reference to another declared type.
func Named(name string) TypeExpr { return TypeExpr{Kind: ExprNamed, Name: name} }

// Seq wraps elem in a sequence.
func Seq(elem TypeExpr) TypeExpr { return TypeExpr{Kind: ExprSeq, Elem: &elem} }

// Opt wraps elem in an optional.
func Opt(elem TypeExpr) TypeExpr { return TypeExpr{Kind: ExprOpt, Elem: &elem} }

func (e TypeExpr) String() string {
	switch e.Kind {
	case ExprSeq:
		return "[]" + e.Elem.String()
	case ExprOpt:
		return "?" + e.Elem.String()
	default:
		return e.Name
	}
}

// FieldDesc declares one field of a structured type or variant.
type FieldDesc struct {
	Name        string
	Type        TypeExpr
	Optional    bool
	Description string
}

// VariantDesc declares one variant of a tagged union. Doc is the variant's
// documentation line; a leading status code ("404: Not found") makes the
// variant an error response for that status.
type VariantDesc struct {
	Name   string
	Doc    string
	Fields []FieldDesc
}

// TypeDesc declares a named type: either a structured type with Fields or a
// tagged union with Variants.
type TypeDesc struct {
	Name        string
	Description string
	Fields      []FieldDesc
	Variants    []VariantDesc
}

// IsUnion reports whether d declares a tagged union.
func (d TypeDesc) IsUnion() bool { return len(d.Variants) > 0 }

// VariantName is the component name of variant v of union union.
func VariantName(union, variant string) string { return union + "." + variant }

// DiscriminatorProperty names the property that tags union variants.
const DiscriminatorProperty = "type"

// Validate reports the first structural problem in d as an InvalidTypeError.
// Named references are not resolved.
func (d TypeDesc) Validate() error { return d.validate() }

func (d TypeDesc) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &InvalidTypeError{Reason: "type name is empty"}
	}
	if len(d.Fields) > 0 && len(d.Variants) > 0 {
		return &InvalidTypeError{Type: d.Name, Reason: "type declares both fields and variants"}
	}
	if err := validateFields(d.Name, d.Fields, false); err != nil {
		return err
	}
	seen := make(map[string]bool, len(d.Variants))
	for _, v := range d.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return &InvalidTypeError{Type: d.Name, Reason: "variant name is empty"}
		}
		if seen[v.Name] {
			return &InvalidTypeError{Type: d.Name, Field: v.Name, Reason: "duplicate variant"}
		}
		seen[v.Name] = true
		if err := validateFields(VariantName(d.Name, v.Name), v.Fields, true); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(owner string, fields []FieldDesc, variant bool) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return &InvalidTypeError{Type: owner, Reason: "field name is empty"}
		}
		if seen[f.Name] {
			return &InvalidTypeError{Type: owner, Field: f.Name, Reason: "duplicate field"}
		}
		if variant && f.Name == DiscriminatorProperty {
			return &InvalidTypeError{Type: owner, Field: f.Name, Reason: "field collides with the variant discriminator"}
		}
		seen[f.Name] = true
		if err := validateExpr(owner, f.Name, f.Type); err != nil {
			return err
		}
	}
	return nil
}

func validateExpr(owner, field string, e TypeExpr) error {
	switch e.Kind {
	case ExprPrimitive:
		if _, ok := primitive(e.Name); !ok {
			return &InvalidTypeError{Type: owner, Field: field, Reason: "unknown primitive " + `"` + e.Name + `"`}
		}
	case ExprNamed:
		if strings.TrimSpace(e.Name) == "" {
			return &InvalidTypeError{Type: owner, Field: field, Reason: "empty type reference"}
		}
	case ExprSeq, ExprOpt:
		if e.Elem == nil {
			return &InvalidTypeError{Type: owner, Field: field, Reason: "wrapper without element type"}
		}
		return validateExpr(owner, field, *e.Elem)
	default:
		return &InvalidTypeError{Type: owner, Field: field, Reason: "unknown type expression"}
	}
	return nil
}
