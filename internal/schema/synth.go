// Package schema turns type descriptors into JSON-Schema shaped nodes and
// keeps them in a name-keyed table shared by every route.
package schema

import (
	"reflect"
	"strings"
)

// Synthesizer converts type descriptors into nodes registered in a Table.
// Named types referenced from fields are resolved against the declared
// catalog; names that are not declared stay as references and are resolved
// when the document is assembled.
//
// A Synthesizer is not safe for concurrent use; the route registry
// serializes access to it.
type Synthesizer struct {
	table      *Table
	declared   map[string]TypeDesc
	memo       map[string]*Node
	inProgress map[string]bool
}

// NewSynthesizer returns a Synthesizer writing into table.
func NewSynthesizer(table *Table) *Synthesizer {
	return &Synthesizer{
		table:      table,
		declared:   make(map[string]TypeDesc),
		memo:       make(map[string]*Node),
		inProgress: make(map[string]bool),
	}
}

// Table returns the table the synthesizer writes into.
func (s *Synthesizer) Table() *Table { return s.table }

// Declare adds d to the catalog used to resolve named field types. It does
// not synthesize d. Declaring a name again with a different descriptor keeps
// the first declaration and records a ConflictError in the table.
func (s *Synthesizer) Declare(d TypeDesc) error {
	if err := d.validate(); err != nil {
		return err
	}
	if prev, ok := s.declared[d.Name]; ok {
		if !reflect.DeepEqual(prev, d) {
			s.table.conflict(d.Name)
		}
		return nil
	}
	s.declared[d.Name] = d
	return nil
}

// Lookup returns the declared descriptor for name.
func (s *Synthesizer) Lookup(name string) (TypeDesc, bool) {
	d, ok := s.declared[name]
	return d, ok
}

// Synthesize registers d (and every declared type it reaches) in the table
// and returns a reference to it. A type reached again while it is being
// synthesized resolves to a forward reference.
func (s *Synthesizer) Synthesize(d TypeDesc) (*Node, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if s.inProgress[d.Name] {
		return RefTo(d.Name), nil
	}
	s.inProgress[d.Name] = true
	defer delete(s.inProgress, d.Name)

	body, err := s.body(d)
	if err != nil {
		return nil, err
	}
	if err := s.table.Register(d.Name, body); err != nil {
		return nil, err
	}
	if _, ok := s.memo[d.Name]; !ok {
		s.memo[d.Name] = body
	}
	return RefTo(d.Name), nil
}

func (s *Synthesizer) body(d TypeDesc) (*Node, error) {
	if !d.IsUnion() {
		return s.object(d.Name, d.Description, d.Fields)
	}
	u := &Node{Kind: KindUnion, Description: d.Description, Discriminator: DiscriminatorProperty}
	for _, v := range d.Variants {
		name := VariantName(d.Name, v.Name)
		obj, err := s.object(name, variantDescription(v.Doc), v.Fields)
		if err != nil {
			return nil, err
		}
		tag := Field{
			Name: DiscriminatorProperty,
			Node: &Node{Kind: KindPrimitive, Type: "string", Enum: []string{v.Name}},
		}
		obj.Fields = append([]Field{tag}, obj.Fields...)
		if err := s.table.Register(name, obj); err != nil {
			return nil, err
		}
		u.Variants = append(u.Variants, name)
	}
	return u, nil
}

func (s *Synthesizer) object(owner, desc string, fields []FieldDesc) (*Node, error) {
	obj := &Node{Kind: KindObject, Description: desc}
	for _, f := range fields {
		expr, optional := f.Type, f.Optional
		if expr.Kind == ExprOpt {
			expr, optional = *expr.Elem, true
		}
		n, err := s.expr(owner, f.Name, expr)
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, Field{Name: f.Name, Node: n, Optional: optional, Description: f.Description})
	}
	return obj, nil
}

func (s *Synthesizer) expr(owner, field string, e TypeExpr) (*Node, error) {
	switch e.Kind {
	case ExprPrimitive:
		n, ok := primitive(e.Name)
		if !ok {
			return nil, &InvalidTypeError{Type: owner, Field: field, Reason: "unknown primitive " + `"` + e.Name + `"`}
		}
		return n, nil
	case ExprSeq:
		inner, err := s.expr(owner, field, *e.Elem)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindArray, Elem: inner}, nil
	case ExprOpt:
		inner, err := s.expr(owner, field, *e.Elem)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindOptional, Elem: inner}, nil
	case ExprNamed:
		return s.named(e.Name)
	}
	return nil, &InvalidTypeError{Type: owner, Field: field, Reason: "unknown type expression"}
}

func (s *Synthesizer) named(name string) (*Node, error) {
	if _, done := s.memo[name]; done || s.inProgress[name] {
		return RefTo(name), nil
	}
	d, ok := s.declared[name]
	if !ok {
		return RefTo(name), nil
	}
	return s.Synthesize(d)
}

// variantDescription strips a leading status annotation from a variant doc.
func variantDescription(doc string) string {
	if _, rest, ok := leadingStatus(doc); ok {
		return rest
	}
	return strings.TrimSpace(doc)
}

// IsPrimitive reports whether name is a known primitive type name.
func IsPrimitive(name string) bool {
	_, ok := primitive(name)
	return ok
}

func primitive(name string) (*Node, bool) {
	p := func(typ, format string) (*Node, bool) {
		return &Node{Kind: KindPrimitive, Type: typ, Format: format}, true
	}
	switch strings.ToLower(name) {
	case "int", "uint", "isize", "usize", "integer",
		"int8", "int16", "uint8", "uint16", "i8", "i16", "u8", "u16":
		return p("integer", "")
	case "int32", "uint32", "i32", "u32":
		return p("integer", "int32")
	case "int64", "uint64", "i64", "u64":
		return p("integer", "int64")
	case "float32", "f32":
		return p("number", "float")
	case "float64", "f64", "float", "number":
		return p("number", "double")
	case "string", "str":
		return p("string", "")
	case "bool", "boolean":
		return p("boolean", "")
	case "time", "datetime":
		return p("string", "date-time")
	case "date":
		return p("string", "date")
	case "uuid":
		return p("string", "uuid")
	case "bytes":
		return p("string", "byte")
	case "any", "object":
		return p("object", "")
	}
	return nil, false
}
