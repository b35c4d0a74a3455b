package schema

import "slices"

// NodeKind tags a Node.
type NodeKind int

const (
	KindPrimitive NodeKind = iota
	KindOptional
	KindArray
	KindObject
	KindRef
	KindUnion
)

// Node is one JSON-Schema shaped type. Objects and unions live in the Table
// under their type name; everything else refers to them through KindRef.
type Node struct {
	Kind        NodeKind
	Description string

	// KindPrimitive
	Type   string // integer, number, string, boolean, object
	Format string
	Enum   []string

	// KindOptional, KindArray
	Elem *Node

	// KindObject
	Fields []Field

	// KindRef: the referenced table name
	Ref string

	// KindUnion: table names of the variants, tagged by Discriminator
	Variants      []string
	Discriminator string
}

// Field is one property of an object node.
type Field struct {
	Name        string
	Node        *Node
	Optional    bool
	Description string
}

// RefTo returns a reference node to the table entry name.
func RefTo(name string) *Node { return &Node{Kind: KindRef, Ref: name} }

// Required returns the names of the non-optional fields, in order.
func (n *Node) Required() []string {
	var out []string
	for _, f := range n.Fields {
		if !f.Optional {
			out = append(out, f.Name)
		}
	}
	return out
}

// Refs returns every table name n refers to, directly or through wrappers
// and fields, in first-seen order.
func (n *Node) Refs() []string {
	var out []string
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		switch n.Kind {
		case KindRef:
			if !slices.Contains(out, n.Ref) {
				out = append(out, n.Ref)
			}
		case KindOptional, KindArray:
			walk(n.Elem)
		case KindObject:
			for _, f := range n.Fields {
				walk(f.Node)
			}
		case KindUnion:
			for _, v := range n.Variants {
				if !slices.Contains(out, v) {
					out = append(out, v)
				}
			}
		}
	}
	walk(n)
	return out
}

// Equal reports structural equality. Descriptions are part of the shape: two
// declarations of one name must agree on them too.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind || n.Description != o.Description {
		return false
	}
	switch n.Kind {
	case KindPrimitive:
		return n.Type == o.Type && n.Format == o.Format && slices.Equal(n.Enum, o.Enum)
	case KindOptional, KindArray:
		return n.Elem.Equal(o.Elem)
	case KindObject:
		return slices.EqualFunc(n.Fields, o.Fields, func(a, b Field) bool {
			return a.Name == b.Name && a.Optional == b.Optional &&
				a.Description == b.Description && a.Node.Equal(b.Node)
		})
	case KindRef:
		return n.Ref == o.Ref
	case KindUnion:
		return n.Discriminator == o.Discriminator && slices.Equal(n.Variants, o.Variants)
	}
	return false
}
