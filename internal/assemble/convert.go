package assemble

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/doc2openapi/internal/schema"
)

const componentPrefix = "#/components/schemas/"

// converter turns table nodes into kin-openapi schemas. References carry the
// component value so the document validates without a reload.
type converter struct {
	comps map[string]*openapi3.Schema
}

func newConverter(table *schema.Table) *converter {
	c := &converter{comps: make(map[string]*openapi3.Schema)}
	for _, name := range table.Names() {
		c.comps[name] = &openapi3.Schema{}
	}
	return c
}

// components fills every component value and returns the schemas map.
func (c *converter) components(table *schema.Table) openapi3.Schemas {
	out := make(openapi3.Schemas, len(c.comps))
	for _, name := range table.Names() {
		n, _ := table.Lookup(name)
		*c.comps[name] = *c.component(name, n)
		out[name] = openapi3.NewSchemaRef("", c.comps[name])
	}
	return out
}

func (c *converter) component(name string, n *schema.Node) *openapi3.Schema {
	if n.Kind != schema.KindUnion {
		return c.node(n).Value
	}
	s := &openapi3.Schema{
		Description:   n.Description,
		Discriminator: &openapi3.Discriminator{PropertyName: n.Discriminator, Mapping: make(map[string]string, len(n.Variants))},
	}
	for _, v := range n.Variants {
		s.OneOf = append(s.OneOf, c.ref(v))
		s.Discriminator.Mapping[strings.TrimPrefix(v, name+".")] = componentPrefix + v
	}
	return s
}

func (c *converter) ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef(componentPrefix+name, c.comps[name])
}

// refs returns a single reference, or a oneOf over several.
func (c *converter) refs(names []string) *openapi3.SchemaRef {
	if len(names) == 1 {
		return c.ref(names[0])
	}
	s := &openapi3.Schema{}
	for _, name := range names {
		s.OneOf = append(s.OneOf, c.ref(name))
	}
	return openapi3.NewSchemaRef("", s)
}

func (c *converter) node(n *schema.Node) *openapi3.SchemaRef {
	switch n.Kind {
	case schema.KindRef:
		return c.ref(n.Ref)
	case schema.KindPrimitive:
		s := &openapi3.Schema{Type: n.Type, Format: n.Format, Description: n.Description}
		for _, e := range n.Enum {
			s.Enum = append(s.Enum, e)
		}
		return openapi3.NewSchemaRef("", s)
	case schema.KindArray:
		return openapi3.NewSchemaRef("", &openapi3.Schema{Type: "array", Description: n.Description, Items: c.node(n.Elem)})
	case schema.KindOptional:
		inner := c.node(n.Elem)
		if inner.Ref != "" {
			return openapi3.NewSchemaRef("", &openapi3.Schema{Nullable: true, AllOf: openapi3.SchemaRefs{inner}})
		}
		inner.Value.Nullable = true
		return inner
	case schema.KindObject:
		s := &openapi3.Schema{Type: "object", Description: n.Description, Required: n.Required()}
		if len(n.Fields) > 0 {
			s.Properties = make(openapi3.Schemas, len(n.Fields))
		}
		for _, f := range n.Fields {
			prop := c.node(f.Node)
			if f.Description != "" && prop.Ref == "" {
				prop.Value.Description = f.Description
			}
			s.Properties[f.Name] = prop
		}
		return openapi3.NewSchemaRef("", s)
	case schema.KindUnion:
		// Unions are only reachable through the table.
		return openapi3.NewSchemaRef("", c.component("", n))
	}
	return openapi3.NewSchemaRef("", &openapi3.Schema{})
}
