package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/doc2openapi/internal/schema"
)

var typeNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// ParseTypeExpr parses a field type: "[]T" is a sequence, "?T" an optional,
// known primitive names are primitives and anything else names a type.
func ParseTypeExpr(s string) (schema.TypeExpr, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return schema.TypeExpr{}, fmt.Errorf("empty type")
	case strings.HasPrefix(s, "[]"):
		elem, err := ParseTypeExpr(s[2:])
		if err != nil {
			return schema.TypeExpr{}, err
		}
		return schema.Seq(elem), nil
	case strings.HasPrefix(s, "?"):
		elem, err := ParseTypeExpr(s[1:])
		if err != nil {
			return schema.TypeExpr{}, err
		}
		if elem.Kind == schema.ExprOpt {
			return schema.TypeExpr{}, fmt.Errorf("type %q: optional of optional", s)
		}
		return schema.Opt(elem), nil
	case schema.IsPrimitive(s):
		return schema.Prim(s), nil
	case typeNameRe.MatchString(s):
		return schema.Named(s), nil
	}
	return schema.TypeExpr{}, fmt.Errorf("invalid type %q", s)
}
