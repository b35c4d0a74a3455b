package registry

import (
	"fmt"
	"strings"
	"unicode"
)

type segment struct {
	literal  string
	param    string
	catchAll bool
}

// PathError reports a path template that cannot be parsed.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path template %q: %s", e.Path, e.Reason)
}

// parseTemplate splits a path template into segments. Parameters may be
// written ":name", "{name}" or "*name" (catch-all, last segment only).
func parseTemplate(path string) ([]segment, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, &PathError{Path: path, Reason: "must start with /"}
	}
	if path == "/" {
		return nil, nil
	}
	parts := strings.Split(strings.TrimSuffix(path[1:], "/"), "/")
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool)
	for i, part := range parts {
		var s segment
		switch {
		case part == "":
			return nil, &PathError{Path: path, Reason: "empty segment"}
		case strings.HasPrefix(part, ":"):
			s.param = part[1:]
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			s.param = part[1 : len(part)-1]
		case strings.HasPrefix(part, "*"):
			s.param, s.catchAll = part[1:], true
			if i != len(parts)-1 {
				return nil, &PathError{Path: path, Reason: "catch-all parameter must be the last segment"}
			}
		default:
			if strings.ContainsAny(part, "{}") {
				return nil, &PathError{Path: path, Reason: fmt.Sprintf("malformed segment %q", part)}
			}
			s.literal = part
		}
		if s.literal == "" {
			if s.param == "" {
				return nil, &PathError{Path: path, Reason: "parameter without a name"}
			}
			if seen[s.param] {
				return nil, &PathError{Path: path, Reason: fmt.Sprintf("parameter %q used twice", s.param)}
			}
			seen[s.param] = true
		}
		segs = append(segs, s)
	}
	return segs, nil
}

// openAPIPath renders segments in OpenAPI form ("/users/{id}").
func openAPIPath(segs []segment) string {
	if len(segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		if s.literal != "" {
			b.WriteString(s.literal)
		} else {
			b.WriteString("{" + s.param + "}")
		}
	}
	return b.String()
}

// routeKey identifies a route for duplicate detection: the method plus the
// rendered OpenAPI path. Two templates that render to the same path would
// share one operation, so the parameter spelling (":id", "{id}", "*id") does
// not distinguish routes; the parameter name does.
func routeKey(m Method, segs []segment) string {
	return string(m) + " " + openAPIPath(segs)
}

func pathParams(segs []segment) []string {
	var out []string
	for _, s := range segs {
		if s.param != "" {
			out = append(out, s.param)
		}
	}
	return out
}

// defaultOperationID builds a lowerCamel id from the method and segments:
// GET /users/:id becomes getUsersById.
func defaultOperationID(m Method, segs []segment) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(m)))
	if len(segs) == 0 {
		b.WriteString("Root")
	}
	for _, s := range segs {
		if s.literal != "" {
			b.WriteString(camel(s.literal))
		} else {
			b.WriteString("By" + camel(s.param))
		}
	}
	return b.String()
}

func camel(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
