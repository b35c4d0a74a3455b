package assemble

import "fmt"

// UnresolvedRefError reports a schema name that is not in the table. It is
// raised either by a route (Method, Path, Status) or by a type (Type).
type UnresolvedRefError struct {
	Method string
	Path   string
	Status int // 0 for the request body
	Type   string
	Name   string
}

func (e *UnresolvedRefError) Error() string {
	switch {
	case e.Type != "":
		return fmt.Sprintf("type %q refers to unknown schema %q", e.Type, e.Name)
	case e.Status == 0:
		return fmt.Sprintf("%s %s: request body refers to unknown schema %q", e.Method, e.Path, e.Name)
	default:
		return fmt.Sprintf("%s %s: response %d refers to unknown schema %q", e.Method, e.Path, e.Status, e.Name)
	}
}
