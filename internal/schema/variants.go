package schema

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/mark3labs/doc2openapi/internal/diag"
)

// DefaultErrorStatus is used for error variants without a status annotation
// and for error types that are not unions.
const DefaultErrorStatus = http.StatusInternalServerError

var statusRe = regexp.MustCompile(`^\s*(\d+)\b\s*[:\-]?\s*`)

// ErrorResponse is the automatic response for one status of an error type.
type ErrorResponse struct {
	Status      int
	Description string
	// Schemas are table names; more than one means alternatives.
	Schemas []string
}

// ErrorSet maps status codes to the error responses of one error type.
type ErrorSet struct {
	Type     string
	ByStatus map[int]ErrorResponse
}

// Statuses returns the status codes in ascending order.
func (s ErrorSet) Statuses() []int {
	out := make([]int, 0, len(s.ByStatus))
	for code := range s.ByStatus {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}

// ExtractErrors synthesizes the error type d and derives its per-status
// responses, storing them in the table. Each union variant contributes its
// leading status annotation; variants sharing a status become alternatives
// under that status. A non-union type maps to DefaultErrorStatus.
func (s *Synthesizer) ExtractErrors(d TypeDesc) (ErrorSet, []diag.Warning, error) {
	if _, err := s.Synthesize(d); err != nil {
		return ErrorSet{}, nil, err
	}
	set := ErrorSet{Type: d.Name, ByStatus: make(map[int]ErrorResponse)}
	var warns []diag.Warning

	if !d.IsUnion() {
		set.ByStatus[DefaultErrorStatus] = ErrorResponse{Status: DefaultErrorStatus, Schemas: []string{d.Name}}
		return set, nil, s.table.SetErrors(d.Name, set)
	}

	for _, v := range d.Variants {
		status, desc, ok := leadingStatus(v.Doc)
		if !ok {
			status, desc = DefaultErrorStatus, strings.TrimSpace(v.Doc)
			warns = append(warns, diag.Warning{
				Scope:   d.Name,
				Message: fmt.Sprintf("variant %s has no status annotation; using %d", v.Name, status),
			})
		}
		r := set.ByStatus[status]
		r.Status = status
		r.Schemas = append(r.Schemas, VariantName(d.Name, v.Name))
		if desc != "" {
			if r.Description == "" {
				r.Description = desc
			} else {
				r.Description += "; " + desc
			}
		}
		set.ByStatus[status] = r
	}
	return set, warns, s.table.SetErrors(d.Name, set)
}

// leadingStatus reads the first integer token of a variant doc line as an
// HTTP status. rest is the remaining text, or the standard status text when
// nothing follows.
func leadingStatus(doc string) (status int, rest string, ok bool) {
	m := statusRe.FindStringSubmatchIndex(doc)
	if m == nil {
		return 0, "", false
	}
	code, err := strconv.Atoi(doc[m[2]:m[3]])
	if err != nil || code < 100 || code > 599 {
		return 0, "", false
	}
	rest = strings.TrimSpace(doc[m[1]:])
	if rest == "" {
		rest = http.StatusText(code)
	}
	return code, rest, true
}
