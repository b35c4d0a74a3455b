// Package publish serves an assembled document over HTTP.
package publish

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mark3labs/doc2openapi/internal/assemble"
)

// DefaultPrefix is used when the configured prefix is empty.
const DefaultPrefix = "/openapi"

// NormalizePrefix adds a leading slash and strips trailing ones. An empty
// prefix (or "/") becomes DefaultPrefix.
func NormalizePrefix(prefix string) string {
	p := strings.TrimRight(strings.TrimSpace(prefix), "/")
	if p == "" {
		return DefaultPrefix
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// Handler serves the document at <prefix>.json and <prefix>.yaml. Both
// encodings are rendered once, up front; the document must not change
// afterwards.
//
//	h, _ := publish.Handler("/openapi", doc)
//	http.ListenAndServe(":8080", h)
func Handler(prefix string, doc *assemble.Document) (http.Handler, error) {
	specJSON, err := doc.JSON()
	if err != nil {
		return nil, err
	}
	specYAML, err := doc.YAML()
	if err != nil {
		return nil, err
	}

	prefix = NormalizePrefix(prefix)
	mux := http.NewServeMux()
	mux.Handle(prefix+".json", static("application/json", specJSON))
	mux.Handle(prefix+".yaml", static("application/yaml", specYAML))
	return mux, nil
}

func static(contentType string, body []byte) http.Handler {
	length := strconv.Itoa(len(body))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
		default:
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", length)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(body)
	})
}
