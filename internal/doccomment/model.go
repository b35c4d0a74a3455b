package doccomment

// Location is where a parameter is carried in the request.
type Location string

const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
	InCookie Location = "cookie"
)

// DefaultContentType is used for request bodies and elaborate responses that
// do not name a media type.
const DefaultContentType = "application/json"

// EndpointDoc is the structured documentation of one route.
type EndpointDoc struct {
	Summary     string
	Description string
	Parameters  []ParamDoc
	RequestBody *RequestBodyDoc
	Responses   map[int]ResponseDoc
	// Extensions keeps unknown sections verbatim, in source order.
	Extensions []Section
}

// ParamDoc documents one request parameter.
type ParamDoc struct {
	Name        string
	In          Location
	Description string
}

// RequestBodyDoc documents the request body.
type RequestBodyDoc struct {
	ContentType string
	Description string
	SchemaRef   string // optional explicit schema-table key
}

// ResponseDoc documents one status code. Simple responses only carry a
// description; elaborate ones may also name a media type and a schema.
type ResponseDoc struct {
	Status      int
	Description string
	Elaborate   bool
	ContentType string
	SchemaRef   string // resolved lazily against the schema table
	Examples    []Example
}

// Example is a named example value attached to an elaborate response.
type Example struct {
	Name    string
	Summary string
	Value   string
}

// Section is an unrecognized top-level section, preserved as text.
type Section struct {
	Title string
	Body  string
}

// Param returns the parameter named name at location in, if documented.
func (d EndpointDoc) Param(name string, in Location) (ParamDoc, bool) {
	for _, p := range d.Parameters {
		if p.Name == name && p.In == in {
			return p, true
		}
	}
	return ParamDoc{}, false
}

// HasSuccess reports whether any 2xx status is documented.
func (d EndpointDoc) HasSuccess() bool {
	for code := range d.Responses {
		if code >= 200 && code < 300 {
			return true
		}
	}
	return false
}
