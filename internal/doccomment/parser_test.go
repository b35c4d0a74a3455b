package doccomment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SummaryAndDescription(t *testing.T) {
	t.Parallel()

	doc, warns := Parse("Get user\n\nFetch one user.\n")
	assert.Empty(t, warns)
	assert.Equal(t, "Get user", doc.Summary)
	assert.Equal(t, "Fetch one user.", doc.Description)
	assert.Empty(t, doc.Parameters)
	assert.Empty(t, doc.Responses)
	assert.Nil(t, doc.RequestBody)
}

func TestParse_DescriptionParagraphs(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		" List users",
		" ",
		" Returns every user",
		" visible to the caller.",
		" ",
		" Results are paginated.",
	}, "\n")
	doc, warns := Parse(raw)
	assert.Empty(t, warns)
	assert.Equal(t, "List users", doc.Summary)
	assert.Equal(t, "Returns every user visible to the caller.\n\nResults are paginated.", doc.Description)
}

func TestParse_SimpleResponses(t *testing.T) {
	t.Parallel()

	doc, warns := Parse("Get user\n\n# Responses\n- 200: OK\n- 404: Not found")
	assert.Empty(t, warns)
	assert.Equal(t, map[int]ResponseDoc{
		200: {Status: 200, Description: "OK"},
		404: {Status: 404, Description: "Not found"},
	}, doc.Responses)
}

func TestParse_Parameters(t *testing.T) {
	t.Parallel()

	raw := `Search users

# Parameters
- id (path): The user ID
* q (Query): Free text filter
- X-Trace (header): Trace id
this line is not a parameter
- page (body): wrong location
`
	doc, warns := Parse(raw)
	require.Len(t, doc.Parameters, 3)
	assert.Equal(t, ParamDoc{Name: "id", In: InPath, Description: "The user ID"}, doc.Parameters[0])
	assert.Equal(t, ParamDoc{Name: "q", In: InQuery, Description: "Free text filter"}, doc.Parameters[1])
	assert.Equal(t, ParamDoc{Name: "X-Trace", In: InHeader, Description: "Trace id"}, doc.Parameters[2])

	require.Len(t, warns, 2)
	assert.Equal(t, 7, warns[0].Line)
	assert.Contains(t, warns[0].Message, "malformed parameter line")
	assert.Contains(t, warns[1].Message, "unknown location")

	p, ok := doc.Param("id", InPath)
	assert.True(t, ok)
	assert.Equal(t, "The user ID", p.Description)
	_, ok = doc.Param("id", InQuery)
	assert.False(t, ok)
}

func TestParse_RequestBody(t *testing.T) {
	t.Parallel()

	raw := `Create user

## Request Body
Content-Type: application/xml
Schema: CreateUser
The user to create,
as XML.
`
	doc, warns := Parse(raw)
	assert.Empty(t, warns)
	require.NotNil(t, doc.RequestBody)
	assert.Equal(t, "application/xml", doc.RequestBody.ContentType)
	assert.Equal(t, "CreateUser", doc.RequestBody.SchemaRef)
	assert.Equal(t, "The user to create, as XML.", doc.RequestBody.Description)
}

func TestParse_RequestBodyDefaultContentType(t *testing.T) {
	t.Parallel()

	doc, _ := Parse("Create user\n# Request Body\nUser payload\n")
	require.NotNil(t, doc.RequestBody)
	assert.Equal(t, DefaultContentType, doc.RequestBody.ContentType)
	assert.Equal(t, "User payload", doc.RequestBody.Description)
}

func TestParse_ElaborateResponses(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		" Complex endpoint",
		" ",
		" # Responses",
		" - 200:",
		"   description: Success",
		"   content:",
		"     application/json:",
		"       schema: UserResponse",
		" - 404:",
		"   description: \"Not found\"",
		" - 500: Boom",
	}, "\n")
	doc, warns := Parse(raw)
	assert.Empty(t, warns)
	require.Len(t, doc.Responses, 3)

	ok := doc.Responses[200]
	assert.True(t, ok.Elaborate)
	assert.Equal(t, "Success", ok.Description)
	assert.Equal(t, "application/json", ok.ContentType)
	assert.Equal(t, "UserResponse", ok.SchemaRef)

	nf := doc.Responses[404]
	assert.True(t, nf.Elaborate)
	assert.Equal(t, "Not found", nf.Description)
	assert.Empty(t, nf.ContentType)

	assert.Equal(t, ResponseDoc{Status: 500, Description: "Boom"}, doc.Responses[500])
}

func TestParse_ElaborateExamples(t *testing.T) {
	t.Parallel()

	raw := `Test endpoint

# Responses
- 200:
  description: Success
  content:
    text/plain:
      schema: Message
  examples:
    - name: success_example
      summary: Successful response
      value: {"status": "ok"}
`
	doc, warns := Parse(raw)
	assert.Empty(t, warns)
	r := doc.Responses[200]
	assert.Equal(t, "text/plain", r.ContentType)
	require.Len(t, r.Examples, 1)
	assert.Equal(t, Example{Name: "success_example", Summary: "Successful response", Value: `{"status": "ok"}`}, r.Examples[0])
}

func TestParse_ElaborateDropped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "odd indentation",
			body: "- 200:\n   description: Success\n",
			want: "multiple of two spaces",
		},
		{
			name: "missing description",
			body: "- 200:\n  content:\n    application/json:\n      schema: User\n",
			want: "without description",
		},
		{
			name: "schema at wrong level",
			body: "- 200:\n  description: ok\n  content:\n    schema: User\n",
			want: "unexpected nesting",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, warns := Parse("Summary\n# Responses\n" + tt.body + "- 201: Created\n")
			_, kept := doc.Responses[200]
			assert.False(t, kept)
			assert.Contains(t, doc.Responses, 201)
			require.NotEmpty(t, warns)
			assert.Contains(t, warns[0].Message, tt.want)
		})
	}
}

func TestParse_MalformedResponses(t *testing.T) {
	t.Parallel()

	raw := "Summary\n# Responses\n- OK: fine\n- 999: nope\n  description: x\n- 204: No content\n  description: ignored\n"
	doc, warns := Parse(raw)
	require.Len(t, doc.Responses, 1)
	assert.Equal(t, "No content", doc.Responses[204].Description)
	require.Len(t, warns, 3)
	assert.Contains(t, warns[0].Message, "malformed response line")
	assert.Contains(t, warns[1].Message, "invalid status code")
	assert.Contains(t, warns[2].Message, "nested line under simple response 204")
}

func TestParse_DuplicateResponse(t *testing.T) {
	t.Parallel()

	doc, warns := Parse("Summary\n# Responses\n- 200: first\n- 200: second\n")
	assert.Equal(t, "second", doc.Responses[200].Description)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].Message, "documented twice")
}

func TestParse_ExtensionSections(t *testing.T) {
	t.Parallel()

	raw := `Get user

# Notes
Rate limited to
  10 requests per second.

# Responses
- 200: OK
`
	doc, warns := Parse(raw)
	assert.Empty(t, warns)
	require.Len(t, doc.Extensions, 1)
	assert.Equal(t, Section{Title: "Notes", Body: "Rate limited to\n  10 requests per second."}, doc.Extensions[0])
	assert.Contains(t, doc.Responses, 200)
}

func TestParse_HeadersAreCaseSensitive(t *testing.T) {
	t.Parallel()

	doc, _ := Parse("Summary\n# responses\n- 200: OK\n")
	assert.Empty(t, doc.Responses)
	require.Len(t, doc.Extensions, 1)
	assert.Equal(t, "responses", doc.Extensions[0].Title)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	doc, warns := Parse("   \n\n")
	assert.Empty(t, doc.Summary)
	assert.Empty(t, doc.Description)
	require.Len(t, warns, 1)
	assert.Equal(t, "missing summary", warns[0].Message)
}

func TestEndpointDoc_HasSuccess(t *testing.T) {
	t.Parallel()

	doc, _ := Parse("S\n# Responses\n- 404: nope\n")
	assert.False(t, doc.HasSuccess())
	doc, _ = Parse("S\n# Responses\n- 201: made\n")
	assert.True(t, doc.HasSuccess())
}
