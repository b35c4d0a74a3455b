package manifest

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/doc2openapi/internal/schema"
)

func validManifest() Manifest {
	return Manifest{
		Title:   "T",
		Version: "1.0.0",
		Types: []Type{
			{Name: "User", Fields: []Field{{Name: "id", Type: "int64"}}},
		},
		Routes: []Route{{Method: "GET", Path: "/users"}},
	}
}

func TestValidate_OK(t *testing.T) {
	m := validManifest()
	require.NoError(t, m.Validate())
}

func TestValidate_Pointers(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Manifest)
		pointer string
	}{
		{"missing title", func(m *Manifest) { m.Title = "" }, "#/title"},
		{"no routes", func(m *Manifest) { m.Routes = nil }, "#/routes"},
		{"bad server url", func(m *Manifest) { m.Servers = []Server{{URL: "not a url"}} }, "#/servers/0/url"},
		{"relative path", func(m *Manifest) { m.Routes[0].Path = "users" }, "#/routes/0/path"},
		{"bad method", func(m *Manifest) { m.Routes[0].Method = "FETCH" }, "#/routes/0/method"},
		{"bad success name", func(m *Manifest) { m.Routes[0].Success = "[]User" }, "#/routes/0/success"},
		{"bad field type", func(m *Manifest) { m.Types[0].Fields[0].Type = "??int" }, "#/types/0/fields/0/type"},
		{"fields and variants", func(m *Manifest) {
			m.Types[0].Variants = []Variant{{Name: "A"}}
		}, "#/types/0/variants"},
		{"duplicate type", func(m *Manifest) { m.Types = append(m.Types, m.Types[0]) }, "#/types"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := validManifest()
			m.Types[0].Fields = append([]Field(nil), m.Types[0].Fields...)
			m.Routes = append([]Route(nil), m.Routes...)
			tc.mutate(&m)
			err := m.Validate()
			require.Error(t, err)
			assert.Equal(t, tc.pointer, errorPointer(err))
		})
	}
}

func TestErrorPointer_NonValidationError(t *testing.T) {
	assert.Empty(t, errorPointer(assert.AnError))
	assert.Equal(t, "#/a", errorPointer(validation.Errors{"a": assert.AnError}))
}

func TestParseTypeExpr(t *testing.T) {
	cases := map[string]schema.TypeExpr{
		"int64":     schema.Prim("int64"),
		" User ":    schema.Named("User"),
		"[]User":    schema.Seq(schema.Named("User")),
		"?[]string": schema.Opt(schema.Seq(schema.Prim("string"))),
		"[]?Item":   schema.Seq(schema.Opt(schema.Named("Item"))),
		"Api.Error": schema.Named("Api.Error"),
	}
	for in, want := range cases {
		got, err := ParseTypeExpr(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "[]", "??int", "map[string]int", "1User"} {
		_, err := ParseTypeExpr(bad)
		assert.Error(t, err, bad)
	}
}
