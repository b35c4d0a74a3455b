package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/doc2openapi/internal/assemble"
	"github.com/mark3labs/doc2openapi/internal/registry"
	"github.com/mark3labs/doc2openapi/internal/schema"
)

const shopManifest = `title: Shop
version: "2.1.0"
description: Orders and items.
servers:
  - url: https://shop.example.com/v2
    description: production
types:
  - name: Item
    description: A line item.
    fields:
      - name: sku
        type: string
      - name: qty
        type: int32
  - name: Order
    fields:
      - name: id
        type: uuid
      - name: items
        type: "[]Item"
      - name: note
        type: "?string"
  - name: OrderError
    variants:
      - name: NotFound
        doc: "404: order not found"
      - name: Invalid
        doc: "422: invalid order"
        fields:
          - name: reason
            type: string
routes:
  - method: GET
    path: /orders/:id
    success: Order
    error: OrderError
    tags: [orders]
    doc: |
      Fetch an order.

      # Parameters
      - id (path): Order id
  - method: POST
    path: /orders
    request: Order
    success: Order
    tags: [orders, write]
    operationId: createOrder
    doc: Create an order.
  - method: GET
    path: /health
    tags: [internal]
    doc: |
      Health check.

      # Responses
      - 204: Healthy
`

func decodeShop(t *testing.T) *Manifest {
	t.Helper()
	m, err := Decode([]byte(shopManifest))
	require.NoError(t, err)
	return m
}

func newPipeline() (*schema.Synthesizer, *registry.Registry) {
	synth := schema.NewSynthesizer(schema.NewTable())
	return synth, registry.New(synth)
}

func TestBuild_RegistersRoutesAndTypes(t *testing.T) {
	m := decodeShop(t)
	synth, reg := newPipeline()

	res, err := Build(m, synth, reg)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Routes)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "Shop", res.Info.Title)
	assert.Equal(t, "Orders and items.", res.Info.Description)
	require.Len(t, res.Info.Servers, 1)
	assert.Equal(t, "production", res.Info.Servers[0].Description)

	assert.Equal(t, []string{"Item", "Order", "OrderError.NotFound", "OrderError.Invalid", "OrderError"}, reg.Table().Names())

	routes := reg.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, "Order", routes[0].Success)
	assert.Equal(t, "OrderError", routes[0].Error)
	assert.Equal(t, "Order", routes[1].Request)
	assert.Equal(t, "createOrder", routes[1].OperationID)
	assert.Equal(t, []string{"orders", "write"}, routes[1].Tags)

	doc, err := assemble.Assemble(res.Info, routes, reg.Table())
	require.NoError(t, err)
	op := doc.T.Paths["/orders/{id}"].Get
	require.NotNil(t, op)
	assert.NotNil(t, op.Responses["404"])
	assert.NotNil(t, op.Responses["422"])
}

func TestBuild_TagSelection(t *testing.T) {
	m := decodeShop(t)
	synth, reg := newPipeline()

	res, err := Build(m, synth, reg, WithIncludeTags([]string{"orders", " "}), WithExcludeTags([]string{"write"}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Routes)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, reg.Routes(), 1)
	assert.Equal(t, "/orders/:id", reg.Routes()[0].Path)
}

func TestBuild_InfoOverrideAndVersionWarning(t *testing.T) {
	m := decodeShop(t)
	synth, reg := newPipeline()

	res, err := Build(m, synth, reg, WithInfo("Shop (staging)", "nightly"))
	require.NoError(t, err)
	assert.Equal(t, "Shop (staging)", res.Info.Title)
	assert.Equal(t, "nightly", res.Info.Version)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "info", res.Warnings[0].Scope)
	assert.Contains(t, res.Warnings[0].Message, "not a semantic version")
}

func TestBuild_UndeclaredRouteType(t *testing.T) {
	m := decodeShop(t)
	m.Routes[2].Success = "Status"
	synth, reg := newPipeline()

	_, err := Build(m, synth, reg)
	var me *ManifestError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, ValidationError, me.Code)
	assert.Equal(t, "#/routes/2/success", me.Pointer)
	assert.Contains(t, me.Message, `"Status" is not declared`)
}

func TestBuild_DuplicateRouteKeepsCause(t *testing.T) {
	m := decodeShop(t)
	m.Routes = append(m.Routes, Route{Method: "get", Path: "/orders/{id}", Doc: "Again."})
	synth, reg := newPipeline()

	_, err := Build(m, synth, reg)
	var me *ManifestError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "#/routes/3", me.Pointer)
	var dup *registry.DuplicateRouteError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "/orders/:id", dup.Existing)
}

func TestBuild_InvalidTypeDeclaration(t *testing.T) {
	m := decodeShop(t)
	m.Types[0].Fields = append(m.Types[0].Fields, Field{Name: "sku", Type: "string"})
	synth, reg := newPipeline()

	_, err := Build(m, synth, reg)
	var me *ManifestError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "#/types/0", me.Pointer)
	var inv *schema.InvalidTypeError
	assert.True(t, errors.As(err, &inv))
}

func TestAllowByTags(t *testing.T) {
	cfg := &buildConfig{}
	assert.True(t, allowByTags(nil, cfg))

	WithIncludeTags([]string{"a"})(cfg)
	assert.False(t, allowByTags(nil, cfg))
	assert.True(t, allowByTags([]string{"b", "a"}, cfg))

	WithExcludeTags([]string{"b"})(cfg)
	assert.False(t, allowByTags([]string{"b", "a"}, cfg))
}
