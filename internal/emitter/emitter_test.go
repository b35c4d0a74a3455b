package emitter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/doc2openapi/internal/assemble"
	"github.com/mark3labs/doc2openapi/internal/registry"
	"github.com/mark3labs/doc2openapi/internal/schema"
)

func minimalDocument(t *testing.T) *assemble.Document {
	t.Helper()
	synth := schema.NewSynthesizer(schema.NewTable())
	reg := registry.New(synth)
	hello := schema.TypeDesc{Name: "Hello", Fields: []schema.FieldDesc{{Name: "greeting", Type: schema.Prim("string")}}}
	if err := reg.Register(registry.GET, "/hello", "Say hello", &hello, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	doc, err := assemble.Assemble(assemble.Info{Title: "Sample API", Version: "1.0.0"}, reg.Routes(), reg.Table())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return doc
}

func TestEmit_DryRun_Plan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	res, err := Emit(context.Background(), minimalDocument(t), Options{OutDir: dir, Name: "petstore.yaml", DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if res.Name != "petstore" {
		t.Fatalf("name mismatch: %+v", res)
	}
	if len(res.Planned) != 2 || res.Planned[0].RelPath != "petstore.json" || res.Planned[1].RelPath != "petstore.yaml" {
		t.Fatalf("unexpected plan: %+v", res.Planned)
	}
	for _, pf := range res.Planned {
		if pf.Size == 0 {
			t.Fatalf("planned %s with zero size", pf.RelPath)
		}
	}
	// Dry-run should not have written files
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected no files written on dry-run")
	}
}

func TestEmit_WriteAndContents(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "docs")
	doc := minimalDocument(t)
	if _, err := Emit(context.Background(), doc, Options{OutDir: dir}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	j, err := os.ReadFile(filepath.Join(dir, "openapi.json"))
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var v map[string]any
	if err := json.Unmarshal(j, &v); err != nil {
		t.Fatalf("openapi.json invalid: %v", err)
	}
	if v["openapi"] != assemble.OpenAPIVersion {
		t.Fatalf("unexpected version field: %v", v["openapi"])
	}

	y, err := os.ReadFile(filepath.Join(dir, "openapi.yaml"))
	if err != nil {
		t.Fatalf("read yaml: %v", err)
	}
	if !strings.Contains(string(y), "/hello:") {
		t.Fatalf("yaml missing path: %s", y)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestEmit_SingleFormat(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	res, err := Emit(context.Background(), minimalDocument(t), Options{OutDir: dir, Format: FormatYAML})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(res.Planned) != 1 || res.Planned[0].RelPath != "openapi.yaml" {
		t.Fatalf("unexpected plan: %+v", res.Planned)
	}
	if _, err := os.Stat(filepath.Join(dir, "openapi.json")); !os.IsNotExist(err) {
		t.Fatalf("json written for yaml-only format")
	}
}

func TestEmit_NoForce_ExistingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	existing := filepath.Join(dir, "openapi.yaml")
	if err := os.WriteFile(existing, []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}
	// unrelated files do not block the write
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}
	if _, err := Emit(context.Background(), minimalDocument(t), Options{OutDir: dir}); err == nil {
		t.Fatalf("expected error on existing file without force")
	}
	if _, err := os.Stat(filepath.Join(dir, "openapi.json")); !os.IsNotExist(err) {
		t.Fatalf("nothing should be written when the pre-flight check fails")
	}

	if _, err := Emit(context.Background(), minimalDocument(t), Options{OutDir: dir, Force: true}); err != nil {
		t.Fatalf("emit with force: %v", err)
	}
	b, _ := os.ReadFile(existing)
	if string(b) == "x" {
		t.Fatalf("existing file was not replaced")
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Format{"JSON": FormatJSON, "yml": FormatYAML, "": FormatBoth, "both": FormatBoth} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}
