package manifest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleManifest = `title: Users API
version: 1.0.0
servers:
  - url: https://api.example.com
types:
  - name: User
    fields:
      - name: id
        type: int64
      - name: name
        type: string
routes:
  - method: get
    path: /users/:id
    success: User
    doc: |
      Get a user.
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "api.yaml", sampleManifest)
	m, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Title != "Users API" || len(m.Types) != 1 || len(m.Routes) != 1 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.Routes[0].Doc != "Get a user.\n" {
		t.Fatalf("unexpected doc %q", m.Routes[0].Doc)
	}
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "api.json", `{"title":"T","version":"1","routes":[{"method":"GET","path":"/"}]}`)
	m, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Routes[0].Method != "GET" {
		t.Fatalf("unexpected method %q", m.Routes[0].Method)
	}
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	if err == nil {
		t.Fatalf("expected error for file:// URL")
	}
	var me *ManifestError
	if !errors.As(err, &me) {
		t.Fatalf("expected ManifestError, got %T", err)
	}
	if me.Code != InputError {
		t.Fatalf("expected InputError, got %v", me.Code)
	}
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/api.yaml")
	var me *ManifestError
	if !errors.As(err, &me) || me.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	var me *ManifestError
	if !errors.As(err, &me) || me.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	url := "http://127.0.0.1:1/api.yaml"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, url, WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	var me *ManifestError
	if !errors.As(err, &me) || me.Code != NetworkError {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
}

func TestLoad_HTTPRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleManifest))
	}))
	defer srv.Close()

	m, err := Load(context.Background(), srv.URL+"/api.yaml", WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Title != "Users API" {
		t.Fatalf("unexpected title %q", m.Title)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestLoad_HTTPClientErrorNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL+"/missing.yaml", WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	var me *ManifestError
	if !errors.As(err, &me) || me.Code != NetworkError {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"empty":       "",
		"unknown key": "title: T\nversion: 1\nrouts: []\n",
		"bad yaml":    "title: [unclosed\n",
	}
	for name, content := range cases {
		path := writeFile(t, "api.yaml", content)
		_, err := Load(context.Background(), path)
		var me *ManifestError
		if !errors.As(err, &me) || me.Code != ParseError {
			t.Fatalf("%s: expected ParseError, got %v (%T)", name, err, err)
		}
		if me.Location == "" {
			t.Fatalf("%s: expected location to be set", name)
		}
	}
}

func TestLoad_ValidationPointer(t *testing.T) {
	t.Parallel()
	content := strings.Replace(sampleManifest, "method: get", "method: fetch", 1)
	path := writeFile(t, "api.yaml", content)
	_, err := Load(context.Background(), path)
	var me *ManifestError
	if !errors.As(err, &me) || me.Code != ValidationError {
		t.Fatalf("expected ValidationError, got %v (%T)", err, err)
	}
	if me.Pointer != "#/routes/0/method" {
		t.Fatalf("unexpected pointer %q", me.Pointer)
	}
}
