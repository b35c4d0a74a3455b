package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
)

// ManifestError is a structured error with optional location and JSON Pointer.
type ManifestError struct {
	Code     ErrorCode
	Message  string
	Location string // file path or URL
	Pointer  string // e.g. "#/routes/0/method"
	Cause    error
}

func (e *ManifestError) Error() string { return e.Message }
func (e *ManifestError) Unwrap() error { return e.Cause }

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option  { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }

// Load reads, decodes and validates a manifest. input may be a filesystem
// path or an http/https URL; file:// URLs are rejected. YAML and JSON are
// both accepted. Unknown keys are a parse error.
func Load(ctx context.Context, input string, opts ...Option) (*Manifest, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ManifestError{Code: InputError, Message: "manifest: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	var (
		raw      []byte
		location string
	)
	u, uerr := url.Parse(input)
	if uerr == nil && u.Scheme != "" && u.Host != "" {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, &ManifestError{Code: InputError, Message: "manifest: file:// URLs are not supported; pass a path", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, &ManifestError{Code: InputError, Message: fmt.Sprintf("manifest: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		b, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, &ManifestError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		raw, location = b, input
	} else {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, &ManifestError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
		}
		b, err := os.ReadFile(abs)
		if err != nil {
			return nil, &ManifestError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
		}
		raw, location = b, abs
	}

	m, err := Decode(raw)
	if err != nil {
		var me *ManifestError
		if errors.As(err, &me) {
			me.Location = location
		}
		return nil, err
	}
	return m, nil
}

// Decode parses and validates manifest bytes.
func Decode(raw []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ManifestError{Code: ParseError, Message: "parse manifest: document is empty", Cause: err}
		}
		return nil, &ManifestError{Code: ParseError, Message: fmt.Sprintf("parse manifest: %v", err), Cause: err}
	}
	if err := m.Validate(); err != nil {
		return nil, &ManifestError{
			Code:    ValidationError,
			Message: fmt.Sprintf("invalid manifest: %v", err),
			Pointer: errorPointer(err),
			Cause:   err,
		}
	}
	return &m, nil
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// fetchOnce performs one GET. retry reports whether the failure is transient.
func fetchOnce(ctx context.Context, client *http.Client, rawURL string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode < 300:
		b, err := io.ReadAll(resp.Body)
		return b, false, err
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}
