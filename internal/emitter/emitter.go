// Package emitter writes an assembled document to disk as <name>.json and/or
// <name>.yaml.
package emitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/doc2openapi/internal/assemble"
)

// Format selects which encodings are written.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatBoth Format = "both"
)

// ParseFormat accepts json, yaml (or yml) and both, in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "both", "":
		return FormatBoth, nil
	}
	return "", fmt.Errorf("unsupported format %q (expected json, yaml or both)", s)
}

// DefaultName is the file base name used when Options.Name is empty.
const DefaultName = "openapi"

// Options controls how the document is written.
type Options struct {
	OutDir string // required; target directory
	Name   string // file base name; defaults to DefaultName
	Format Format // defaults to FormatBoth
	Force  bool   // overwrite existing files
	DryRun bool   // don't write, only plan
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files and the resolved base name.
type Result struct {
	Name    string
	Planned []PlannedFile
}

// Emit renders doc in the selected formats and writes the files atomically
// unless opts.DryRun is set. Existing files are only replaced with
// opts.Force; the check happens before anything is written.
func Emit(ctx context.Context, doc *assemble.Document, opts Options) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("emitter: nil document")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("emitter: OutDir is required")
	}
	name := sanitizeName(opts.Name)
	if name == "" {
		name = DefaultName
	}
	format := opts.Format
	if format == "" {
		format = FormatBoth
	}

	files := map[string][]byte{}
	if format == FormatJSON || format == FormatBoth {
		b, err := doc.JSON()
		if err != nil {
			return nil, err
		}
		files[name+".json"] = b
	}
	if format == FormatYAML || format == FormatBoth {
		b, err := doc.YAML()
		if err != nil {
			return nil, err
		}
		files[name+".yaml"] = b
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("emitter: unsupported format %q", format)
	}

	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, p)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(ctx, opts.OutDir, rels, files, opts.Force); err != nil {
			return nil, err
		}
	}
	return &Result{Name: name, Planned: planned}, nil
}

func writeFiles(ctx context.Context, outDir string, rels []string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if !force {
		for _, rel := range rels {
			p := filepath.Join(abs, rel)
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("emitter: %s already exists (use --force to overwrite)", p)
			}
		}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := filepath.Join(abs, rel)
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, files[rel], 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}

// sanitizeName keeps a file base name to letters, digits, '-', '_' and '.'.
// A trailing .json/.yaml/.yml extension is dropped.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	b := strings.Builder{}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-.")
}
