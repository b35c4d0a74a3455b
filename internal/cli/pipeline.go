package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/doc2openapi/internal/assemble"
	"github.com/mark3labs/doc2openapi/internal/diag"
	"github.com/mark3labs/doc2openapi/internal/manifest"
	"github.com/mark3labs/doc2openapi/internal/registry"
	"github.com/mark3labs/doc2openapi/internal/schema"
)

// pipelineInput is what generate and serve share: where the manifest lives
// and which routes to keep.
type pipelineInput struct {
	Input       string
	IncludeTags []string
	ExcludeTags []string
	Title       string
	Version     string
}

// buildDocument loads the manifest, registers its routes and assembles the
// document. The registry is frozen before assembly. Warnings are returned
// deduplicated in discovery order.
func buildDocument(ctx context.Context, in pipelineInput, lg *diag.Logger) (*assemble.Document, []diag.Warning, error) {
	lg.Infof("loading manifest %s", in.Input)
	m, err := manifest.Load(ctx, in.Input)
	if err != nil {
		return nil, nil, manifestUsageError(err)
	}

	synth := schema.NewSynthesizer(schema.NewTable())
	reg := registry.New(synth)
	res, err := manifest.Build(m, synth, reg,
		manifest.WithIncludeTags(in.IncludeTags),
		manifest.WithExcludeTags(in.ExcludeTags),
		manifest.WithInfo(in.Title, in.Version),
	)
	if err != nil {
		return nil, nil, manifestUsageError(err)
	}
	lg.Infof("registered %d routes (%d skipped by tag selection), %d schemas", res.Routes, res.Skipped, len(reg.Table().Names()))

	reg.Freeze()
	doc, err := assemble.Assemble(res.Info, reg.Routes(), reg.Table())
	if err != nil {
		return nil, nil, fmt.Errorf("assemble: %w", err)
	}
	return doc, dedupWarnings(append(res.Warnings, doc.Warnings...)), nil
}

// manifestUsageError maps structured manifest errors into friendly messages.
func manifestUsageError(err error) error {
	var me *manifest.ManifestError
	if !errors.As(err, &me) {
		return err
	}
	msg := fmt.Sprintf("manifest: %s", me.Message)
	if me.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, me.Location)
	}
	if me.Pointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, me.Pointer)
	}
	return wrapUsageError(msg, err)
}

func dedupWarnings(ws []diag.Warning) []diag.Warning {
	seen := make(map[diag.Warning]bool, len(ws))
	out := ws[:0]
	for _, w := range ws {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// strictError fails a run whose warnings were promoted to errors.
func strictError(ws []diag.Warning) error {
	if len(ws) == 0 {
		return nil
	}
	return newUsageError(fmt.Sprintf("strict mode: %d warning(s) reported", len(ws)))
}
