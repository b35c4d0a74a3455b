package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/doc2openapi/internal/diag"
	"github.com/mark3labs/doc2openapi/internal/emitter"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string
	Out         string
	Name        string
	Format      string
	IncludeTags []string
	ExcludeTags []string
	Title       string
	Version     string
	ConfigPath  string
	Print       bool
	DryRun      bool
	Force       bool
	Strict      bool
	Validate    bool
	Verbose     bool

	stdout io.Writer
	stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Out: ".", Name: emitter.DefaultName, Format: string(emitter.FormatBoth)}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an OpenAPI document from a route manifest",
		Long: "Generate an OpenAPI 3.0 document from a manifest of documented routes and types. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  doc2openapi generate --input api.yaml --out ./docs
  doc2openapi generate --input api.yaml --format yaml --print
  doc2openapi --config doc2openapi.yaml generate --force --strict`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			cfg.stdout = cmd.OutOrStdout()
			cfg.stderr = cmd.ErrOrStderr()
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the route manifest (YAML or JSON)")
	flags.String("out", "", "Output directory; defaults to the current directory")
	flags.String("name", "", "Output file base name; defaults to openapi")
	flags.String("format", "", "Output format (json|yaml|both); defaults to both")
	flags.StringSlice("include-tags", nil, "Only include routes with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude routes with these tags")
	flags.String("title", "", "Override the API title from the manifest")
	flags.String("version", "", "Override the API version from the manifest")
	flags.Bool("print", false, "Write the document to stdout instead of files")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output files")
	flags.Bool("strict", false, "Fail when documentation warnings are reported")
	flags.Bool("validate", false, "Validate the assembled document against OpenAPI 3.0 rules")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	path, err := configPath(cmd)
	if err != nil {
		return nil, err
	}
	if path != "" {
		cfg.ConfigPath = path
		if err := applyGenerateConfigFromFile(&cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":   &cfg.Input,
		"out":     &cfg.Out,
		"name":    &cfg.Name,
		"format":  &cfg.Format,
		"title":   &cfg.Title,
		"version": &cfg.Version,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}

	tags := map[string]*[]string{
		"include-tags": &cfg.IncludeTags,
		"exclude-tags": &cfg.ExcludeTags,
	}
	for name, dst := range tags {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeTags(value)
	}

	bools := map[string]*bool{
		"print":    &cfg.Print,
		"dry-run":  &cfg.DryRun,
		"force":    &cfg.Force,
		"strict":   &cfg.Strict,
		"validate": &cfg.Validate,
		"verbose":  &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = "."
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = emitter.DefaultName
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Title = strings.TrimSpace(c.Title)
	c.Version = strings.TrimSpace(c.Version)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}

	format, err := emitter.ParseFormat(c.Format)
	if err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}
	c.Format = string(format)

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}

	if c.Print && c.DryRun {
		return newUsageError("generate: --print and --dry-run cannot be combined")
	}

	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	stdout, stderr := cfg.stdout, cfg.stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	lg := diag.NewLogger(stderr, cfg.Verbose)

	// 1) Load, register and assemble
	doc, warnings, err := buildDocument(ctx, pipelineInput{
		Input:       cfg.Input,
		IncludeTags: cfg.IncludeTags,
		ExcludeTags: cfg.ExcludeTags,
		Title:       cfg.Title,
		Version:     cfg.Version,
	}, lg)
	if err != nil {
		return err
	}
	lg.Warn(warnings...)
	if cfg.Strict {
		if err := strictError(warnings); err != nil {
			return err
		}
	}

	// 2) Optional OpenAPI validation
	if cfg.Validate {
		if err := doc.Validate(ctx); err != nil {
			return err
		}
		lg.Infof("document is valid OpenAPI %s", doc.T.OpenAPI)
	}

	// 3) Print or emit
	if cfg.Print {
		var b []byte
		if emitter.Format(cfg.Format) == emitter.FormatYAML {
			b, err = doc.YAML()
		} else {
			b, err = doc.JSON()
		}
		if err != nil {
			return err
		}
		_, err = stdout.Write(b)
		return err
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	res, err := emitter.Emit(ctx, doc, emitter.Options{
		OutDir: cfg.Out,
		Name:   cfg.Name,
		Format: emitter.Format(cfg.Format),
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	paths := make([]string, 0, len(res.Planned))
	for _, p := range res.Planned {
		paths = append(paths, p.RelPath)
	}
	if cfg.DryRun {
		printPlan(stdout, absOut, paths)
		return nil
	}
	for _, p := range paths {
		lg.Infof("wrote %s", filepath.Join(absOut, p))
	}
	return nil
}

func printPlan(w io.Writer, outDir string, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(relPaths))
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "already exists") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	values, err := readConfigFile(path)
	if err != nil {
		return err
	}

	for normalized, v := range values {
		var err error
		switch normalized {
		case "input":
			cfg.Input, err = valueAsString(v.value)
		case "out":
			cfg.Out, err = valueAsString(v.value)
		case "name":
			cfg.Name, err = valueAsString(v.value)
		case "format":
			cfg.Format, err = valueAsString(v.value)
		case "title":
			cfg.Title, err = valueAsString(v.value)
		case "version":
			cfg.Version, err = valueAsString(v.value)
		case "includetags":
			cfg.IncludeTags, err = valueAsStringSlice(v.value)
		case "excludetags":
			cfg.ExcludeTags, err = valueAsStringSlice(v.value)
		case "print":
			cfg.Print, err = valueAsBool(v.value)
		case "dryrun":
			cfg.DryRun, err = valueAsBool(v.value)
		case "force":
			cfg.Force, err = valueAsBool(v.value)
		case "strict":
			cfg.Strict, err = valueAsBool(v.value)
		case "validate":
			cfg.Validate, err = valueAsBool(v.value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(v.value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, v.key))
		}
		if err != nil {
			return fieldError(v, err)
		}
	}

	return nil
}
