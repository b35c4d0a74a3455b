package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/doc2openapi/internal/diag"
	"github.com/mark3labs/doc2openapi/internal/publish"
)

// ServeConfig captures the inputs of the serve command.
type ServeConfig struct {
	Input       string
	Addr        string
	Prefix      string
	IncludeTags []string
	ExcludeTags []string
	ConfigPath  string
	Verbose     bool

	stderr io.Writer
	// ready, when set, receives the bound listener address once serving.
	ready func(addr string)
}

func defaultServeConfig() ServeConfig {
	return ServeConfig{Addr: ":8080", Prefix: publish.DefaultPrefix}
}

var serveRunner = runServe

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated OpenAPI document over HTTP",
		Long: "Assemble the document from a route manifest once and serve it as " +
			"<prefix>.json and <prefix>.yaml until interrupted.",
		Example: strings.TrimSpace(`  doc2openapi serve --input api.yaml
  doc2openapi serve --input api.yaml --addr 127.0.0.1:9000 --prefix /docs/openapi`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveServeConfig(cmd)
			if err != nil {
				return err
			}
			cfg.stderr = cmd.ErrOrStderr()
			return serveRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the route manifest (YAML or JSON)")
	flags.String("addr", "", "Listen address; defaults to :8080")
	flags.String("prefix", "", "URL prefix of the served files; defaults to /openapi")
	flags.StringSlice("include-tags", nil, "Only include routes with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude routes with these tags")

	return cmd
}

func resolveServeConfig(cmd *cobra.Command) (*ServeConfig, error) {
	cfg := defaultServeConfig()

	path, err := configPath(cmd)
	if err != nil {
		return nil, err
	}
	if path != "" {
		cfg.ConfigPath = path
		if err := applyServeConfigFromFile(&cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyServeFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.Input = strings.TrimSpace(cfg.Input)
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	cfg.Prefix = publish.NormalizePrefix(cfg.Prefix)
	cfg.IncludeTags = sanitizeTags(cfg.IncludeTags)
	cfg.ExcludeTags = sanitizeTags(cfg.ExcludeTags)

	if cfg.Input == "" {
		return nil, newUsageError("serve: --input is required (set via flag or config file)")
	}
	if overlap := intersect(cfg.IncludeTags, cfg.ExcludeTags); len(overlap) > 0 {
		return nil, newUsageError(fmt.Sprintf("serve: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}
	return &cfg, nil
}

func applyServeFlagOverrides(flags *pflag.FlagSet, cfg *ServeConfig) error {
	for name, dst := range map[string]*string{"input": &cfg.Input, "addr": &cfg.Addr, "prefix": &cfg.Prefix} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}
	for name, dst := range map[string]*[]string{"include-tags": &cfg.IncludeTags, "exclude-tags": &cfg.ExcludeTags} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeTags(value)
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}
	return nil
}

func applyServeConfigFromFile(cfg *ServeConfig, path string) error {
	values, err := readConfigFile(path)
	if err != nil {
		return err
	}
	for normalized, v := range values {
		var err error
		switch normalized {
		case "input":
			cfg.Input, err = valueAsString(v.value)
		case "addr":
			cfg.Addr, err = valueAsString(v.value)
		case "prefix":
			cfg.Prefix, err = valueAsString(v.value)
		case "includetags":
			cfg.IncludeTags, err = valueAsStringSlice(v.value)
		case "excludetags":
			cfg.ExcludeTags, err = valueAsStringSlice(v.value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(v.value)
		// generate-only keys may share the file; serve ignores them
		case "out", "name", "format", "title", "version", "print", "dryrun", "force", "strict", "validate":
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, v.key))
		}
		if err != nil {
			return fieldError(v, err)
		}
	}
	return nil
}

func runServe(ctx context.Context, cfg *ServeConfig) error {
	stderr := cfg.stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	lg := diag.NewLogger(stderr, cfg.Verbose)

	doc, warnings, err := buildDocument(ctx, pipelineInput{
		Input:       cfg.Input,
		IncludeTags: cfg.IncludeTags,
		ExcludeTags: cfg.ExcludeTags,
	}, lg)
	if err != nil {
		return err
	}
	lg.Warn(warnings...)

	handler, err := publish.Handler(cfg.Prefix, doc)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return newUsageError(fmt.Sprintf("serve: listen on %s: %v", cfg.Addr, err))
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	lg.Infof("serving %s.json and %s.yaml on %s", cfg.Prefix, cfg.Prefix, ln.Addr())
	if cfg.ready != nil {
		cfg.ready(ln.Addr().String())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	return nil
}
