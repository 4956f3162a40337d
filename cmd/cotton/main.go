package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v4"

	"github.com/neurodesk/cotton/pkg/config"
	"github.com/neurodesk/cotton/pkg/cotton"
	"github.com/neurodesk/cotton/pkg/jinja2"
	"github.com/neurodesk/cotton/pkg/netcache"
	"github.com/neurodesk/cotton/pkg/starlark"
)

type options struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "cotton",
		Short:         "Render templates built from reusable components",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to cotton configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(newRenderCmd(opts), newPathCmd(opts), newCompileCmd())
	return root
}

func newRenderCmd(opts *options) *cobra.Command {
	var dataPath string
	var watch bool
	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render a template from the configured template directories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			data, err := loadData(dataPath)
			if err != nil {
				return err
			}
			engine, sources, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			render := func() error {
				out, err := engine.Render(args[0], data)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			if err := render(); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watchDirs(ctx, cfg.TemplateDirs, func() {
				sources.Flush()
				if err := render(); err != nil {
					slog.Error("render failed", "template", args[0], "error", err)
				}
			})
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "YAML file with the template context")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-render whenever a template changes")
	return cmd
}

func newPathCmd(opts *options) *cobra.Command {
	var is string
	cmd := &cobra.Command{
		Use:   "path [component]",
		Short: "Print the template path a component name resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			p, err := cotton.NewPathResolver(cfg).Resolve(args[0], is)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().StringVar(&is, "is", "", "Target of a dynamic component")
	return cmd
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile [file]",
		Short: "Print a template with component markup rewritten to tags",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cotton.Compile(string(src)))
			return nil
		},
	}
}

// buildEngine wires the template sources described by cfg into an engine.
// The returned cache holds template sources and is flushed on changes.
func buildEngine(cfg config.Config) (*cotton.Engine, *jinja2.CachedLoader, error) {
	var chain jinja2.ChainLoader
	for _, dir := range cfg.TemplateDirs {
		chain = append(chain, jinja2.FSLoader{FS: os.DirFS(dir)})
	}
	if cfg.RemoteBaseURL != "" {
		chain = append(chain, jinja2.HTTPLoader{
			BaseURL: cfg.RemoteBaseURL,
			Cache:   netcache.New(cfg.CacheDir),
		})
	}
	sources := jinja2.NewCachedLoader(chain, cfg.SourceCacheTTL)

	opts := []cotton.Option{cotton.WithLogger(slog.Default())}
	if cfg.Resolver == config.ResolverStarlark {
		opts = append(opts, cotton.WithResolver(starlark.NewResolver()))
	}
	engine, err := cotton.New(cfg, sources, opts...)
	if err != nil {
		return nil, nil, err
	}
	return engine, sources, nil
}

func loadData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}
	data := map[string]any{}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decoding data %s: %w", path, err)
	}
	return data, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
