// Command sitegen renders the landing page to a static directory and dumps the
// mock chart data.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BBplayer2021/BioPlotLab/internal/cms"
	"github.com/BBplayer2021/BioPlotLab/internal/config"
	"github.com/BBplayer2021/BioPlotLab/internal/content"
	"github.com/BBplayer2021/BioPlotLab/internal/handlers"
	"github.com/BBplayer2021/BioPlotLab/internal/i18n"
	"github.com/BBplayer2021/BioPlotLab/internal/observability"
	"github.com/BBplayer2021/BioPlotLab/internal/site"
	"github.com/BBplayer2021/BioPlotLab/internal/volcano"
	"github.com/BBplayer2021/BioPlotLab/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand(func() (config.Config, error) { return config.Load() }).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type configLoader func() (config.Config, error)

func newRootCommand(load configLoader) *cobra.Command {
	root := &cobra.Command{
		Use:          "sitegen",
		Short:        "Build tooling for the BioPlot AI landing page",
		SilenceUsage: true,
	}
	root.AddCommand(newExportCommand(load), newVolcanoCommand())
	return root
}

type exportFlags struct {
	out       string
	keep      bool
	seed      int64
	baseURL   string
	publicDir string
}

func newExportCommand(load configLoader) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render every page in both languages into a static directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("base-url") {
				cfg.Site.BaseURL = f.baseURL
			}
			if cmd.Flags().Changed("public") {
				cfg.Site.PublicDir = f.publicDir
			}
			logger, err := observability.NewLogger(cfg.Log.Level, cfg.Site.Dev)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			return runExport(cmd.Context(), cfg, f, logger, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "dist", "output directory")
	cmd.Flags().BoolVar(&f.keep, "keep", false, "keep existing files in the output directory")
	cmd.Flags().Int64Var(&f.seed, "seed", volcano.DefaultSeed, "seed for the mock volcano chart")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "absolute site URL used for canonical links and the sitemap")
	cmd.Flags().StringVar(&f.publicDir, "public", "", "directory with optional screenshots copied to the output root")
	return cmd
}

func runExport(ctx context.Context, cfg config.Config, f exportFlags, logger *zap.Logger, out io.Writer) error {
	bundle, err := i18n.Load(web.LocaleFS(), cfg.Site.DefaultLang, content.Languages)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	dict, err := content.Load(web.ContentFS())
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	renderer, err := site.NewRenderer(web.TemplateFS(), bundle, false)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	publicFS := dirFS(cfg.Site.PublicDir)
	builder := site.NewBuilder(bundle, dict, cms.NewStore(web.PagesFS(), bundle.Supported()), publicFS, site.Options{
		BaseURL:      cfg.Site.BaseURL,
		DefaultLang:  cfg.Site.DefaultLang,
		Static:       true,
		FormEndpoint: cfg.Forms.ForwardEndpoint(),
		Analytics:    handlers.AnalyticsFromConfig(cfg.Analytics, true),
	})

	start := time.Now()
	res, err := site.Export(ctx, site.ExportOptions{
		OutDir:   f.out,
		Keep:     f.keep,
		Renderer: renderer,
		Builder:  builder,
		Assets:   web.StaticFS(),
		Public:   publicFS,
		Seed:     f.seed,
		Logger:   logger.Named("export"),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "wrote %d files to %s in %s\n", len(res.Files), f.out, time.Since(start).Round(time.Millisecond))
	return err
}

// dirFS returns dir as an fs.FS, or nil when it does not exist.
func dirFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	return os.DirFS(dir)
}

func newVolcanoCommand() *cobra.Command {
	var (
		seed   int64
		format string
	)
	cmd := &cobra.Command{
		Use:   "volcano",
		Short: "Print the seeded mock volcano plot data",
		Long: `Print the seeded mock volcano plot data as json, csv or svg on stdout.
Per-category counts go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			points := volcano.Generate(seed)
			if err := writePoints(cmd.OutOrStdout(), format, points); err != nil {
				return err
			}
			c := volcano.Summarize(points)
			_, err := fmt.Fprintf(cmd.ErrOrStderr(), "seed=%d points=%d up=%d down=%d ns=%d\n",
				seed, len(points), c.Up, c.Down, c.NotSignificant)
			return err
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", volcano.DefaultSeed, "generator seed")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, csv or svg")
	return cmd
}

func writePoints(w io.Writer, format string, points []volcano.Point) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"x", "y", "type"}); err != nil {
			return err
		}
		for _, p := range points {
			row := []string{
				strconv.FormatFloat(p.X, 'f', 4, 64),
				strconv.FormatFloat(p.Y, 'f', 4, 64),
				string(p.Category),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case "svg":
		body, err := volcano.SVG(points)
		if err != nil {
			return err
		}
		_, err = w.Write(body)
		return err
	default:
		return fmt.Errorf("unknown format %q (want json, csv or svg)", format)
	}
}
