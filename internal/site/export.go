package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/BBplayer2021/BioPlotLab/internal/volcano"
)

// ExportOptions configure a static export.
type ExportOptions struct {
	OutDir string
	// Keep leaves existing files in OutDir instead of cleaning it first.
	Keep     bool
	Renderer *Renderer
	// Builder must be constructed with Options.Static set.
	Builder *Builder
	// Assets are copied under assets/.
	Assets fs.FS
	// Public is copied to the output root as is. May be nil.
	Public fs.FS
	Seed   int64
	Logger *zap.Logger
}

// ExportResult lists the files written, relative to OutDir.
type ExportResult struct {
	Files []string
}

// Export renders every page in every language plus the assets a static host needs.
func Export(ctx context.Context, opts ExportOptions) (ExportResult, error) {
	if opts.OutDir == "" {
		return ExportResult{}, errors.New("site: export directory is required")
	}
	if opts.Renderer == nil || opts.Builder == nil {
		return ExportResult{}, errors.New("site: renderer and builder are required")
	}
	if !opts.Builder.Static() {
		return ExportResult{}, errors.New("site: export needs a static builder")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.Keep {
		if err := os.RemoveAll(opts.OutDir); err != nil {
			return ExportResult{}, fmt.Errorf("site: clean %s: %w", opts.OutDir, err)
		}
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("site: create %s: %w", opts.OutDir, err)
	}

	w := &exportWriter{root: opts.OutDir}
	b := opts.Builder

	written := map[string]bool{}
	page := func(urlPath, name string, data any) error {
		if written[urlPath] {
			return nil
		}
		written[urlPath] = true
		html, err := opts.Renderer.Page(name, data)
		if err != nil {
			return err
		}
		return w.write(fileFor(urlPath), html)
	}

	for _, lang := range b.Languages() {
		if err := ctx.Err(); err != nil {
			return ExportResult{}, err
		}
		for _, p := range []string{b.HomePath(lang), b.PinnedHomePath(lang)} {
			if err := page(p, "home", b.Home(lang, HomeState{Path: p})); err != nil {
				return ExportResult{}, err
			}
		}
		for _, p := range []string{b.PrivacyPath(lang), b.PinnedPrivacyPath(lang)} {
			data, err := b.Privacy(lang, p, "")
			if err != nil {
				return ExportResult{}, err
			}
			if err := page(p, "privacy", data); err != nil {
				return ExportResult{}, err
			}
		}
	}
	notFound, err := opts.Renderer.Page("error", b.Error(b.DefaultLang(), "/404.html", http.StatusNotFound))
	if err != nil {
		return ExportResult{}, err
	}
	if err := w.write("404.html", notFound); err != nil {
		return ExportResult{}, err
	}

	chart, err := volcano.SVG(volcano.Generate(opts.Seed))
	if err != nil {
		return ExportResult{}, fmt.Errorf("site: render chart: %w", err)
	}
	if err := w.write(strings.TrimPrefix(ChartPath, "/"), chart); err != nil {
		return ExportResult{}, err
	}
	sitemap, err := b.Sitemap()
	if err != nil {
		return ExportResult{}, err
	}
	if err := w.write("sitemap.xml", sitemap); err != nil {
		return ExportResult{}, err
	}
	if err := w.write("robots.txt", b.Robots()); err != nil {
		return ExportResult{}, err
	}
	if err := w.write(".nojekyll", nil); err != nil {
		return ExportResult{}, err
	}

	if opts.Assets != nil {
		if err := w.copyTree(opts.Assets, "assets"); err != nil {
			return ExportResult{}, err
		}
	}
	if opts.Public != nil {
		if err := w.copyTree(opts.Public, "."); err != nil {
			return ExportResult{}, err
		}
	}

	logger.Info("static export complete",
		zap.String("dir", opts.OutDir),
		zap.Int("files", len(w.files)),
	)
	return ExportResult{Files: w.files}, nil
}

func fileFor(urlPath string) string {
	p := strings.TrimPrefix(urlPath, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	return p
}

type exportWriter struct {
	root  string
	files []string
}

func (w *exportWriter) write(rel string, data []byte) error {
	dst := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("site: mkdir for %s: %w", rel, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("site: write %s: %w", rel, err)
	}
	w.files = append(w.files, filepath.ToSlash(rel))
	return nil
}

func (w *exportWriter) copyTree(src fs.FS, prefix string) error {
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := src.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return fmt.Errorf("site: read %s: %w", p, err)
		}
		return w.write(path.Join(prefix, p), data)
	})
}
