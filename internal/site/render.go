package site

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BBplayer2021/BioPlotLab/internal/format"
	"github.com/BBplayer2021/BioPlotLab/internal/i18n"
)

// ErrUnknownTemplate is returned for a page or fragment name that was not parsed.
var ErrUnknownTemplate = errors.New("site: unknown template")

// Renderer executes the layout, partial and page templates found in an fs.FS
// laid out as layouts/*.tmpl, partials/*.tmpl and pages/*.tmpl. Every page is
// parsed into its own clone of the shared set so each may define "content".
type Renderer struct {
	fsys   fs.FS
	bundle *i18n.Bundle
	dev    bool

	mu  sync.RWMutex
	set *templateSet
}

type templateSet struct {
	root  *template.Template
	pages map[string]*template.Template
}

// NewRenderer parses the templates once. In dev mode they are reparsed on every call.
func NewRenderer(fsys fs.FS, bundle *i18n.Bundle, dev bool) (*Renderer, error) {
	r := &Renderer{fsys: fsys, bundle: bundle, dev: dev}
	set, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.set = set
	return r, nil
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"t": func(lang, key string) string {
			if r.bundle == nil {
				return key
			}
			return r.bundle.T(lang, key)
		},
		"icon": iconHTML,
		"pct": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		"inc":     func(i int) int { return i + 1 },
		"fmtDate": format.FmtDate,
		"year":    func() int { return time.Now().Year() },
		"join":    strings.Join,
		"dict":    dict,
	}
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

func (r *Renderer) parse() (*templateSet, error) {
	root := template.New("_root").Funcs(r.funcs())
	var shared, pages []string
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return nil
		}
		if strings.HasPrefix(p, "pages/") {
			pages = append(pages, p)
		} else {
			shared = append(shared, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("site: walk templates: %w", err)
	}
	if len(pages) == 0 {
		return nil, errors.New("site: no page templates found")
	}
	if len(shared) > 0 {
		if root, err = root.ParseFS(r.fsys, shared...); err != nil {
			return nil, fmt.Errorf("site: parse shared templates: %w", err)
		}
	}
	set := &templateSet{root: root, pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		clone, err := root.Clone()
		if err != nil {
			return nil, fmt.Errorf("site: clone for %s: %w", p, err)
		}
		if clone, err = clone.ParseFS(r.fsys, p); err != nil {
			return nil, fmt.Errorf("site: parse %s: %w", p, err)
		}
		set.pages[strings.TrimSuffix(path.Base(p), ".tmpl")] = clone
	}
	return set, nil
}

func (r *Renderer) current() (*templateSet, error) {
	if r.dev {
		set, err := r.parse()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.set = set
		r.mu.Unlock()
		return set, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set, nil
}

// Page renders the named page through the base layout.
func (r *Renderer) Page(name string, data any) ([]byte, error) {
	set, err := r.current()
	if err != nil {
		return nil, err
	}
	t, ok := set.pages[name]
	if !ok {
		return nil, fmt.Errorf("%w: page %q", ErrUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("site: execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Fragment renders a single named template, typically an htmx partial.
func (r *Renderer) Fragment(name string, data any) ([]byte, error) {
	set, err := r.current()
	if err != nil {
		return nil, err
	}
	if set.root.Lookup(name) == nil {
		return nil, fmt.Errorf("%w: fragment %q", ErrUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err := set.root.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("site: execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
