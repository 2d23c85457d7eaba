package main

import (
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/BBplayer2021/BioPlotLab/internal/cms"
	mw "github.com/BBplayer2021/BioPlotLab/internal/middleware"
	"github.com/BBplayer2021/BioPlotLab/internal/nav"
	"github.com/BBplayer2021/BioPlotLab/internal/observability"
	"github.com/BBplayer2021/BioPlotLab/internal/site"
	"github.com/BBplayer2021/BioPlotLab/internal/volcano"
)

// home renders the landing page in the visitor's language.
func (a *app) home(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	csrf := mw.CSRFToken(r)
	st := site.HomeState{
		Path:      r.URL.Path,
		CSRFToken: csrf,
		Compare:   r.URL.Query().Get("compare"),
	}
	if r.URL.Query().Get("lead") == "submitted" {
		f := a.builder.LeadResult(lang, csrf, "", nil)
		st.Lead = &f
	}
	a.renderPage(w, r, http.StatusOK, "home", a.builder.Home(lang, st))
}

// homeIn pins the language and renders the landing page.
func (a *app) homeIn(lang string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mw.SetLang(w, r, lang)
		a.home(w, r)
	}
}

// toggleLang flips zh <-> en and returns to a local path.
func (a *app) toggleLang(w http.ResponseWriter, r *http.Request) {
	target := a.bundle.Toggle(mw.Lang(r))
	mw.SetLang(w, r, target)

	next := r.URL.Query().Get("next")
	if !nav.IsLocalPath(next) || a.isPinnedHome(next) {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// isPinnedHome reports whether p is /<lang> or /<lang>/, which would undo the toggle.
func (a *app) isPinnedHome(p string) bool {
	p = strings.Trim(path.Clean(p), "/")
	for _, l := range a.bundle.Supported() {
		if p == l {
			return true
		}
	}
	return false
}

func (a *app) privacy(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	data, err := a.builder.Privacy(lang, r.URL.Path, mw.CSRFToken(r))
	if errors.Is(err, cms.ErrNotFound) {
		a.notFound(w, r)
		return
	}
	if err != nil {
		observability.FromContext(r.Context()).Error("privacy page", zap.Error(err))
		a.renderPage(w, r, http.StatusInternalServerError, "error", a.builder.Error(lang, r.URL.Path, http.StatusInternalServerError))
		return
	}
	a.renderPage(w, r, http.StatusOK, "privacy", data)
}

func (a *app) robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(a.builder.Robots())
}

func (a *app) sitemap(w http.ResponseWriter, r *http.Request) {
	body, err := a.builder.Sitemap()
	if err != nil {
		observability.FromContext(r.Context()).Error("sitemap", zap.Error(err))
		http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

// chart serves the seeded mock volcano plot used when the screenshots are missing.
func (a *app) chart(w http.ResponseWriter, r *http.Request) {
	seed := volcano.DefaultSeed
	if raw := strings.TrimSpace(r.URL.Query().Get("seed")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid seed", http.StatusBadRequest)
			return
		}
		seed = v
	}
	body, err := volcano.SVG(volcano.Generate(seed))
	if err != nil {
		observability.FromContext(r.Context()).Error("render chart", zap.Int64("seed", seed), zap.Error(err))
		http.Error(w, "chart unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(body)
}

// images serves optional screenshots from the public directory.
func (a *app) images(w http.ResponseWriter, r *http.Request) {
	if a.public == nil || strings.HasSuffix(r.URL.Path, "/") {
		a.notFound(w, r)
		return
	}
	http.FileServer(http.FS(a.public)).ServeHTTP(w, r)
}
