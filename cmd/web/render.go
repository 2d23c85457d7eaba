package main

import (
	"net/http"

	"go.uber.org/zap"

	mw "github.com/BBplayer2021/BioPlotLab/internal/middleware"
	"github.com/BBplayer2021/BioPlotLab/internal/observability"
)

// renderPage executes a page through the base layout.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	body, err := a.renderer.Page(page, data)
	if err != nil {
		a.templateError(w, r, page, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// renderTemplate executes a single fragment, typically for htmx swaps.
func (a *app) renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := a.renderer.Fragment(name, data)
	if err != nil {
		a.templateError(w, r, name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (a *app) templateError(w http.ResponseWriter, r *http.Request, name string, err error) {
	observability.FromContext(r.Context()).Error("template render failed",
		zap.String("template", name),
		zap.Error(err),
	)
	http.Error(w, "template exec error", http.StatusInternalServerError)
}

func (a *app) notFound(w http.ResponseWriter, r *http.Request) {
	if mw.IsHTMX(r.Context()) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	a.renderPage(w, r, http.StatusNotFound, "error", a.builder.Error(mw.Lang(r), r.URL.Path, http.StatusNotFound))
}

func isHTMX(r *http.Request) bool { return mw.IsHTMX(r.Context()) }
