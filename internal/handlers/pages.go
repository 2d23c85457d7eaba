package handlers

import (
	"github.com/BBplayer2021/BioPlotLab/internal/nav"
)

// PageData is a generic view model for pages using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	HTMLLang  string
	SEO       SEOData
	Analytics Analytics

	Path        string
	HomePath    string
	Nav         []nav.RenderedItem
	Toggle      nav.Toggle
	Breadcrumbs []nav.Crumb
	LeadHref    string
	PrivacyHref string
	Copyright   string

	// CSRFToken is embedded into forms and htmx headers; empty in static exports.
	CSRFToken string
	// Static switches interactive pieces to their client-only variants.
	Static bool
	// FormEndpoint is where static pages post leads directly.
	FormEndpoint string

	// Optional per-page view model payloads
	Home    any
	Content any
	Error   any
}
