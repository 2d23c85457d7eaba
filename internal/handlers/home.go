package handlers

import (
	"html/template"

	"github.com/BBplayer2021/BioPlotLab/internal/seo"
)

// SEOData is a lightweight copy to avoid importing the seo package in templates.
type SEOData struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          struct {
		Title       string
		Description string
		Image       string
		Type        string
		URL         string
		SiteName    string
		Locale      string
	}
	Twitter struct {
		Card  string
		Site  string
		Image string
	}
	Alternates []seo.Alternate
	JSONLD     []template.JS
}

// Fill sets the shared title/description/canonical fields and mirrors them into OG and Twitter.
func (s *SEOData) Fill(title, description, canonical, siteName, ogLocale string) {
	s.Title = title
	s.Description = description
	s.Canonical = canonical
	s.OG.Title = title
	s.OG.Description = description
	s.OG.URL = canonical
	s.OG.SiteName = siteName
	s.OG.Type = "website"
	s.OG.Locale = ogLocale
	s.Twitter.Card = "summary_large_image"
}

// AddJSONLD appends a structured-data payload. Empty payloads are skipped.
func (s *SEOData) AddJSONLD(v any) {
	if js := seo.JSON(v); js != "" {
		s.JSONLD = append(s.JSONLD, template.JS(js))
	}
}
