package site

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	XHTML   string       `xml:"xmlns:xhtml,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string        `xml:"loc"`
	Alternates []sitemapLink `xml:"xhtml:link"`
}

type sitemapLink struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// Sitemap lists every page in every language with hreflang alternates.
func (b *Builder) Sitemap() ([]byte, error) {
	set := urlSet{
		NS:    "http://www.sitemaps.org/schemas/sitemap/0.9",
		XHTML: "http://www.w3.org/1999/xhtml",
	}
	for _, kind := range []pageKind{pageHome, pagePrivacy} {
		alts := b.alternates(kind)
		links := make([]sitemapLink, 0, len(alts))
		for _, a := range alts {
			links = append(links, sitemapLink{Rel: "alternate", Hreflang: a.Hreflang, Href: a.Href})
		}
		for _, lang := range b.bundle.Supported() {
			set.URLs = append(set.URLs, sitemapURL{Loc: b.canonical(kind, lang), Alternates: links})
		}
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("site: encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots returns robots.txt pointing at the sitemap.
func (b *Builder) Robots() []byte {
	return []byte("User-agent: *\nAllow: /\n\nSitemap: " + b.AbsoluteURL("/sitemap.xml") + "\n")
}
