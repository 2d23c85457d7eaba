package seo

import "strings"

// Alternate is an hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

// LangPath pairs a language with its page path.
type LangPath struct {
	Lang string
	Path string
}

// Alternates builds hreflang links for every language plus x-default.
// A relative baseURL yields root-relative hrefs.
func Alternates(baseURL string, pages []LangPath, xDefault string) []Alternate {
	base := strings.TrimRight(baseURL, "/")
	out := make([]Alternate, 0, len(pages)+1)
	for _, p := range pages {
		out = append(out, Alternate{Href: base + p.Path, Hreflang: hreflang(p.Lang)})
	}
	if xDefault != "" {
		out = append(out, Alternate{Href: base + xDefault, Hreflang: "x-default"})
	}
	return out
}

// OGLocale maps a site language to an Open Graph locale.
func OGLocale(lang string) string {
	switch lang {
	case "zh":
		return "zh_CN"
	case "en":
		return "en_US"
	default:
		return lang
	}
}

func hreflang(lang string) string {
	if lang == "zh" {
		return "zh-CN"
	}
	return lang
}
