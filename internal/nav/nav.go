package nav

import (
	"net/url"
	"strings"
)

// Item is an in-page navigation anchor on the landing page.
type Item struct {
	Anchor string // e.g. "features"
	Label  string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href   string
	Label  string
	Anchor string
}

// Toggle is the header language switch.
type Toggle struct {
	Href   string
	Label  string
	Target string // language the link switches to
}

// Crumb represents a breadcrumb entry.
type Crumb struct {
	Href   string
	Label  string
	Active bool
}

// Sections lists the anchors each landing section is mounted under, in page order.
var Sections = []string{"hero", "comparison", "workflow", "features", "pricing", "lead-capture"}

// Build renders anchors. On the home page the links are bare fragments so the
// browser scrolls without a reload; elsewhere they point back to homePath.
func Build(items []Item, currentPath, homePath string) []RenderedItem {
	onHome := samePath(currentPath, homePath)
	out := make([]RenderedItem, 0, len(items))
	for _, it := range items {
		href := "#" + it.Anchor
		if !onHome {
			href = homePath + href
		}
		out = append(out, RenderedItem{Href: href, Label: it.Label, Anchor: it.Anchor})
	}
	return out
}

// HomePath returns the landing page path for lang. The default language lives at "/".
func HomePath(lang, defaultLang string) string {
	if lang == "" || lang == defaultLang {
		return "/"
	}
	return "/" + lang + "/"
}

// ServerToggle links to the toggle endpoint, returning to next afterwards.
func ServerToggle(label, target, next string) Toggle {
	if next == "" || !IsLocalPath(next) {
		next = "/"
	}
	return Toggle{
		Href:   "/lang/toggle?next=" + url.QueryEscape(next),
		Label:  label,
		Target: target,
	}
}

// StaticToggle links straight to the other language's exported page.
func StaticToggle(label, target, targetPath string) Toggle {
	return Toggle{Href: targetPath, Label: label, Target: target}
}

// IsLocalPath reports whether p is a same-origin absolute path, guarding redirects.
func IsLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// Breadcrumbs builds Home > label for a secondary page.
func Breadcrumbs(homePath, homeLabel, currentPath, label string) []Crumb {
	return []Crumb{
		{Href: homePath, Label: homeLabel},
		{Href: currentPath, Label: label, Active: true},
	}
}

func samePath(a, b string) bool {
	trim := func(s string) string {
		s = strings.TrimSuffix(s, "/")
		if s == "" {
			return "/"
		}
		return s
	}
	return trim(a) == trim(b)
}
