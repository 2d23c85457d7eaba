package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url, inLanguage string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if inLanguage != "" {
		m["inLanguage"] = inLanguage
	}
	return m
}

// Offer is one priced plan.
type Offer struct {
	Name     string
	Price    float64
	Currency string
	URL      string
}

// SoftwareApplication describes the product with its pricing plans as offers.
func SoftwareApplication(name, description, url string, offers []Offer) map[string]any {
	m := map[string]any{
		"@context":            "https://schema.org",
		"@type":               "SoftwareApplication",
		"name":                name,
		"description":         description,
		"applicationCategory": "ScientificApplication",
		"operatingSystem":     "Web",
	}
	if url != "" {
		m["url"] = url
	}
	if len(offers) > 0 {
		el := make([]map[string]any, 0, len(offers))
		for _, o := range offers {
			offer := map[string]any{
				"@type":         "Offer",
				"name":          o.Name,
				"price":         o.Price,
				"priceCurrency": o.Currency,
			}
			if o.URL != "" {
				offer["url"] = o.URL
			}
			el = append(el, offer)
		}
		m["offers"] = el
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// WebPage returns a minimal WebPage schema payload for secondary pages.
func WebPage(name, url, inLanguage, dateModified string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebPage",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if inLanguage != "" {
		m["inLanguage"] = inLanguage
	}
	if dateModified != "" {
		m["dateModified"] = dateModified
	}
	return m
}
