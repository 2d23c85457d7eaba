package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Bundle holds flat UI strings for each supported language.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
}

// Load reads `<lang>.json` for every supported language from fsys. The fallback
// language must be present; other languages may be missing and then resolve
// through the fallback.
func Load(fsys fs.FS, fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = []string{"zh", "en"}
	}
	b := &Bundle{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}
	// fallback first so the matcher defaults to it
	ordered := []string{fallback}
	for _, l := range supported {
		if l != fallback {
			ordered = append(ordered, l)
		}
	}
	tags := make([]language.Tag, 0, len(ordered))
	for _, l := range ordered {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", l, err)
		}
		tags = append(tags, tag)

		raw, err := fs.ReadFile(fsys, l+".json")
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
	}
	b.supported = ordered
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Supported returns the supported languages, fallback first.
func (b *Bundle) Supported() []string {
	out := make([]string, len(b.supported))
	copy(out, b.supported)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if m, ok := b.dict[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Normalize maps loosely formatted codes such as "zh-CN" or "EN_us" onto a
// supported language.
func (b *Bundle) Normalize(raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "_", "-")))
	if raw == "" {
		return "", false
	}
	for _, l := range b.supported {
		if l == raw {
			return l, true
		}
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	for _, l := range b.supported {
		if l == base.String() {
			return l, true
		}
	}
	return "", false
}

// Resolve chooses the best language from an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf != language.No && idx >= 0 && idx < len(b.supported) {
		return b.supported[idx]
	}
	// script mismatches (zh-TW vs zh) still share a base language
	for _, t := range tags {
		base, _ := t.Base()
		if l, ok := b.Normalize(base.String()); ok {
			return l
		}
	}
	return b.fallback
}

// Toggle returns the language after lang in the supported order. With two
// languages this alternates strictly between them.
func (b *Bundle) Toggle(lang string) string {
	if len(b.supported) == 0 {
		return lang
	}
	idx := 0
	for i, l := range b.supported {
		if l == lang {
			idx = i
			break
		}
	}
	return b.supported[(idx+1)%len(b.supported)]
}

// Missing lists keys present in the fallback dictionary but absent for lang.
func (b *Bundle) Missing(lang string) []string {
	base := b.dict[b.fallback]
	target := b.dict[lang]
	var out []string
	for k := range base {
		if _, ok := target[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// HTMLLang returns the value used for the document's lang attribute.
func HTMLLang(lang string) string {
	if lang == "zh" {
		return "zh-CN"
	}
	return lang
}
