package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/BBplayer2021/BioPlotLab/web"
)

func loadBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := Load(web.LocaleFS(), "zh", []string{"zh", "en"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return b
}

func TestResolveHonorsQValues(t *testing.T) {
	b := loadBundle(t)
	cases := map[string]string{
		"zh;q=0.8, en;q=0.9":  "en",
		"en-US,en;q=0.9":      "en",
		"zh-CN,zh;q=0.9":      "zh",
		"zh-TW":               "zh",
		"fr-FR":               "zh",
		"":                    "zh",
		"garbage;;q=nonsense": "zh",
	}
	for header, want := range cases {
		if got := b.Resolve(header); got != want {
			t.Errorf("Resolve(%q) = %s, want %s", header, got, want)
		}
	}
}

func TestToggleAlternates(t *testing.T) {
	b := loadBundle(t)
	lang := "zh"
	for i := 0; i < 6; i++ {
		next := b.Toggle(lang)
		if next == lang {
			t.Fatalf("toggle did not change %s", lang)
		}
		lang = next
	}
	if lang != "zh" {
		t.Fatalf("expected zh after even toggles, got %s", lang)
	}
	if got := b.Toggle("ja"); got != "en" {
		t.Fatalf("unknown language should toggle away from fallback, got %s", got)
	}
}

func TestNormalize(t *testing.T) {
	b := loadBundle(t)
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"zh", "zh", true},
		{"ZH-cn", "zh", true},
		{"en_US", "en", true},
		{" en ", "en", true},
		{"ja", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := b.Normalize(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Normalize(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	b := loadBundle(t)
	if missing := b.Missing("en"); len(missing) > 0 {
		t.Fatalf("en is missing keys: %v", missing)
	}
	if got := b.T("en", "site.name"); got != "BioPlot AI" {
		t.Fatalf("unexpected site name %q", got)
	}
	if got := b.T("zh", "no.such.key"); got != "no.such.key" {
		t.Fatalf("expected key echo, got %q", got)
	}
}

func TestTFallsBackToDefault(t *testing.T) {
	fsys := fstest.MapFS{
		"zh.json": {Data: []byte(`{"greeting":"你好","only.zh":"仅中文"}`)},
		"en.json": {Data: []byte(`{"greeting":"Hello"}`)},
	}
	b, err := Load(fsys, "zh", []string{"zh", "en"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.T("en", "greeting"); got != "Hello" {
		t.Fatalf("got %q", got)
	}
	if got := b.T("en", "only.zh"); got != "仅中文" {
		t.Fatalf("got %q", got)
	}
	if _, err := Load(fstest.MapFS{}, "zh", nil); err == nil {
		t.Fatal("expected error when fallback locale is missing")
	}
	if got := HTMLLang("zh"); got != "zh-CN" {
		t.Fatalf("got %q", got)
	}
}
