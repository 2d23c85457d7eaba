package nav

import "testing"

func TestBuildAnchors(t *testing.T) {
	items := []Item{{Anchor: "features", Label: "功能"}, {Anchor: "pricing", Label: "价格"}}

	home := Build(items, "/", "/")
	if home[0].Href != "#features" || home[1].Href != "#pricing" {
		t.Fatalf("unexpected home anchors %+v", home)
	}
	en := Build(items, "/en", "/en/")
	if en[0].Href != "#features" {
		t.Fatalf("expected bare fragment on /en, got %s", en[0].Href)
	}
	privacy := Build(items, "/privacy", "/en/")
	if privacy[0].Href != "/en/#features" {
		t.Fatalf("expected absolute anchor, got %s", privacy[0].Href)
	}
}

func TestHomePath(t *testing.T) {
	if got := HomePath("zh", "zh"); got != "/" {
		t.Fatalf("got %s", got)
	}
	if got := HomePath("en", "zh"); got != "/en/" {
		t.Fatalf("got %s", got)
	}
}

func TestServerToggle(t *testing.T) {
	tg := ServerToggle("EN", "en", "/privacy")
	if tg.Href != "/lang/toggle?next=%2Fprivacy" {
		t.Fatalf("unexpected href %s", tg.Href)
	}
	if tg := ServerToggle("EN", "en", "https://evil.example"); tg.Href != "/lang/toggle?next=%2F" {
		t.Fatalf("external next should be dropped, got %s", tg.Href)
	}
}

func TestIsLocalPath(t *testing.T) {
	cases := map[string]bool{
		"/":                  true,
		"/privacy?x=1":       true,
		"//evil.example":     false,
		"/\\evil.example":    false,
		"https://x.example/": false,
		"relative":           false,
		"":                   false,
	}
	for in, want := range cases {
		if got := IsLocalPath(in); got != want {
			t.Errorf("IsLocalPath(%q) = %v, want %v", in, got, want)
		}
	}
}
