package content

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/BBplayer2021/BioPlotLab/web"
)

func loadEmbedded(t *testing.T) *Dictionary {
	t.Helper()
	d, err := Load(web.ContentFS())
	require.NoError(t, err)
	return d
}

func TestEmbeddedDictionaryParity(t *testing.T) {
	d := loadEmbedded(t)
	require.Equal(t, []string{"free", "professional", "lab"}, d.PlanKeys())

	zh := d.For("zh")
	en := d.For("en")
	require.Equal(t, "EN", zh.Nav.Language)
	require.Equal(t, "中文", en.Nav.Language)
	require.Equal(t, "一键复现顶刊级生信图表样式", zh.Hero.Title())
	require.Len(t, zh.Workflow.Steps, 3)
	require.Len(t, en.Features.Items, 4)

	for i, p := range zh.Pricing.Plans {
		require.Len(t, p.Features, len(en.Pricing.Plans[i].Features), "plan %s", p.Key)
	}
	require.Len(t, zh.Pricing.Plans[0].Features, 9)
	require.Len(t, zh.Pricing.Plans[1].Features, 8)
	require.Len(t, zh.Pricing.Plans[2].Features, 7)
}

func TestEmbeddedPricing(t *testing.T) {
	d := loadEmbedded(t)

	pro, err := d.Plan("zh", "professional")
	require.NoError(t, err)
	require.Equal(t, "专业版", pro.Name)
	require.Equal(t, float64(49), pro.Price)
	require.Equal(t, "¥49 / 月", pro.PriceDisplay)
	require.True(t, pro.Popular)
	require.Equal(t, "professional (专业版)", pro.Label())

	lab, err := d.Plan("en", "lab")
	require.NoError(t, err)
	require.Equal(t, "$199 / yr", lab.PriceDisplay)
	require.Equal(t, "USD", lab.Currency)

	require.Equal(t, "您选择的方案：", d.For("zh").Pricing.Modal.SelectedPlan)
	require.Equal(t, "Selected plan:", d.For("en").Pricing.Modal.SelectedPlan)

	_, err = d.Plan("en", "enterprise")
	require.True(t, errors.Is(err, ErrUnknownPlan))
}

func TestHeroDescriptionRendered(t *testing.T) {
	d := loadEmbedded(t)
	html := string(d.For("zh").Hero.DescriptionHTML)
	require.Contains(t, html, "<strong>R (ggplot2)</strong>")
	require.Contains(t, html, "<strong>Python</strong>")
}

func TestUnknownLanguageFallsBackToDefault(t *testing.T) {
	d := loadEmbedded(t)
	require.Equal(t, d.For("zh").Hero.CTA, d.For("ja").Hero.CTA)
	require.Equal(t, "zh", Normalize(""))
	require.Equal(t, "en", Normalize("en"))
}

func TestForReturnsIndependentCopies(t *testing.T) {
	d := loadEmbedded(t)
	c := d.For("en")
	c.Pricing.Plans[0].Name = "mutated"
	c.Pricing.Plans[0].Features[0].Text = "mutated"
	c.Workflow.Steps[0].Title = "mutated"

	again := d.For("en")
	require.Equal(t, "Free", again.Pricing.Plans[0].Name)
	require.NotEqual(t, "mutated", again.Pricing.Plans[0].Features[0].Text)
	require.NotEqual(t, "mutated", again.Workflow.Steps[0].Title)
}

func TestSampleCode(t *testing.T) {
	d := loadEmbedded(t)
	code := d.SampleCode()
	require.True(t, strings.HasPrefix(code, "library(ggplot2)"))
	require.Contains(t, code, `"Significantly Up-Regulated" = "#E64B35"`)
}

func TestMissingImageText(t *testing.T) {
	d := loadEmbedded(t)
	require.Equal(t, "请将 volcano-default.png 放置在 /public/images/ 目录", d.For("zh").Comparison.MissingImageText("volcano-default.png"))
}

func TestLoadRejectsMismatchedPlans(t *testing.T) {
	minimal := func(keys ...string) string {
		var b strings.Builder
		b.WriteString("pricing:\n  plans:\n")
		for _, k := range keys {
			b.WriteString("    - key: " + k + "\n      name: " + k + "\n      price: 1\n      currency: USD\n      period: mo\n")
		}
		return b.String()
	}
	fsys := fstest.MapFS{
		"zh.yaml":      {Data: []byte(minimal("free", "pro"))},
		"en.yaml":      {Data: []byte(minimal("pro", "free"))},
		SampleCodeFile: {Data: []byte("x")},
	}
	_, err := Load(fsys)
	require.Error(t, err)

	fsys["en.yaml"] = &fstest.MapFile{Data: []byte(minimal("free", "pro"))}
	d, err := Load(fsys)
	require.NoError(t, err)
	p, err := d.Plan("en", "pro")
	require.NoError(t, err)
	require.Equal(t, "$1 / mo", p.PriceDisplay)
}

func TestLoadRejectsNamelessPlan(t *testing.T) {
	fsys := fstest.MapFS{
		"zh.yaml":      {Data: []byte("pricing:\n  plans:\n    - key: free\n")},
		"en.yaml":      {Data: []byte("pricing:\n  plans:\n    - key: free\n")},
		SampleCodeFile: {Data: []byte("x")},
	}
	_, err := Load(fsys)
	require.Error(t, err)
}
