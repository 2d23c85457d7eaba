// Package content holds the bilingual page copy. The dictionary is parsed once
// from YAML and handed out as copies so callers can never mutate shared state.
package content

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BBplayer2021/BioPlotLab/internal/format"
	"github.com/BBplayer2021/BioPlotLab/internal/markup"
)

// ErrUnknownPlan is returned when a plan key is not present in the dictionary.
var ErrUnknownPlan = errors.New("content: unknown plan")

// Languages lists the supported languages, default first.
var Languages = []string{"zh", "en"}

// DefaultLanguage is used for unknown or empty language codes.
const DefaultLanguage = "zh"

// SampleCodeFile is the ggplot2 example shown in the code modal.
const SampleCodeFile = "volcano_plot.R"

type Content struct {
	Nav         Nav         `yaml:"nav"`
	Hero        Hero        `yaml:"hero"`
	Comparison  Comparison  `yaml:"comparison"`
	Workflow    Workflow    `yaml:"workflow"`
	Features    Features    `yaml:"features"`
	Pricing     Pricing     `yaml:"pricing"`
	LeadCapture LeadCapture `yaml:"lead_capture"`
	Footer      Footer      `yaml:"footer"`
}

type Nav struct {
	Features string `yaml:"features"`
	Pricing  string `yaml:"pricing"`
	Language string `yaml:"language"`
}

type Hero struct {
	TitleLead      string `yaml:"title_lead"`
	TitleHighlight string `yaml:"title_highlight"`
	Description    string `yaml:"description"`
	CTA            string `yaml:"cta"`

	// DescriptionHTML is Description rendered from markdown at load time.
	DescriptionHTML template.HTML `yaml:"-"`
}

// Title joins both halves of the headline.
func (h Hero) Title() string {
	sep := " "
	if !strings.ContainsAny(h.TitleLead+h.TitleHighlight, " ") {
		sep = ""
	}
	return strings.TrimSpace(h.TitleLead + sep + h.TitleHighlight)
}

type Comparison struct {
	Title             string `yaml:"title"`
	Subtitle          string `yaml:"subtitle"`
	PrecisionTagline  string `yaml:"precision_tagline"`
	BeforeLabel       string `yaml:"before_label"`
	AfterLabel        string `yaml:"after_label"`
	BeforeTitle       string `yaml:"before_title"`
	BeforeDescription string `yaml:"before_description"`
	AfterTitle        string `yaml:"after_title"`
	AfterDescription  string `yaml:"after_description"`
	PrecisionTitle    string `yaml:"precision_title"`
	PrecisionMetrics  string `yaml:"precision_metrics"`
	ViewCode          string `yaml:"view_code"`
	CodeModalTitle    string `yaml:"code_modal_title"`
	Analyzing         string `yaml:"analyzing"`
	CopyCode          string `yaml:"copy_code"`
	Copied            string `yaml:"copied"`
	MissingImage      string `yaml:"missing_image"`
}

// MissingImageText returns the placeholder shown when an image file is absent.
func (c Comparison) MissingImageText(file string) string {
	if strings.Contains(c.MissingImage, "%s") {
		return fmt.Sprintf(c.MissingImage, file)
	}
	return c.MissingImage
}

type Step struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

type Workflow struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Steps       []Step `yaml:"steps"`
	CodeComment string `yaml:"code_comment"`
	CodeExtract string `yaml:"code_extract"`
}

type Feature struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

type Features struct {
	Title    string    `yaml:"title"`
	Subtitle string    `yaml:"subtitle"`
	Items    []Feature `yaml:"items"`
}

type PlanFeature struct {
	Text     string `yaml:"text"`
	Included bool   `yaml:"included"`
}

type Plan struct {
	Key          string        `yaml:"key"`
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	Price        float64       `yaml:"price"`
	Currency     string        `yaml:"currency"`
	PriceDisplay string        `yaml:"price_display"`
	Period       string        `yaml:"period"`
	Features     []PlanFeature `yaml:"features"`
	CTA          string        `yaml:"cta"`
	Popular      bool          `yaml:"popular"`
	PopularLabel string        `yaml:"popular_label"`
}

// Label is the analytics label for the plan, e.g. "professional (专业版)".
func (p Plan) Label() string {
	return fmt.Sprintf("%s (%s)", p.Key, p.Name)
}

type Modal struct {
	Title             string `yaml:"title"`
	Message           string `yaml:"message"`
	Discount          string `yaml:"discount"`
	MessageEnd        string `yaml:"message_end"`
	SelectedPlan      string `yaml:"selected_plan"`
	QRCodePlaceholder string `yaml:"qr_code_placeholder"`
	EmailPlaceholder  string `yaml:"email_placeholder"`
	Submit            string `yaml:"submit"`
	Submitted         string `yaml:"submitted"`
	Close             string `yaml:"close"`
}

type Pricing struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	InvoiceNote string `yaml:"invoice_note"`
	Plans       []Plan `yaml:"plans"`
	Modal       Modal  `yaml:"modal"`
}

type LeadCapture struct {
	Title            string `yaml:"title"`
	Subtitle         string `yaml:"subtitle"`
	EmailPlaceholder string `yaml:"email_placeholder"`
	Submit           string `yaml:"submit"`
	Submitted        string `yaml:"submitted"`
	ThankYou         string `yaml:"thank_you"`
	Privacy          string `yaml:"privacy"`
	PrivacyLink      string `yaml:"privacy_link"`
}

type Footer struct {
	Copyright string `yaml:"copyright"`
}

// Dictionary maps a language code to its page copy.
type Dictionary struct {
	byLang     map[string]Content
	sampleCode string
}

// Load parses `<lang>.yaml` for every supported language plus the sample code file.
func Load(fsys fs.FS) (*Dictionary, error) {
	d := &Dictionary{byLang: make(map[string]Content, len(Languages))}
	for _, lang := range Languages {
		raw, err := fs.ReadFile(fsys, lang+".yaml")
		if err != nil {
			return nil, fmt.Errorf("content: read %s: %w", lang, err)
		}
		var c Content
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("content: parse %s: %w", lang, err)
		}
		if err := prepare(&c); err != nil {
			return nil, fmt.Errorf("content: %s: %w", lang, err)
		}
		d.byLang[lang] = c
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	code, err := fs.ReadFile(fsys, SampleCodeFile)
	if err != nil {
		return nil, fmt.Errorf("content: read sample code: %w", err)
	}
	d.sampleCode = string(code)
	return d, nil
}

func prepare(c *Content) error {
	html, err := markup.Render(c.Hero.Description)
	if err != nil {
		return fmt.Errorf("hero description: %w", err)
	}
	c.Hero.DescriptionHTML = html
	for i := range c.Pricing.Plans {
		p := &c.Pricing.Plans[i]
		if strings.TrimSpace(p.Key) == "" || strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("plan %d: key and name are required", i)
		}
		if p.PriceDisplay == "" {
			p.PriceDisplay = format.PriceDisplay(p.Price, p.Currency, p.Period)
		}
	}
	return nil
}

func (d *Dictionary) validate() error {
	base := d.byLang[DefaultLanguage]
	for _, lang := range Languages {
		c := d.byLang[lang]
		if len(c.Pricing.Plans) != len(base.Pricing.Plans) {
			return fmt.Errorf("content: %s has %d plans, %s has %d", lang, len(c.Pricing.Plans), DefaultLanguage, len(base.Pricing.Plans))
		}
		for i, p := range c.Pricing.Plans {
			if p.Key != base.Pricing.Plans[i].Key {
				return fmt.Errorf("content: %s plan %d is %q, expected %q", lang, i, p.Key, base.Pricing.Plans[i].Key)
			}
		}
		if len(c.Workflow.Steps) != len(base.Workflow.Steps) || len(c.Features.Items) != len(base.Features.Items) {
			return fmt.Errorf("content: %s section lengths differ from %s", lang, DefaultLanguage)
		}
	}
	return nil
}

// Normalize returns lang when supported, otherwise the default language.
func Normalize(lang string) string {
	for _, l := range Languages {
		if l == lang {
			return l
		}
	}
	return DefaultLanguage
}

// For returns a deep copy of the copy for lang.
func (d *Dictionary) For(lang string) Content {
	return clone(d.byLang[Normalize(lang)])
}

// Plan looks up a plan by key in lang.
func (d *Dictionary) Plan(lang, key string) (Plan, error) {
	for _, p := range d.byLang[Normalize(lang)].Pricing.Plans {
		if p.Key == key {
			return clonePlan(p), nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, key)
}

// PlanKeys returns plan keys in display order.
func (d *Dictionary) PlanKeys() []string {
	plans := d.byLang[DefaultLanguage].Pricing.Plans
	out := make([]string, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.Key)
	}
	return out
}

// SampleCode returns the generated-code example.
func (d *Dictionary) SampleCode() string { return d.sampleCode }

func clone(c Content) Content {
	out := c
	out.Workflow.Steps = append([]Step(nil), c.Workflow.Steps...)
	out.Features.Items = append([]Feature(nil), c.Features.Items...)
	out.Pricing.Plans = make([]Plan, len(c.Pricing.Plans))
	for i, p := range c.Pricing.Plans {
		out.Pricing.Plans[i] = clonePlan(p)
	}
	return out
}

func clonePlan(p Plan) Plan {
	out := p
	out.Features = append([]PlanFeature(nil), p.Features...)
	return out
}
