package site

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/BBplayer2021/BioPlotLab/internal/cms"
	"github.com/BBplayer2021/BioPlotLab/internal/comparison"
	"github.com/BBplayer2021/BioPlotLab/internal/content"
	"github.com/BBplayer2021/BioPlotLab/internal/handlers"
	"github.com/BBplayer2021/BioPlotLab/internal/i18n"
	"github.com/BBplayer2021/BioPlotLab/internal/leads"
	"github.com/BBplayer2021/BioPlotLab/internal/nav"
	"github.com/BBplayer2021/BioPlotLab/internal/seo"
)

// Image files looked up in the public directory.
const (
	ImageDefault = "images/volcano-default.png"
	ImageNature  = "images/volcano-nature.png"
	ImageQRCode  = "images/wechat-qr.png"
)

// ChartPath serves the seeded mock volcano plot.
const ChartPath = "/charts/volcano.svg"

// Form reset windows in milliseconds.
const (
	LeadResetAfter    = 3000
	PricingResetAfter = 2000
)

// Sections that carry a top-level anchor in the header navigation.
const (
	AnchorFeatures = "features"
	AnchorPricing  = "pricing"
	AnchorLead     = "lead-capture"
)

// Options describe how pages are assembled.
type Options struct {
	BaseURL     string
	DefaultLang string
	// Static renders the client-only variants used by the static export.
	Static       bool
	FormEndpoint string
	Analytics    handlers.Analytics
}

// Builder assembles view models from the content dictionary, the UI bundle and
// the markdown pages.
type Builder struct {
	bundle *i18n.Bundle
	dict   *content.Dictionary
	pages  *cms.Store
	public fs.FS
	opts   Options
}

// NewBuilder wires the view model sources. public may be nil when no image
// directory exists; every image then renders as a placeholder.
func NewBuilder(bundle *i18n.Bundle, dict *content.Dictionary, pages *cms.Store, public fs.FS, opts Options) *Builder {
	if opts.DefaultLang == "" {
		opts.DefaultLang = bundle.Fallback()
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Builder{bundle: bundle, dict: dict, pages: pages, public: public, opts: opts}
}

// Static reports whether the builder renders the static export variant.
func (b *Builder) Static() bool { return b.opts.Static }

// Languages returns the supported languages, default first.
func (b *Builder) Languages() []string { return b.bundle.Supported() }

// DefaultLang returns the language served at the site root.
func (b *Builder) DefaultLang() string { return b.opts.DefaultLang }

// Dictionary exposes the content dictionary for handlers that look up plans.
func (b *Builder) Dictionary() *content.Dictionary { return b.dict }

// ImageView describes an optional static image and its placeholder text.
type ImageView struct {
	Src     string
	Alt     string
	File    string
	Exists  bool
	Missing string
}

// SliderView is the server-rendered comparison state.
type SliderView struct {
	Position float64
	// Style clips the reproduced layer; HandleStyle places the handle.
	Style       template.CSS
	HandleStyle template.CSS
	Before      ImageView
	After       ImageView
	ChartSrc    string
	AriaLabel   string
}

// FormView is the state of an email form, both the lead section and the pricing modal.
type FormView struct {
	ID             string
	Lang           string
	Action         string
	Email          string
	Error          string
	Submitted      bool
	ResetAfter     int
	CloseAfter     bool
	Plan           string
	Placeholder    string
	SubmitLabel    string
	SubmittedLabel string
	ThankYou       string
	CSRFToken      string
	Static         bool
	FormEndpoint   string
	Subject        string
	Source         string
}

// PricingModalView is the pricing interest dialog for one plan.
type PricingModalView struct {
	Lang      string
	Modal     content.Modal
	Plan      content.Plan
	QR        ImageView
	Form      FormView
	Static    bool
	CloseAria string
}

// CodeModalView is the generated-code dialog.
type CodeModalView struct {
	Lang string
	// Hidden renders the dialog closed so the script can open it.
	Hidden      bool
	Title       string
	Code        string
	CopyLabel   string
	CopiedLabel string
	CloseAria   string
}

// HomeView is the landing page payload.
type HomeView struct {
	Content     content.Content
	Slider      SliderView
	Lead        FormView
	Modal       *PricingModalView
	CodeModal   *CodeModalView
	CodeModalID string
}

// HomeState carries the per-request parts of the landing page.
type HomeState struct {
	Path      string
	CSRFToken string
	// Compare is the raw ?compare= value for the initial slider position.
	Compare string
	Lead    *FormView
	Modal   *PricingModalView
	Code    bool
}

type pageKind int

const (
	pageHome pageKind = iota
	pagePrivacy
)

// path returns the URL path of kind in lang. Pinned paths carry the language
// explicitly; unpinned paths resolve the visitor's preference on the server and
// the default language in the static export.
func (b *Builder) path(kind pageKind, lang string, pinned bool) string {
	if b.opts.Static {
		prefix := "/"
		if pinned || lang != b.opts.DefaultLang {
			prefix = "/" + lang + "/"
		}
		if kind == pagePrivacy {
			return prefix + "privacy/"
		}
		return prefix
	}
	switch kind {
	case pagePrivacy:
		if pinned {
			return "/privacy?hl=" + lang
		}
		return "/privacy"
	default:
		if pinned {
			return "/" + lang + "/"
		}
		return "/"
	}
}

// HomePath returns the landing page path for lang.
func (b *Builder) HomePath(lang string) string {
	return b.path(pageHome, lang, b.opts.Static && lang != b.opts.DefaultLang)
}

// PinnedHomePath returns the landing page path that always serves lang.
func (b *Builder) PinnedHomePath(lang string) string { return b.path(pageHome, lang, true) }

// PrivacyPath returns the privacy page path for lang.
func (b *Builder) PrivacyPath(lang string) string {
	return b.path(pagePrivacy, lang, b.opts.Static && lang != b.opts.DefaultLang)
}

// PinnedPrivacyPath returns the privacy page path that always serves lang.
func (b *Builder) PinnedPrivacyPath(lang string) string { return b.path(pagePrivacy, lang, true) }

// AbsoluteURL prefixes p with the configured base URL.
func (b *Builder) AbsoluteURL(p string) string {
	if b.opts.BaseURL == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return b.opts.BaseURL + p
}

func (b *Builder) canonical(kind pageKind, lang string) string {
	return b.AbsoluteURL(b.path(kind, lang, lang != b.opts.DefaultLang))
}

func (b *Builder) alternates(kind pageKind) []seo.Alternate {
	pages := make([]seo.LangPath, 0, len(b.bundle.Supported()))
	for _, l := range b.bundle.Supported() {
		pages = append(pages, seo.LangPath{Lang: l, Path: b.path(kind, l, l != b.opts.DefaultLang)})
	}
	return seo.Alternates(b.opts.BaseURL, pages, b.path(kind, b.opts.DefaultLang, false))
}

func (b *Builder) base(kind pageKind, lang, currentPath, csrf string) handlers.PageData {
	lang = content.Normalize(lang)
	c := b.dict.For(lang)
	homePath := b.HomePath(lang)
	leadHref := homePath + "#" + AnchorLead
	if kind == pageHome {
		homePath = currentPath
		leadHref = "#" + AnchorLead
	}

	target := b.bundle.Toggle(lang)
	var toggle nav.Toggle
	if b.opts.Static {
		toggle = nav.StaticToggle(c.Nav.Language, target, b.path(kind, target, true))
	} else {
		toggle = nav.ServerToggle(c.Nav.Language, target, b.path(kind, target, false))
	}

	data := handlers.PageData{
		Lang:     lang,
		HTMLLang: i18n.HTMLLang(lang),
		Path:     currentPath,
		HomePath: homePath,
		Nav: nav.Build([]nav.Item{
			{Anchor: AnchorFeatures, Label: c.Nav.Features},
			{Anchor: AnchorPricing, Label: c.Nav.Pricing},
		}, currentPath, homePath),
		Toggle:       toggle,
		LeadHref:     leadHref,
		PrivacyHref:  b.PrivacyPath(lang),
		Copyright:    c.Footer.Copyright,
		Analytics:    b.opts.Analytics,
		Static:       b.opts.Static,
		FormEndpoint: b.opts.FormEndpoint,
	}
	if !b.opts.Static {
		data.CSRFToken = csrf
	}
	data.SEO.Alternates = b.alternates(kind)
	return data
}

// Home builds the landing page.
func (b *Builder) Home(lang string, st HomeState) handlers.PageData {
	lang = content.Normalize(lang)
	if st.Path == "" {
		st.Path = b.HomePath(lang)
	}
	data := b.base(pageHome, lang, st.Path, st.CSRFToken)
	c := b.dict.For(lang)

	siteName := b.bundle.T(lang, "site.name")
	data.Title = b.bundle.T(lang, "site.title")
	canonical := b.canonical(pageHome, lang)
	data.SEO.Fill(data.Title, b.bundle.T(lang, "site.description"), canonical, siteName, seo.OGLocale(lang))
	if img := b.image(lang, ImageNature, "comparison.alt.reproduced", c.Comparison); img.Exists {
		data.SEO.OG.Image = b.AbsoluteURL(img.Src)
		data.SEO.Twitter.Image = data.SEO.OG.Image
	}
	data.SEO.AddJSONLD(seo.Organization(siteName, b.AbsoluteURL("/"), ""))
	data.SEO.AddJSONLD(seo.WebSite(siteName, canonical, data.HTMLLang))
	offers := make([]seo.Offer, 0, len(c.Pricing.Plans))
	for _, p := range c.Pricing.Plans {
		offers = append(offers, seo.Offer{Name: p.Name, Price: p.Price, Currency: p.Currency, URL: canonical + "#" + AnchorPricing})
	}
	data.SEO.AddJSONLD(seo.SoftwareApplication(siteName, data.SEO.Description, canonical, offers))

	slider := comparison.NewSlider()
	slider.Position = comparison.ParsePosition(st.Compare)
	view := HomeView{
		Content: c,
		Slider: SliderView{
			Position:    slider.Position,
			Style:       template.CSS("clip-path: " + slider.ClipPath()),
			HandleStyle: template.CSS("left: " + slider.HandleLeft()),
			Before:      b.image(lang, ImageDefault, "comparison.alt.default", c.Comparison),
			After:       b.image(lang, ImageNature, "comparison.alt.reproduced", c.Comparison),
			ChartSrc:    ChartPath,
			AriaLabel:   b.bundle.T(lang, "comparison.slider.aria"),
		},
		Lead:        b.LeadForm(lang, st.CSRFToken),
		Modal:       st.Modal,
		CodeModalID: "code-modal",
	}
	if st.Lead != nil {
		view.Lead = *st.Lead
	}
	if st.Code || b.opts.Static {
		cm := b.CodeModal(lang)
		cm.Hidden = !st.Code
		view.CodeModal = &cm
	}
	if view.Modal == nil && b.opts.Static {
		// one dialog reused by every plan; the script fills in the plan
		m := b.pricingModal(lang, content.Plan{}, "")
		view.Modal = &m
	}
	data.Home = view
	return data
}

func (b *Builder) image(lang, file, altKey string, c content.Comparison) ImageView {
	name := strings.TrimPrefix(file, "images/")
	v := ImageView{
		Src:     "/" + file,
		Alt:     b.bundle.T(lang, altKey),
		File:    name,
		Missing: c.MissingImageText(name),
	}
	if b.public != nil {
		if info, err := fs.Stat(b.public, file); err == nil && !info.IsDir() {
			v.Exists = true
		}
	}
	return v
}

// LeadForm returns the empty lead-capture form.
func (b *Builder) LeadForm(lang, csrf string) FormView {
	lang = content.Normalize(lang)
	lc := b.dict.For(lang).LeadCapture
	f := FormView{
		ID:             "lead-form",
		Lang:           lang,
		Action:         "/leads",
		Placeholder:    lc.EmailPlaceholder,
		SubmitLabel:    lc.Submit,
		SubmittedLabel: lc.Submitted,
		ThankYou:       lc.ThankYou,
		ResetAfter:     LeadResetAfter,
		Static:         b.opts.Static,
		FormEndpoint:   b.opts.FormEndpoint,
		Subject:        leads.LeadSubject,
		Source:         leads.SourceLeadCapture,
	}
	if !b.opts.Static {
		f.CSRFToken = csrf
	}
	return f
}

// LeadResult returns the lead form after a submission attempt. A nil err means
// the submitted state; ErrInvalidEmail keeps the entered value with a message.
func (b *Builder) LeadResult(lang, csrf, email string, err error) FormView {
	f := b.LeadForm(lang, csrf)
	b.applyResult(&f, email, err)
	return f
}

func (b *Builder) applyResult(f *FormView, email string, err error) {
	switch {
	case err == nil:
		f.Submitted = true
	case errors.Is(err, leads.ErrInvalidEmail):
		f.Email = email
		f.Error = b.bundle.T(f.Lang, "form.error.email")
	default:
		f.Email = email
		f.Error = b.bundle.T(f.Lang, "form.error.generic")
	}
}

// PricingModal returns the interest dialog for planKey. Unknown keys yield content.ErrUnknownPlan.
func (b *Builder) PricingModal(lang, planKey, csrf string) (PricingModalView, error) {
	lang = content.Normalize(lang)
	plan, err := b.dict.Plan(lang, planKey)
	if err != nil {
		return PricingModalView{}, err
	}
	return b.pricingModal(lang, plan, csrf), nil
}

// PricingResult returns the dialog after a submission attempt.
func (b *Builder) PricingResult(lang, planKey, csrf, email string, submitErr error) (PricingModalView, error) {
	m, err := b.PricingModal(lang, planKey, csrf)
	if err != nil {
		return PricingModalView{}, err
	}
	b.applyResult(&m.Form, email, submitErr)
	return m, nil
}

func (b *Builder) pricingModal(lang string, plan content.Plan, csrf string) PricingModalView {
	c := b.dict.For(lang)
	modal := c.Pricing.Modal
	f := FormView{
		ID:             "pricing-form",
		Lang:           lang,
		Action:         "/pricing/interest",
		Plan:           plan.Key,
		Placeholder:    modal.EmailPlaceholder,
		SubmitLabel:    modal.Submit,
		SubmittedLabel: modal.Submitted,
		ResetAfter:     PricingResetAfter,
		CloseAfter:     true,
		Static:         b.opts.Static,
		FormEndpoint:   b.opts.FormEndpoint,
		Source:         leads.SourcePricingModal,
	}
	if plan.Name != "" {
		f.Subject = leads.PricingSubject(plan.Name)
	}
	if !b.opts.Static {
		f.CSRFToken = csrf
	}
	qr := b.image(lang, ImageQRCode, "", c.Comparison)
	qr.Alt = modal.QRCodePlaceholder
	return PricingModalView{
		Lang:      lang,
		Modal:     modal,
		Plan:      plan,
		QR:        qr,
		Form:      f,
		Static:    b.opts.Static,
		CloseAria: b.bundle.T(lang, "modal.close.aria"),
	}
}

// CodeModal returns the generated-code dialog.
func (b *Builder) CodeModal(lang string) CodeModalView {
	lang = content.Normalize(lang)
	c := b.dict.For(lang).Comparison
	return CodeModalView{
		Lang:        lang,
		Title:       c.CodeModalTitle,
		Code:        b.dict.SampleCode(),
		CopyLabel:   c.CopyCode,
		CopiedLabel: c.Copied,
		CloseAria:   b.bundle.T(lang, "modal.close.aria"),
	}
}

// PrivacyView is the payload of the markdown privacy page.
type PrivacyView struct {
	Page     cms.ContentPage
	Updated  string
	BackHref string
	BackText string
}

// Privacy builds the privacy page. Missing pages yield cms.ErrNotFound.
func (b *Builder) Privacy(lang, currentPath, csrf string) (handlers.PageData, error) {
	lang = content.Normalize(lang)
	page, err := b.pages.Page("legal", "privacy", lang)
	if err != nil {
		return handlers.PageData{}, fmt.Errorf("site: privacy page: %w", err)
	}
	if currentPath == "" {
		currentPath = b.PrivacyPath(lang)
	}
	data := b.base(pagePrivacy, lang, currentPath, csrf)
	siteName := b.bundle.T(lang, "site.name")
	title := page.Title
	if page.SEO.Title != "" {
		title = page.SEO.Title
	}
	desc := page.SEO.Description
	if desc == "" {
		desc = page.Summary
	}
	data.Title = title + " | " + siteName
	canonical := b.canonical(pagePrivacy, lang)
	data.SEO.Fill(data.Title, desc, canonical, siteName, seo.OGLocale(lang))
	data.SEO.OG.Type = "article"

	homeLabel := b.bundle.T(lang, "nav.home")
	data.Breadcrumbs = nav.Breadcrumbs(data.HomePath, homeLabel, currentPath, page.Title)
	data.SEO.AddJSONLD(seo.WebPage(page.Title, canonical, data.HTMLLang, dateModified(page)))
	data.SEO.AddJSONLD(seo.BreadcrumbList([]seo.BreadcrumbItem{
		{Name: homeLabel, Item: b.canonical(pageHome, lang)},
		{Name: page.Title, Item: canonical},
	}))

	view := PrivacyView{
		Page:     page,
		BackHref: data.HomePath,
		BackText: b.bundle.T(lang, "privacy.back"),
	}
	if !page.UpdatedAt.IsZero() {
		view.Updated = b.bundle.T(lang, "privacy.updated")
	}
	data.Content = view
	return data, nil
}

func dateModified(p cms.ContentPage) string {
	if p.UpdatedAt.IsZero() {
		return ""
	}
	return p.UpdatedAt.Format("2006-01-02")
}

// ErrorView is the payload of the error page.
type ErrorView struct {
	Status   int
	Message  string
	BackHref string
	BackText string
}

// Error builds an error page for status.
func (b *Builder) Error(lang, currentPath string, status int) handlers.PageData {
	lang = content.Normalize(lang)
	data := b.base(pagePrivacy, lang, currentPath, "")
	data.HomePath = b.HomePath(lang)
	data.Nav = nav.Build([]nav.Item{
		{Anchor: AnchorFeatures, Label: b.dict.For(lang).Nav.Features},
		{Anchor: AnchorPricing, Label: b.dict.For(lang).Nav.Pricing},
	}, currentPath, data.HomePath)
	target := b.bundle.Toggle(lang)
	if b.opts.Static {
		data.Toggle = nav.StaticToggle(b.dict.For(lang).Nav.Language, target, b.PinnedHomePath(target))
	} else {
		data.Toggle = nav.ServerToggle(b.dict.For(lang).Nav.Language, target, "/")
	}
	data.SEO.Alternates = nil

	key := "error.internal"
	if status == http.StatusNotFound {
		key = "error.notfound"
	}
	msg := b.bundle.T(lang, key)
	data.Title = msg + " | " + b.bundle.T(lang, "site.name")
	data.SEO.Title = data.Title
	data.SEO.Robots = "noindex"
	data.Error = ErrorView{
		Status:   status,
		Message:  msg,
		BackHref: data.HomePath,
		BackText: b.bundle.T(lang, "privacy.back"),
	}
	return data
}
