package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/BBplayer2021/BioPlotLab/internal/analytics"
	"github.com/BBplayer2021/BioPlotLab/internal/config"
	"github.com/BBplayer2021/BioPlotLab/internal/leads"
	mw "github.com/BBplayer2021/BioPlotLab/internal/middleware"
	"github.com/BBplayer2021/BioPlotLab/internal/testutil"
)

type recordingForwarder struct {
	mu   sync.Mutex
	subs []leads.Submission
	err  error
}

func (f *recordingForwarder) Forward(_ context.Context, sub leads.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub)
	return f.err
}

func (f *recordingForwarder) all() []leads.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]leads.Submission(nil), f.subs...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (s *recordingSink) Send(_ context.Context, ev analytics.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Action)
	}
	return out
}

type testServer struct {
	app       *app
	handler   http.Handler
	forwarder *recordingForwarder
	sink      *recordingSink
}

func newTestServer(t *testing.T, env map[string]string) *testServer {
	t.Helper()
	values := map[string]string{
		"BIOPLOT_BASE_URL":            "https://bioplot.example",
		"BIOPLOT_SESSION_SIGNING_KEY": "test-signing-key",
		"BIOPLOT_LOG_LEVEL":           "error",
	}
	for k, v := range env {
		values[k] = v
	}
	cfg, err := config.Load(config.WithoutSystemEnv(), config.WithEnvFile(""), config.WithEnvMap(values))
	require.NoError(t, err)

	fwd := &recordingForwarder{}
	sink := &recordingSink{}
	a, err := newApp(cfg, appDeps{
		Forwarder: fwd,
		Sinks:     []analytics.Sink{sink},
		Public: fstest.MapFS{
			"images/volcano-nature.png": {Data: []byte("\x89PNG")},
		},
	})
	require.NoError(t, err)
	return &testServer{app: a, handler: newRouter(a), forwarder: fwd, sink: sink}
}

// drain waits for background analytics and lead forwarding.
func (s *testServer) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.app.Close(ctx))
}

// client replays cookies between requests like a browser would.
type client struct {
	t       *testing.T
	srv     *testServer
	cookies map[string]*http.Cookie
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, srv: s, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.srv.handler.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return c.do(req)
}

// post submits a form with the session's CSRF token. htmx adds the HX-Request header.
func (c *client) post(target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	c.t.Helper()
	if _, ok := c.cookies[mw.CSRFCookieName]; !ok {
		c.get("/")
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(mw.CSRFHeader, c.cookies[mw.CSRFCookieName].Value)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return c.do(req)
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	return testutil.ParseHTML(t, rec.Body.Bytes())
}

func TestHealthzOK(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.client(t).get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestHomeRendersSectionsInOrder(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.client(t).get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc := document(t, rec)
	lang, _ := doc.Find("html").Attr("lang")
	require.Equal(t, "zh-CN", lang)

	var ids []string
	doc.Find("main > section").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		ids = append(ids, id)
	})
	require.Equal(t, []string{"hero", "comparison", "workflow", "features", "pricing", "lead-capture"}, ids)

	require.Equal(t, 3, doc.Find("#pricing article.plan").Length())
	require.Equal(t, "免费版", strings.TrimSpace(doc.Find(`article[data-plan="free"] h3`).Text()))
	require.Equal(t, 1, doc.Find("#lead-form").Length())
	require.GreaterOrEqual(t, doc.Find(`script[type="application/ld+json"]`).Length(), 3)

	// the reproduced screenshot exists; the default one falls back to the mock chart
	after, _ := doc.Find(".slider-after img").Attr("src")
	require.Equal(t, "/images/volcano-nature.png", after)
	before, _ := doc.Find(".slider-before img").Attr("src")
	require.Equal(t, "/charts/volcano.svg", before)

	href, _ := doc.Find(".site-nav a").First().Attr("href")
	require.Equal(t, "#features", href)
	toggle, _ := doc.Find("[data-lang-toggle]").Attr("href")
	require.Equal(t, "/lang/toggle?next=%2F", toggle)
}

func TestHomeEnglishFromAcceptLanguage(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.client(t).get("/", "Accept-Language", "en-US,en;q=0.9")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))

	doc := document(t, rec)
	require.Equal(t, "Pro", strings.TrimSpace(doc.Find(`article[data-plan="professional"] h3`).Text()))
	require.Contains(t, doc.Find("#hero").Text(), "Replicate Top-tier Journal")
}

func TestLanguageToggleAlternatesAndPersists(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	require.Equal(t, "zh-CN", c.get("/").Header().Get("Content-Language"))

	rec := c.get("/lang/toggle?next=%2F")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Equal(t, "en", c.cookies[mw.LangCookieName].Value)
	require.Equal(t, "en", c.get("/").Header().Get("Content-Language"))

	c.get("/lang/toggle")
	require.Equal(t, "zh-CN", c.get("/").Header().Get("Content-Language"))
}

func TestLanguageToggleRejectsForeignRedirects(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)
	for _, next := range []string{"https://evil.example/", "//evil.example", "/en/"} {
		rec := c.get("/lang/toggle?next=" + url.QueryEscape(next))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"), next)
	}
	rec := c.get("/lang/toggle?next=%2Fprivacy")
	require.Equal(t, "/privacy", rec.Header().Get("Location"))
}

func TestPinnedLanguageHome(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)
	rec := c.get("/en/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))
	// the pinned choice sticks for later unprefixed visits
	require.Equal(t, "en", c.get("/").Header().Get("Content-Language"))
}

func TestLeadSubmitHTMX(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	rec := c.post("/leads", url.Values{"email": {"  Researcher@Lab.org "}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	form := doc.Find("form#lead-form")
	require.Equal(t, 1, form.Length())
	require.True(t, form.HasClass("is-submitted"))
	reset, _ := form.Attr("data-reset-after")
	require.Equal(t, "3000", reset)

	s.drain(t)
	subs := s.forwarder.all()
	require.Len(t, subs, 1)
	require.Equal(t, "Researcher@lab.org", subs[0].Email)
	require.Equal(t, leads.LeadSubject, subs[0].Subject)
	require.Equal(t, leads.SourceLeadCapture, subs[0].Source)
	require.Contains(t, s.sink.actions(), "lead_capture_submitted")
}

func TestLeadSubmitAcceptsBrowserValidEmails(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	for _, email := range []string{"a..b@lab.org", ".a@lab.org", "a.@lab.org"} {
		rec := c.post("/leads", url.Values{"email": {email}}, true)
		require.Equal(t, http.StatusOK, rec.Code, email)
		require.True(t, document(t, rec).Find("form#lead-form").HasClass("is-submitted"), email)
	}
	rec := c.post("/pricing/interest", url.Values{"plan": {"lab"}, "email": {"a..b@lab.org"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	s.drain(t)
	require.Len(t, s.forwarder.all(), 4)
}

func TestLeadSubmitInvalidEmail(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	rec := c.post("/leads", url.Values{"email": {"not-an-email"}}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	doc := document(t, rec)
	require.False(t, doc.Find("form#lead-form").HasClass("is-submitted"))
	require.Equal(t, 1, doc.Find(".form-error").Length())

	rec = c.post("/leads", url.Values{"email": {""}}, false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, 1, document(t, rec).Find("#lead-capture .form-error").Length())

	s.drain(t)
	require.Empty(t, s.forwarder.all())
	require.Empty(t, s.sink.actions())
}

func TestLeadSubmitSucceedsWhenForwardingFails(t *testing.T) {
	s := newTestServer(t, nil)
	s.forwarder.err = errors.New("upstream down")
	c := s.client(t)

	rec := c.post("/leads", url.Values{"email": {"a@b.co"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, document(t, rec).Find("form#lead-form").HasClass("is-submitted"))
	s.drain(t)
	require.Len(t, s.forwarder.all(), 1)
}

func TestLeadSubmitWithoutHTMXRedirects(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	rec := c.post("/leads", url.Values{"email": {"a@b.co"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/?lead=submitted#lead-capture", rec.Header().Get("Location"))

	rec = c.get("/?lead=submitted")
	require.True(t, document(t, rec).Find("form#lead-form").HasClass("is-submitted"))
}

func TestLeadSubmitRequiresCSRF(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader("email=a%40b.co"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPricingModalLabelsEveryPlan(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	for key, name := range map[string]string{"free": "免费版", "professional": "专业版", "lab": "实验室版"} {
		rec := c.get("/pricing/interest?plan="+key, "HX-Request", "true")
		require.Equal(t, http.StatusOK, rec.Code, key)
		doc := document(t, rec)
		require.Equal(t, name, doc.Find("[data-plan-name]").Text(), key)
		plan, _ := doc.Find(`input[name="plan"]`).Attr("value")
		require.Equal(t, key, plan)
	}

	rec := c.get("/pricing/interest?plan=enterprise", "HX-Request", "true")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = c.get("/pricing/interest", "HX-Request", "true")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, document(t, rec).Find("#pricing-modal").Nodes)
	rec = c.get("/pricing/interest?plan=")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPricingModalWithoutHTMXOpensOnHome(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.client(t).get("/pricing/interest?plan=lab")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	require.Equal(t, 1, doc.Find("#modal-root #pricing-modal").Length())
	_, hidden := doc.Find("#pricing-modal").Attr("hidden")
	require.False(t, hidden)
}

func TestPricingInterestSubmit(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	rec := c.post("/pricing/interest", url.Values{"plan": {"professional"}, "email": {"pi@lab.org"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	form := document(t, rec).Find("form#pricing-form")
	require.True(t, form.HasClass("is-submitted"))
	reset, _ := form.Attr("data-reset-after")
	require.Equal(t, "2000", reset)

	rec = c.post("/pricing/interest", url.Values{"plan": {"professional"}, "email": {"nope"}}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = c.post("/pricing/interest", url.Values{"plan": {"gold"}, "email": {"pi@lab.org"}}, true)
	require.Equal(t, http.StatusNotFound, rec.Code)

	s.drain(t)
	subs := s.forwarder.all()
	require.Len(t, subs, 1)
	require.Equal(t, leads.SourcePricingModal, subs[0].Source)
	require.Equal(t, "professional", subs[0].Plan)
	require.Equal(t, leads.PricingSubject("专业版"), subs[0].Subject)
	require.Equal(t, []string{"pricing_form_submitted"}, s.sink.actions())
}

func TestCodeModal(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	rec := c.get("/comparison/code", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	require.Contains(t, doc.Find("#code-sample").Text(), "ggplot")
	_, hidden := doc.Find("#code-modal").Attr("hidden")
	require.False(t, hidden)

	rec = c.get("/comparison/code")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, document(t, rec).Find("#modal-root #code-modal").Length())
}

func TestCollectEvent(t *testing.T) {
	s := newTestServer(t, nil)
	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, post(`{"category":"comparison","action":"slider_drag","position":42}`))
	require.Equal(t, http.StatusBadRequest, post(`{"category":"billing","action":"x"}`))
	require.Equal(t, http.StatusBadRequest, post(`{"category":"cta","action":"Bad Action"}`))
	require.Equal(t, http.StatusBadRequest, post(`not json`))

	s.drain(t)
	require.Equal(t, []string{"slider_drag"}, s.sink.actions())
}

func TestChart(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	rec := c.get("/charts/volcano.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "<svg")

	require.Equal(t, http.StatusBadRequest, c.get("/charts/volcano.svg?seed=abc").Code)
}

func TestImagesFromPublicDir(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)
	require.Equal(t, http.StatusOK, c.get("/images/volcano-nature.png").Code)
	require.Equal(t, http.StatusNotFound, c.get("/images/").Code)
}

func TestPrivacyPage(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.client(t).get("/privacy?hl=en")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	require.NotEmpty(t, strings.TrimSpace(doc.Find("h1").Text()))
	require.Equal(t, 2, doc.Find(".breadcrumbs li").Length())
	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	require.True(t, strings.HasPrefix(canonical, "https://bioplot.example/"), canonical)
}

func TestSitemapAndRobots(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	rec := c.get("/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "<urlset")
	require.Contains(t, body, "https://bioplot.example/")
	require.Contains(t, body, `hreflang="en"`)

	rec = c.get("/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Sitemap: https://bioplot.example/sitemap.xml")
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	rec := c.get("/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	robots, _ := document(t, rec).Find(`meta[name="robots"]`).Attr("content")
	require.Contains(t, robots, "noindex")

	rec = c.get("/nope", "HX-Request", "true")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotContains(t, rec.Body.String(), "<html")
}

func TestAssetsServed(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.client(t).get("/assets/js/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))
}
