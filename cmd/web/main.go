package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/BBplayer2021/BioPlotLab/internal/analytics"
	"github.com/BBplayer2021/BioPlotLab/internal/cms"
	"github.com/BBplayer2021/BioPlotLab/internal/config"
	"github.com/BBplayer2021/BioPlotLab/internal/content"
	handlersPkg "github.com/BBplayer2021/BioPlotLab/internal/handlers"
	"github.com/BBplayer2021/BioPlotLab/internal/i18n"
	"github.com/BBplayer2021/BioPlotLab/internal/leads"
	mw "github.com/BBplayer2021/BioPlotLab/internal/middleware"
	"github.com/BBplayer2021/BioPlotLab/internal/observability"
	"github.com/BBplayer2021/BioPlotLab/internal/site"
	"github.com/BBplayer2021/BioPlotLab/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Site.Dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, appDeps{Logger: logger})
	if err != nil {
		logger.Fatal("init app", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           newRouter(a),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Site.Environment),
			zap.Bool("devMode", cfg.Site.Dev),
			zap.String("formEndpoint", cfg.Forms.ForwardEndpoint()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("listen", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("drain background work", zap.Error(err))
	}
}

// appDeps lets tests swap the outbound pieces.
type appDeps struct {
	Logger    *zap.Logger
	Forwarder leads.Forwarder
	Meter     metric.Meter
	Sinks     []analytics.Sink
	Templates fs.FS
	Public    fs.FS
}

// app holds everything the handlers share. It is immutable after newApp apart
// from the background work group.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	bundle   *i18n.Bundle
	builder  *site.Builder
	renderer *site.Renderer
	leads    *leads.Service
	tracker  *analytics.Dispatcher
	public   fs.FS

	bg sync.WaitGroup
}

func newApp(cfg config.Config, deps appDeps) (*app, error) {
	logger := observability.OrNop(deps.Logger)

	bundle, err := i18n.Load(web.LocaleFS(), cfg.Site.DefaultLang, content.Languages)
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}
	dict, err := content.Load(web.ContentFS())
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	cacheTTL := 5 * time.Minute
	if cfg.Site.Dev {
		cacheTTL = 0
	}
	pages := cms.NewStore(web.PagesFS(), bundle.Supported(), cms.WithCacheTTL(cacheTTL))

	templates := deps.Templates
	if templates == nil {
		templates = web.TemplateFS()
		if cfg.Site.TemplatesDir != "" {
			templates = os.DirFS(cfg.Site.TemplatesDir)
		}
	}
	renderer, err := site.NewRenderer(templates, bundle, cfg.Site.Dev)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	public := deps.Public
	if public == nil {
		public = publicFS(cfg.Site.PublicDir)
	}
	builder := site.NewBuilder(bundle, dict, pages, public, site.Options{
		BaseURL:     cfg.Site.BaseURL,
		DefaultLang: cfg.Site.DefaultLang,
		Analytics:   handlersPkg.AnalyticsFromConfig(cfg.Analytics, false),
	})

	forwarder := deps.Forwarder
	if forwarder == nil {
		forwarder = leads.NewFormClient(cfg.Forms.ForwardEndpoint(), cfg.Forms.Timeout)
	}
	svc, err := leads.NewService(leads.ServiceDeps{
		Forwarder: forwarder,
		Logger:    logger.Named("leads"),
		Meter:     deps.Meter,
		QueueSize: cfg.Forms.QueueSize,
		Workers:   cfg.Forms.Workers,
		Timeout:   cfg.Forms.Timeout,
	})
	if err != nil {
		return nil, err
	}

	sinks := deps.Sinks
	if sinks == nil {
		metricSink, err := analytics.NewMetricSink(deps.Meter)
		if err != nil {
			return nil, err
		}
		sinks = []analytics.Sink{analytics.NewLogSink(logger.Named("analytics")), metricSink}
		if cfg.Analytics.Endpoint != "" {
			sinks = append(sinks, analytics.NewHTTPSink(cfg.Analytics.Endpoint, cfg.Analytics.Timeout))
		}
	}
	tracker := analytics.NewDispatcher(analytics.DispatcherDeps{Sinks: sinks, Logger: logger.Named("analytics")})

	return &app{
		cfg:      cfg,
		logger:   logger,
		bundle:   bundle,
		builder:  builder,
		renderer: renderer,
		leads:    svc,
		tracker:  tracker,
		public:   public,
	}, nil
}

// publicFS returns the public directory, or nil when it does not exist.
func publicFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	return os.DirFS(dir)
}

// track dispatches ev off the request path. Close waits for pending dispatches.
func (a *app) track(r *http.Request, ev analytics.Event) {
	if ev.URL == "" {
		ev.URL = r.Referer()
	}
	if ev.UserAgent == "" {
		ev.UserAgent = r.UserAgent()
	}
	ctx := context.WithoutCancel(r.Context())
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		a.tracker.Track(ctx, ev)
	}()
}

// Close drains pending analytics dispatches and queued lead submissions.
func (a *app) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.leads.Close(ctx)
}

func newRouter(a *app) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP. Ensure only trusted proxies
	// can set these headers in production environments.
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(mw.HTMX)
	r.Use(mw.Session(mw.SessionOptions{
		SigningKey: a.cfg.Session.SigningKey,
		Secure:     a.cfg.Site.Production(),
		Logger:     a.logger,
	}))
	r.Use(mw.Locale(a.bundle))
	r.Use(mw.CSRF("/events"))
	r.Use(mw.VaryLocale)

	r.NotFound(a.notFound)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/assets/*", mw.AssetsWithCache(web.StaticFS(), "/assets", ""))
	r.Get("/images/*", a.images)

	r.Get("/", a.home)
	for _, lang := range a.bundle.Supported() {
		r.Get("/"+lang, a.homeIn(lang))
		r.Get("/"+lang+"/", a.homeIn(lang))
	}
	r.Get("/lang/toggle", a.toggleLang)
	r.Get("/privacy", a.privacy)
	r.Get("/robots.txt", a.robots)
	r.Get("/sitemap.xml", a.sitemap)

	r.Get(site.ChartPath, a.chart)
	r.Get("/comparison/code", a.codeModal)
	r.Get("/pricing/interest", a.pricingModal)
	r.Post("/pricing/interest", a.submitPricingInterest)
	r.Post("/leads", a.submitLead)
	r.Post("/events", a.collectEvent)

	return r
}
