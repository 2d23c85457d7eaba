package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile           = ".env"
	defaultPort              = "8080"
	defaultReadHeaderTimeout = 10 * time.Second
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultEnvironment       = "local"
	defaultLang              = "zh"
	defaultPublicDir         = "public"
	defaultFormEndpoint      = "https://formspree.io/f/mgovqyvj"
	defaultLeadQueueSize     = 64
	defaultLeadWorkers       = 2
	defaultLeadTimeout       = 10 * time.Second
	defaultAnalyticsTimeout  = 3 * time.Second
	defaultLogLevel          = "info"
)

// Config captures runtime configuration for the web server and the static exporter.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Forms     FormsConfig
	Analytics AnalyticsConfig
	Session   SessionConfig
	Log       LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr              string
	Port              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// ListenAddr returns the address passed to http.Server.
func (s ServerConfig) ListenAddr() string {
	if s.Addr != "" {
		return s.Addr
	}
	return ":" + s.Port
}

// SiteConfig describes how pages are rendered.
type SiteConfig struct {
	Environment  string
	Dev          bool
	BaseURL      string
	DefaultLang  string
	PublicDir    string
	TemplatesDir string
}

// Production reports whether secure cookies and cached templates should be used.
func (s SiteConfig) Production() bool {
	return s.Environment == "prod" || s.Environment == "production"
}

// FormsConfig controls lead forwarding to the hosted form service.
type FormsConfig struct {
	Disabled  bool
	Endpoint  string
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

// ForwardEndpoint returns the endpoint leads are posted to, or "" when forwarding is off.
func (f FormsConfig) ForwardEndpoint() string {
	if f.Disabled {
		return ""
	}
	return f.Endpoint
}

// AnalyticsConfig lists server and browser analytics settings.
type AnalyticsConfig struct {
	Endpoint         string
	PublicEndpoint   string
	Timeout          time.Duration
	GA4MeasurementID string
	GTMContainerID   string
	Debug            bool
}

// SessionConfig holds the cookie signing key.
type SessionConfig struct {
	SigningKey string
}

// LogConfig selects the logger level.
type LogConfig struct {
	Level string
}

// ValidationError is returned when configuration fields are invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles configuration from (lowest to highest precedence) the .env file,
// the process environment and an explicit map.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if v, ok := options.envMap[key]; ok {
				return v, true
			}
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		if v, ok := dotEnvValues[key]; ok {
			return v, true
		}
		return "", false
	}

	env := strings.ToLower(stringWithDefault(lookup, "BIOPLOT_ENV", defaultEnvironment))
	cfg := Config{
		Server: ServerConfig{
			Addr:              stringWithDefault(lookup, "BIOPLOT_WEB_ADDR", ""),
			Port:              stringWithDefault(lookup, "BIOPLOT_WEB_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadHeaderTimeout: durationWithDefault(lookup, "BIOPLOT_READ_HEADER_TIMEOUT", defaultReadHeaderTimeout),
			ReadTimeout:       durationWithDefault(lookup, "BIOPLOT_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:      durationWithDefault(lookup, "BIOPLOT_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:       durationWithDefault(lookup, "BIOPLOT_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout:   durationWithDefault(lookup, "BIOPLOT_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Site: SiteConfig{
			Environment:  env,
			Dev:          boolWithDefault(lookup, "BIOPLOT_WEB_DEV", false),
			BaseURL:      strings.TrimRight(stringWithDefault(lookup, "BIOPLOT_BASE_URL", ""), "/"),
			DefaultLang:  strings.ToLower(stringWithDefault(lookup, "BIOPLOT_DEFAULT_LANG", defaultLang)),
			PublicDir:    stringWithDefault(lookup, "BIOPLOT_PUBLIC_DIR", defaultPublicDir),
			TemplatesDir: stringWithDefault(lookup, "BIOPLOT_TEMPLATES_DIR", ""),
		},
		Forms: FormsConfig{
			Disabled:  boolWithDefault(lookup, "BIOPLOT_FORMS_DISABLED", false),
			Endpoint:  stringWithDefault(lookup, "BIOPLOT_FORM_ENDPOINT", defaultFormEndpoint),
			QueueSize: intWithDefault(lookup, "BIOPLOT_LEAD_QUEUE_SIZE", defaultLeadQueueSize),
			Workers:   intWithDefault(lookup, "BIOPLOT_LEAD_WORKERS", defaultLeadWorkers),
			Timeout:   durationWithDefault(lookup, "BIOPLOT_LEAD_TIMEOUT", defaultLeadTimeout),
		},
		Analytics: AnalyticsConfig{
			Endpoint:         stringWithDefault(lookup, "BIOPLOT_ANALYTICS_ENDPOINT", ""),
			PublicEndpoint:   stringWithDefault(lookup, "BIOPLOT_ANALYTICS_PUBLIC_ENDPOINT", ""),
			Timeout:          durationWithDefault(lookup, "BIOPLOT_ANALYTICS_TIMEOUT", defaultAnalyticsTimeout),
			GA4MeasurementID: stringWithDefault(lookup, "BIOPLOT_GA_MEASUREMENT_ID", ""),
			GTMContainerID:   stringWithDefault(lookup, "BIOPLOT_GTM_CONTAINER_ID", ""),
			Debug:            boolWithDefault(lookup, "BIOPLOT_ANALYTICS_DEBUG", env != "prod" && env != "production"),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "BIOPLOT_SESSION_SIGNING_KEY", ""),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "BIOPLOT_LOG_LEVEL", stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel))),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string
	if cfg.Server.Addr == "" {
		if p, err := strconv.Atoi(cfg.Server.Port); err != nil || p <= 0 || p > 65535 {
			invalid = append(invalid, "Server.Port")
		}
	}
	if cfg.Server.ReadTimeout <= 0 {
		invalid = append(invalid, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		invalid = append(invalid, "Server.WriteTimeout")
	}
	if cfg.Site.DefaultLang != "zh" && cfg.Site.DefaultLang != "en" {
		invalid = append(invalid, "Site.DefaultLang")
	}
	if cfg.Site.BaseURL != "" && !isHTTPURL(cfg.Site.BaseURL) {
		invalid = append(invalid, "Site.BaseURL")
	}
	if cfg.Forms.Endpoint != "" && !isHTTPURL(cfg.Forms.Endpoint) {
		invalid = append(invalid, "Forms.Endpoint")
	}
	if cfg.Forms.QueueSize <= 0 {
		invalid = append(invalid, "Forms.QueueSize")
	}
	if cfg.Forms.Workers <= 0 {
		invalid = append(invalid, "Forms.Workers")
	}
	if cfg.Analytics.Endpoint != "" && !isHTTPURL(cfg.Analytics.Endpoint) {
		invalid = append(invalid, "Analytics.Endpoint")
	}
	if cfg.Site.Production() && strings.TrimSpace(cfg.Session.SigningKey) == "" {
		invalid = append(invalid, "Session.SigningKey")
	}
	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return n
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
