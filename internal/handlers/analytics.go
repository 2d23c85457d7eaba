package handlers

import "github.com/BBplayer2021/BioPlotLab/internal/config"

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	GA4MeasurementID string // e.g. G-XXXXXXXXXX
	GTMContainerID   string // e.g. GTM-XXXXXXX
	// Endpoint receives browser events. Server mode posts to /events; static
	// exports use the public collection endpoint, if any.
	Endpoint string
	Debug    bool
}

// AnalyticsFromConfig builds the browser analytics settings. In static mode the
// server-side /events endpoint does not exist.
func AnalyticsFromConfig(cfg config.AnalyticsConfig, static bool) Analytics {
	endpoint := "/events"
	if static {
		endpoint = cfg.PublicEndpoint
	}
	return Analytics{
		GA4MeasurementID: cfg.GA4MeasurementID,
		GTMContainerID:   cfg.GTMContainerID,
		Endpoint:         endpoint,
		Debug:            cfg.Debug,
	}
}
