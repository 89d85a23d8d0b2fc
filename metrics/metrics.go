// Package metrics exposes Prometheus instrumentation for the Hidden Gem
// service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog gauges
	GamesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hiddengem_games_total",
		Help: "Total number of games in the catalog.",
	})
	ManufacturersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hiddengem_manufacturers_total",
		Help: "Total number of manufacturers in the catalog.",
	})

	// Provider activity
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hiddengem_provider_requests_total",
		Help: "Provider fetch attempts by outcome.",
	}, []string{"provider", "outcome"}) // outcome: ok, empty, unavailable, quota

	ImagesDownloaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hiddengem_images_downloaded_total",
		Help: "Images persisted to the media store.",
	}, []string{"provider", "category"})

	// Resolution activity
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hiddengem_resolutions_total",
		Help: "Media resolutions by outcome.",
	}, []string{"outcome"}) // outcome: hit, full, partial, error

	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hiddengem_resolve_duration_seconds",
		Help:    "Duration of media resolutions in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	// Media store churn observed by the filesystem watcher.
	ExternalMediaChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hiddengem_external_media_changes_total",
		Help: "Media root file events not initiated by the engine.",
	})
)

// Outcome labels for ProviderRequests.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"
	OutcomeQuota       = "quota"
)

// RecordResolveDuration records the time taken for one media resolution.
func RecordResolveDuration(start time.Time) {
	ResolveDuration.Observe(time.Since(start).Seconds())
}

// SetCatalogSize refreshes the catalog gauges.
func SetCatalogSize(games, manufacturers int) {
	GamesTotal.Set(float64(games))
	ManufacturersTotal.Set(float64(manufacturers))
}
