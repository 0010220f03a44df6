package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics exposed by the monitor process.
type Metrics struct {
	Registry *prometheus.Registry

	FetchesTotal     *prometheus.CounterVec
	FetchErrorsTotal *prometheus.CounterVec
	VehiclesTotal    *prometheus.CounterVec
	EntitiesTracked  prometheus.Gauge
	TickSeconds      prometheus.Histogram
}

// MakeMetrics creates and registers the monitor metrics on a fresh registry.
func MakeMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	fetchesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transitmap_fetches_total",
		Help: "Line/direction fetches attempted, per agency",
	}, []string{"agency"})

	fetchErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transitmap_fetch_errors_total",
		Help: "Line/direction fetches that failed, per agency",
	}, []string{"agency"})

	vehiclesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transitmap_vehicles_total",
		Help: "Normalized vehicle records reconciled, per agency",
	}, []string{"agency"})

	entitiesTracked := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "transitmap_entities_tracked",
		Help: "Live map entities currently tracked",
	})

	tickSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "transitmap_tick_dispatch_seconds",
		Help:    "Time spent dispatching one polling tick",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(fetchesTotal, fetchErrorsTotal, vehiclesTotal,
		entitiesTracked, tickSeconds)

	return &Metrics{
		Registry:         registry,
		FetchesTotal:     fetchesTotal,
		FetchErrorsTotal: fetchErrorsTotal,
		VehiclesTotal:    vehiclesTotal,
		EntitiesTracked:  entitiesTracked,
		TickSeconds:      tickSeconds,
	}
}
