// Package metrics registers the process Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PipelineStepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "layermap_pipeline_steps_total",
		Help: "Pipeline steps started, by entity kind and step name",
	}, []string{"kind", "step"})
	PipelineCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "layermap_pipeline_completed_total",
		Help: "Entities whose pipeline ran to completion",
	}, []string{"kind"})
	LayerLoadErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "layermap_layer_load_errors_total",
		Help: "Remote layer data loads that failed",
	})
	LayerLoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "layermap_layer_load_duration_ms",
		Help:    "Remote layer data load duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	LocationsRenderedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "layermap_locations_rendered_total",
		Help: "Locations materialized as marker and panel entry",
	})
	FilterRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "layermap_filter_runs_total",
		Help: "Filter queries applied",
	})
	ServiceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "layermap_service_requests_total",
		Help: "Outbound routing and geocoding requests, by service and outcome",
	}, []string{"service", "outcome"})
)

func init() {
	prometheus.MustRegister(PipelineStepsTotal)
	prometheus.MustRegister(PipelineCompletedTotal)
	prometheus.MustRegister(LayerLoadErrorsTotal)
	prometheus.MustRegister(LayerLoadDurationMs)
	prometheus.MustRegister(LocationsRenderedTotal)
	prometheus.MustRegister(FilterRunsTotal)
	prometheus.MustRegister(ServiceRequestsTotal)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
