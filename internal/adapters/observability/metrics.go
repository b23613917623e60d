package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "eda", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eda", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "eda", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eda", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "eda", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	DatasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "eda", Name: "dataset_rows", Help: "Listings in the loaded dataset."},
	)
	DatasetLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "eda", Name: "dataset_loads_total", Help: "Dataset load attempts."},
		[]string{"source", "result"},
	)
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "eda", Name: "predictions_total", Help: "Price predictions."},
		[]string{"result"}, // ok|invalid|unavailable
	)
	FileReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "eda", Name: "file_reloads_total", Help: "Model and lookup file reloads."},
		[]string{"file", "result"},
	)
)

// Serve exposes reg on its own listener; empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		DatasetRows, DatasetLoads, Predictions, FileReloads)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveDatasetLoad(source string, rows int, err error) {
	if err != nil {
		DatasetLoads.WithLabelValues(source, "error").Inc()
		return
	}
	DatasetLoads.WithLabelValues(source, "ok").Inc()
	DatasetRows.Set(float64(rows))
}

func ObservePrediction(result string) { Predictions.WithLabelValues(result).Inc() }

func ObserveReload(file string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	FileReloads.WithLabelValues(file, result).Inc()
}
