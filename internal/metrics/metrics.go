package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the service metrics on its own registry
type Recorder struct {
	registry        *prometheus.Registry
	predictions     *prometheus.CounterVec
	unseenValues    *prometheus.CounterVec
	historyFailures prometheus.Counter
	creditQuotes    *prometheus.CounterVec
	predictedPrice  prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carprice_predictions_total",
				Help: "Total number of price predictions by outcome",
			},
			[]string{"outcome"},
		),
		unseenValues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carprice_unseen_category_total",
				Help: "Categorical values that fell back to the default class",
			},
			[]string{"column"},
		),
		historyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "carprice_history_write_failures_total",
				Help: "Prediction history writes that failed and were skipped",
			},
		),
		creditQuotes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carprice_credit_quotes_total",
				Help: "Total number of loan calculations by outcome",
			},
			[]string{"outcome"},
		),
		predictedPrice: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "carprice_predicted_price_rub",
				Help:    "Distribution of predicted prices",
				Buckets: prometheus.ExponentialBuckets(100_000, 2, 10),
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"route", "method"},
		),
	}

	r.registry.MustRegister(
		r.predictions,
		r.unseenValues,
		r.historyFailures,
		r.creditQuotes,
		r.predictedPrice,
		r.httpRequests,
		r.httpDuration,
		collectors.NewGoCollector(),
	)
	return r
}

// RecordPrediction records a prediction outcome and, on success, its price
func (r *Recorder) RecordPrediction(outcome string, price float64) {
	r.predictions.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		r.predictedPrice.Observe(price)
	}
}

// RecordUnseenValue records a categorical fallback for column
func (r *Recorder) RecordUnseenValue(column string) {
	r.unseenValues.WithLabelValues(column).Inc()
}

// RecordHistoryFailure records a swallowed history write failure
func (r *Recorder) RecordHistoryFailure() {
	r.historyFailures.Inc()
}

// RecordCreditQuote records a loan calculation outcome
func (r *Recorder) RecordCreditQuote(outcome string) {
	r.creditQuotes.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records a served request
func (r *Recorder) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// Handler exposes the registry for scraping
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
