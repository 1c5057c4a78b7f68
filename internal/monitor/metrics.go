// {{{ Copyright (c) Paul R. Tagliamonte <paul@k3xec.com>, 2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

// Package monitor exposes Prometheus metrics about SR830 query sessions.
package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"hz.tools/lockin/device/sr830"
)

// Error kinds used as the "kind" label of sr830_session_errors_total.
const (
	KindUnsupported = "unsupported"
	KindMismatch    = "mismatch"
	KindTransport   = "transport"
	KindOther       = "other"
)

// Metrics holds the collectors for query sessions, registered on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	Sessions        prometheus.Counter
	SessionErrors   *prometheus.CounterVec
	Queries         prometheus.Counter
	SessionDuration prometheus.Histogram
	Values          *prometheus.GaugeVec
}

// New creates and registers the session collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sr830_sessions_total",
			Help: "Query sessions started.",
		}),
		SessionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sr830_session_errors_total",
			Help: "Query sessions that failed, by kind of failure.",
		}, []string{"kind"}),
		Queries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sr830_queries_total",
			Help: "Queries sent to the lock-in amplifier.",
		}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sr830_session_duration_seconds",
			Help:    "Time taken by a query session.",
			Buckets: prometheus.DefBuckets,
		}),
		Values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sr830_value",
			Help: "Last value read for each attribute.",
		}, []string{"attribute", "units"}),
	}
	m.registry.MustRegister(
		m.Sessions,
		m.SessionErrors,
		m.Queries,
		m.SessionDuration,
		m.Values,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records a finished session: its duration, the number of queries
// it sent, and either its error or its values. Values that are not numbers
// are skipped.
func (m *Metrics) Observe(took time.Duration, queries int, results []sr830.Result, err error) {
	m.Sessions.Inc()
	m.SessionDuration.Observe(took.Seconds())
	m.Queries.Add(float64(queries))

	if err != nil {
		m.SessionErrors.WithLabelValues(Kind(err)).Inc()
		return
	}
	for _, result := range results {
		v, err := result.Float()
		if err != nil {
			continue
		}
		m.Values.WithLabelValues(result.Name, result.Units).Set(v)
	}
}

// Kind returns the metric label for a session error.
func Kind(err error) string {
	var te *sr830.TransportError
	switch {
	case errors.Is(err, sr830.ErrUnsupportedQuery):
		return KindUnsupported
	case errors.Is(err, sr830.ErrProtocolMismatch):
		return KindMismatch
	case errors.As(err, &te):
		return KindTransport
	default:
		return KindOther
	}
}

// Handler returns the HTTP handler serving /metrics and /health.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// Serve runs the metrics HTTP server on listen until ctx is done.
func (m *Metrics) Serve(ctx context.Context, listen string, log logrus.FieldLogger) {
	srv := &http.Server{
		Addr:              listen,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("listen", listen).Info("serving metrics")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
}

// vim: foldmethod=marker
