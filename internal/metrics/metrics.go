// Package metrics collects and exposes Prometheus metrics for the timer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface used by the narrator, announcer and
// session controller.
type Recorder interface {
	RecordNarration(backend string, fallback bool, d time.Duration)
	RecordSpeechFailure(stage string)
	RecordUtterance()
	RecordNotification(ok bool)
	RecordTick(period string, session int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	narrations       *prometheus.CounterVec
	narrationLatency prometheus.Histogram
	speechFailures   *prometheus.CounterVec
	utterances       prometheus.Counter
	notifications    *prometheus.CounterVec
	ticks            *prometheus.CounterVec
	session          *prometheus.GaugeVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		narrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pomodoro_narrations_total",
			Help: "Narration lines produced, by backend and whether the raw prompt was used.",
		}, []string{"backend", "fallback"}),
		narrationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pomodoro_narration_latency_seconds",
			Help:    "Time spent generating a narration line.",
			Buckets: prometheus.DefBuckets,
		}),
		speechFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pomodoro_speech_failures_total",
			Help: "Failed utterances, by the stage that failed.",
		}, []string{"stage"}),
		utterances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pomodoro_utterances_total",
			Help: "Utterances played to completion.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pomodoro_notifications_total",
			Help: "Desktop notifications raised, by result.",
		}, []string{"result"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pomodoro_ticks_total",
			Help: "Period transitions, by the period that ended.",
		}, []string{"period"}),
		session: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pomodoro_session",
			Help: "Current session number of each period.",
		}, []string{"period"}),
	}

	reg.MustRegister(
		c.narrations,
		c.narrationLatency,
		c.speechFailures,
		c.utterances,
		c.notifications,
		c.ticks,
		c.session,
	)

	return c
}

// RecordNarration records one generated narration line.
func (c *Collector) RecordNarration(backend string, fallback bool, d time.Duration) {
	c.narrations.WithLabelValues(backend, strconv.FormatBool(fallback)).Inc()
	c.narrationLatency.Observe(d.Seconds())
}

// RecordSpeechFailure records an utterance that failed at stage.
func (c *Collector) RecordSpeechFailure(stage string) {
	c.speechFailures.WithLabelValues(stage).Inc()
}

// RecordUtterance records a completed playback.
func (c *Collector) RecordUtterance() {
	c.utterances.Inc()
}

// RecordNotification records a notification attempt.
func (c *Collector) RecordNotification(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	c.notifications.WithLabelValues(result).Inc()
}

// RecordTick records the end of a period and the session number it had.
func (c *Collector) RecordTick(period string, session int) {
	c.ticks.WithLabelValues(period).Inc()
	c.session.WithLabelValues(period).Set(float64(session))
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) RecordNarration(string, bool, time.Duration) {}
func (Nop) RecordSpeechFailure(string)                  {}
func (Nop) RecordUtterance()                            {}
func (Nop) RecordNotification(bool)                     {}
func (Nop) RecordTick(string, int)                      {}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ Recorder = (*Collector)(nil)
