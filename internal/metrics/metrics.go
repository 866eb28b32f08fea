// Package metrics exposes tracker activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joescharf/focuswin/internal/models"
)

const namespace = "focuswin"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	ticks         *prometheus.CounterVec
	verdicts      *prometheus.CounterVec
	tickDuration  prometheus.Histogram
	tickPanics    prometheus.Counter
	providerErrs  prometheus.Counter
	health        prometheus.Gauge
	xp            prometheus.Gauge
	level         prometheus.Gauge
	streak        prometheus.Gauge
	sessionActive prometheus.Gauge
	sessions      *prometheus.CounterVec
	attention     prometheus.Histogram
}

// New registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		ticks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "ticks_total",
			Help:      "Ticks processed, by emitted focus state",
		}, []string{"state"}),
		verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "focus",
			Name:      "verdicts_total",
			Help:      "Focus verdicts by source",
		}, []string{"source"}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one tick",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		tickPanics: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "tick_panics_total",
			Help:      "Ticks that panicked and were recovered",
		}),
		providerErrs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "window",
			Name:      "provider_errors_total",
			Help:      "Failed active window reads",
		}),
		health: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "health",
			Help:      "Current health (0-100)",
		}),
		xp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "xp",
			Help:      "Committed XP",
		}),
		level: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "level",
			Help:      "Current level",
		}),
		streak: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "streak_days",
			Help:      "Current daily study streak",
		}),
		sessionActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "1 while a study session is running",
		}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "completed_total",
			Help:      "Finished sessions by mode and outcome",
		}, []string{"mode", "outcome"}),
		attention: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "camera",
			Name:      "attention_score",
			Help:      "Camera attention scores received during sessions",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveTick records one processed tick.
func (m *Metrics) ObserveTick(v models.FocusVerdict, d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(string(v.State)).Inc()
	m.verdicts.WithLabelValues(string(v.Source)).Inc()
	m.tickDuration.Observe(d.Seconds())
}

// TickPanicked counts a recovered tick panic.
func (m *Metrics) TickPanicked() {
	if m == nil {
		return
	}
	m.tickPanics.Inc()
}

// ProviderError counts a failed window read.
func (m *Metrics) ProviderError() {
	if m == nil {
		return
	}
	m.providerErrs.Inc()
}

// SetGame mirrors game state and session activity.
func (m *Metrics) SetGame(s models.GameState, sessionActive bool) {
	if m == nil {
		return
	}
	m.health.Set(s.Health)
	m.xp.Set(s.XP)
	m.level.Set(float64(s.Level))
	m.streak.Set(float64(s.CurrentStreak))
	if sessionActive {
		m.sessionActive.Set(1)
	} else {
		m.sessionActive.Set(0)
	}
}

// SessionFinished counts a stopped session.
func (m *Metrics) SessionFinished(s *models.SessionSummary) {
	if m == nil || s == nil {
		return
	}
	outcome := "completed"
	switch {
	case s.HealthFailed:
		outcome = "health_failed"
	case s.ChallengeFailed:
		outcome = "challenge_failed"
	}
	m.sessions.WithLabelValues(string(s.Mode), outcome).Inc()
}

// ObserveAttention records a camera attention score.
func (m *Metrics) ObserveAttention(score float64) {
	if m == nil {
		return
	}
	m.attention.Observe(score)
}
