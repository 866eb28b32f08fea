package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/focuswin/internal/models"
)

func TestObserveTick(t *testing.T) {
	m := New()
	m.ObserveTick(models.FocusVerdict{State: models.FocusStateFocused, Source: models.SourceRules}, 2*time.Millisecond)
	m.ObserveTick(models.FocusVerdict{State: models.FocusStateFocused, Source: models.SourceAI}, time.Millisecond)
	m.ObserveTick(models.FocusVerdict{State: models.FocusStateDistracted, Source: models.SourceRules}, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks.WithLabelValues("focused")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("distracted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.verdicts.WithLabelValues("rules")))
}

func TestSetGame(t *testing.T) {
	m := New()
	m.SetGame(models.GameState{XP: 120, Level: 2, Health: 85, CurrentStreak: 4}, true)

	assert.Equal(t, 85.0, testutil.ToFloat64(m.health))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.xp))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.level))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.streak))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionActive))

	m.SetGame(models.NewGameState(), false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.sessionActive))
}

func TestSessionFinished(t *testing.T) {
	m := New()
	m.SessionFinished(&models.SessionSummary{Mode: models.SessionModeNormal})
	m.SessionFinished(&models.SessionSummary{Mode: models.SessionModeChallenge, HealthFailed: true, ChallengeFailed: true})
	m.SessionFinished(&models.SessionSummary{Mode: models.SessionModeChallenge, ChallengeFailed: true})
	m.SessionFinished(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("normal", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("challenge", "health_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("challenge", "challenge_failed")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTick(models.FocusVerdict{}, time.Second)
		m.TickPanicked()
		m.ProviderError()
		m.SetGame(models.GameState{}, false)
		m.SessionFinished(&models.SessionSummary{})
		m.ObserveAttention(50)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ProviderError()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "focuswin_window_provider_errors_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
