package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func TestPostureMonitor_WarnsOnceAfterInterval(t *testing.T) {
	clock := newClock()
	m := NewPostureMonitor(time.Minute, clock.Now)

	for i := 1; i <= 60; i++ {
		assert.False(t, m.Update(false), "call %d", i)
		clock.Advance(time.Second)
	}
	assert.True(t, m.Update(false), "61st call should warn")

	// Silent until another full interval has passed.
	for i := 0; i < 59; i++ {
		clock.Advance(time.Second)
		assert.False(t, m.Update(false))
	}
	clock.Advance(time.Second)
	assert.True(t, m.Update(false), "repeat warning after a second interval")
}

func TestPostureMonitor_GoodPostureResets(t *testing.T) {
	clock := newClock()
	m := NewPostureMonitor(time.Minute, clock.Now)

	for i := 0; i < 50; i++ {
		m.Update(false)
		clock.Advance(time.Second)
	}
	assert.False(t, m.Update(true))

	for i := 0; i < 59; i++ {
		clock.Advance(time.Second)
		assert.False(t, m.Update(false), "bad interval restarted after good posture")
	}
}

func TestPostureMonitor_GoodPostureNeverWarns(t *testing.T) {
	clock := newClock()
	m := NewPostureMonitor(time.Minute, clock.Now)

	for i := 0; i < 70; i++ {
		assert.False(t, m.Update(true))
		clock.Advance(time.Second)
	}
	assert.Equal(t, 100.0, m.QualityPercentage())
}

func TestPostureMonitor_Quality(t *testing.T) {
	clock := newClock()
	m := NewPostureMonitor(10*time.Minute, clock.Now)
	assert.Equal(t, 100.0, m.QualityPercentage())

	for i := 0; i < 70; i++ {
		m.Update(true)
	}
	for i := 0; i < 30; i++ {
		m.Update(false)
	}
	assert.InDelta(t, 70, m.QualityPercentage(), 1)

	m.Reset()
	assert.Equal(t, 100.0, m.QualityPercentage())
}

func TestBreakReminder(t *testing.T) {
	clock := newClock()
	b := NewBreakReminder(20*time.Minute, clock.Now)

	assert.False(t, b.CheckBreakNeeded(), "not started")
	assert.Equal(t, 0, b.TimeUntilBreak())

	b.StartSession()
	assert.False(t, b.CheckBreakNeeded())
	assert.Equal(t, 1200, b.TimeUntilBreak())

	clock.Advance(19*time.Minute + 30*time.Second)
	assert.False(t, b.CheckBreakNeeded())
	assert.Equal(t, 30, b.TimeUntilBreak())

	clock.Advance(30 * time.Second)
	assert.True(t, b.CheckBreakNeeded())
	assert.Equal(t, 0, b.TimeUntilBreak())

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 0, b.TimeUntilBreak(), "floors at zero")

	b.MarkBreakTaken()
	assert.False(t, b.CheckBreakNeeded())
	assert.Equal(t, 1, b.BreaksTaken())
	assert.Equal(t, 1200, b.TimeUntilBreak())

	b.Reset()
	assert.False(t, b.CheckBreakNeeded())
	assert.Equal(t, 0, b.BreaksTaken())
}

func TestCameraAnalytics(t *testing.T) {
	a := NewCameraAnalytics()

	s := a.Summary()
	assert.Equal(t, 0.0, s.AverageAttentionScore)
	assert.Equal(t, 0.0, s.PostureQuality)
	assert.Equal(t, 100.0, s.PresencePercentage)

	a.RecordAttention(80)
	a.RecordAttention(90)
	a.RecordAttention(70.333)
	a.RecordPosture(true)
	a.RecordPosture(true)
	a.RecordPosture(false)
	a.RecordPresence(true)
	a.RecordPresence(true)
	a.RecordPresence(true)
	a.RecordPresence(false)

	s = a.Summary()
	assert.Equal(t, 80.11, s.AverageAttentionScore)
	assert.Equal(t, 66.67, s.PostureQuality)
	assert.Equal(t, 75.0, s.PresencePercentage)
	assert.Equal(t, 3, s.TimePresentSeconds)
	assert.Equal(t, 1, s.TimeAwaySeconds)
	assert.Equal(t, 3, s.TotalAttentionReadings)
	assert.Equal(t, 3, s.TotalPostureReadings)

	a.Reset()
	assert.Equal(t, AnalyticsSummary{PresencePercentage: 100}, a.Summary())
}
