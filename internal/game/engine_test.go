package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/focuswin/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine() (*Engine, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	return NewEngine(DefaultRates(), clock.Now), clock
}

func tick(e *Engine, c *fakeClock, n int, studying bool) {
	for range n {
		e.Update(studying, 1.0, true)
		c.Advance(time.Second)
	}
}

func TestStartSession_Validation(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.StartSession(models.SessionModeChallenge, "", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.StartSession("sprint", "", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.StartSession(models.SessionModeNormal, "Math", 0)
	require.NoError(t, err)

	_, err = e.StartSession(models.SessionModeNormal, "Physics", 0)
	assert.ErrorIs(t, err, ErrInvalidState)

	s, ok := e.Session()
	require.True(t, ok)
	assert.Equal(t, "Math", s.Course, "running session must not be replaced")
}

func TestUpdate_NoSessionIsNoop(t *testing.T) {
	e, _ := newTestEngine()
	e.Update(false, 1.0, true)
	e.Update(true, 1.0, true)

	st := e.State()
	assert.Equal(t, 100.0, st.Health)
	assert.Equal(t, 0, st.TotalStudySeconds)
}

func TestNormalSession_XPAndLevelUp(t *testing.T) {
	e, clock := newTestEngine()

	res, err := e.StartSession(models.SessionModeNormal, "Math", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
	assert.True(t, res.StreakIncreased)

	tick(e, clock, 100, true)
	sum := e.StopSession()
	require.NotNil(t, sum)

	assert.Equal(t, 100.0, sum.BaseXP)
	assert.Equal(t, 10.0, sum.StreakBonus)
	assert.Equal(t, 110.0, sum.XPEarned)
	assert.Equal(t, 100, sum.DurationSeconds)
	assert.Equal(t, 1, sum.OldLevel)
	assert.Equal(t, 2, sum.NewLevel)
	assert.Equal(t, 1, sum.LevelsGained)
	assert.Equal(t, 0.0, sum.OldXP)
	assert.Equal(t, 110.0, sum.NewXP)
	assert.False(t, sum.Failed())
	assert.Equal(t, "Math", sum.Course)

	assert.False(t, e.Active())
	assert.Equal(t, 100, e.State().TotalStudySeconds)
	assert.Nil(t, e.StopSession(), "second stop has no session")
}

func TestUpdate_MultiplierScalesXP(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.StartSession(models.SessionModeNormal, "", 0)
	require.NoError(t, err)

	for range 10 {
		e.Update(true, 0.5, true)
	}
	s, _ := e.Session()
	assert.InDelta(t, 5.0, s.PendingXP, 1e-9)
	assert.Equal(t, 10, s.StudySeconds)
}

func TestUpdate_AbsentIsNotStudying(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.StartSession(models.SessionModeNormal, "", 0)
	require.NoError(t, err)

	e.Update(true, 1.0, false)
	assert.Equal(t, 95.0, e.State().Health)
	s, _ := e.Session()
	assert.Equal(t, 0, s.StudySeconds)
	assert.Zero(t, s.PendingXP)
}

func TestUpdate_HealthBounds(t *testing.T) {
	e, clock := newTestEngine()
	_, err := e.StartSession(models.SessionModeNormal, "", 0)
	require.NoError(t, err)

	tick(e, clock, 5, true)
	assert.Equal(t, 100.0, e.State().Health, "regen caps at 100")

	tick(e, clock, 30, false)
	assert.Equal(t, 0.0, e.State().Health, "penalty floors at 0")
	assert.True(t, e.IsHealthDepleted())
}

func TestChallenge_HealthDepletionForfeitsXP(t *testing.T) {
	e, clock := newTestEngine()
	_, err := e.StartSession(models.SessionModeChallenge, "", 60)
	require.NoError(t, err)

	tick(e, clock, 10, true)
	ticks := 0
	for !e.IsHealthDepleted() {
		e.Update(false, 1.0, true)
		clock.Advance(time.Second)
		ticks++
	}
	assert.LessOrEqual(t, ticks, 20)

	sum := e.StopSession()
	require.NotNil(t, sum)
	assert.True(t, sum.HealthFailed)
	assert.True(t, sum.ChallengeFailed)
	assert.Zero(t, sum.XPEarned)
	assert.Zero(t, sum.StreakBonus)
	assert.Equal(t, 10.0, sum.BaseXP)
	assert.Equal(t, 0.0, e.State().XP)
	assert.Equal(t, 1, sum.NewLevel)
}

func TestChallenge_Completion(t *testing.T) {
	e, clock := newTestEngine()
	_, err := e.StartSession(models.SessionModeChallenge, "Chem", 60)
	require.NoError(t, err)
	assert.Equal(t, 60, e.TimeRemaining())

	tick(e, clock, 59, true)
	assert.False(t, e.IsSessionComplete())
	assert.Equal(t, 1, e.TimeRemaining())

	tick(e, clock, 1, true)
	assert.True(t, e.IsSessionComplete())
	assert.Equal(t, 0, e.TimeRemaining())

	sum := e.StopSession()
	require.NotNil(t, sum)
	assert.False(t, sum.ChallengeFailed)
	assert.False(t, sum.HealthFailed)
	assert.Equal(t, 66.0, sum.XPEarned)
	assert.Equal(t, 60, sum.ChallengeDuration)
}

func TestChallenge_StoppedEarlyFails(t *testing.T) {
	e, clock := newTestEngine()
	_, err := e.StartSession(models.SessionModeChallenge, "", 120)
	require.NoError(t, err)

	tick(e, clock, 30, true)
	sum := e.StopSession()
	require.NotNil(t, sum)
	assert.True(t, sum.ChallengeFailed)
	assert.False(t, sum.HealthFailed)
	assert.Zero(t, sum.XPEarned)
}

func TestNormalMode_NeverCompletes(t *testing.T) {
	e, clock := newTestEngine()
	_, err := e.StartSession(models.SessionModeNormal, "", 90)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	assert.False(t, e.IsSessionComplete())
	assert.Equal(t, 0, e.TimeRemaining())
}

func TestStreak(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 8, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		last      *time.Time
		streak    int
		best      int
		wantStrk  int
		wantBest  int
		increased bool
	}{
		{"first ever", nil, 0, 0, 1, 1, true},
		{"same day", ptr(day(10)), 3, 5, 3, 5, false},
		{"yesterday", ptr(day(9)), 3, 3, 4, 4, true},
		{"gap resets", ptr(day(7)), 6, 6, 1, 6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: day(10).Add(5 * time.Hour)}
			e := NewEngine(DefaultRates(), clock.Now)
			e.Load(models.GameState{Level: 1, CurrentStreak: tt.streak, BestStreak: tt.best, LastStudyDate: tt.last})

			res, err := e.StartSession(models.SessionModeNormal, "", 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStrk, res.Streak)
			assert.Equal(t, tt.increased, res.StreakIncreased)

			st := e.State()
			assert.Equal(t, tt.wantStrk, st.CurrentStreak)
			assert.Equal(t, tt.wantBest, st.BestStreak)
			require.NotNil(t, st.LastStudyDate)
			assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), *st.LastStudyDate)
		})
	}
}

func TestStreakBonus(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	e := NewEngine(DefaultRates(), clock.Now)
	yesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	e.Load(models.GameState{Level: 1, CurrentStreak: 2, BestStreak: 2, LastStudyDate: &yesterday})

	_, err := e.StartSession(models.SessionModeNormal, "", 0)
	require.NoError(t, err)
	for range 15 {
		e.Update(true, 1.0, true)
	}
	sum := e.StopSession()
	require.NotNil(t, sum)
	// streak 3: floor(15 * 0.3) = 4
	assert.Equal(t, 4.0, sum.StreakBonus)
	assert.Equal(t, 19.0, sum.XPEarned)
	assert.Equal(t, 3, sum.CurrentStreak)
}

func TestStopSession_MultipleLevels(t *testing.T) {
	e, _ := newTestEngine()
	e.Load(models.GameState{XP: 90, Level: 1})
	_, err := e.StartSession(models.SessionModeNormal, "", 0)
	require.NoError(t, err)
	for range 250 {
		e.Update(true, 1.0, true)
	}
	sum := e.StopSession()
	require.NotNil(t, sum)
	// 90 + 250 + 25 = 365 -> levels 2 (>=100), 3 (>=200), 4 (>=300)
	assert.Equal(t, 365.0, sum.NewXP)
	assert.Equal(t, 4, sum.NewLevel)
	assert.Equal(t, 3, sum.LevelsGained)
}

func TestPauseResume(t *testing.T) {
	e, clock := newTestEngine()

	assert.ErrorIs(t, e.PauseSession(), ErrInvalidState)
	assert.ErrorIs(t, e.ResumeSession(), ErrInvalidState)

	_, err := e.StartSession(models.SessionModeChallenge, "", 100)
	require.NoError(t, err)
	tick(e, clock, 10, true)

	require.NoError(t, e.PauseSession())
	assert.ErrorIs(t, e.PauseSession(), ErrInvalidState)

	e.Update(false, 1.0, true)
	assert.Equal(t, 100.0, e.State().Health, "paused sessions are not scored")
	clock.Advance(time.Minute)
	assert.Equal(t, 10, e.Elapsed())

	require.NoError(t, e.ResumeSession())
	assert.ErrorIs(t, e.ResumeSession(), ErrInvalidState)
	clock.Advance(5 * time.Second)
	assert.Equal(t, 15, e.Elapsed())
	assert.Equal(t, 85, e.TimeRemaining())
}

func TestRecordAttention_Average(t *testing.T) {
	e, _ := newTestEngine()
	e.RecordAttention(50)
	_, ok := e.Session()
	assert.False(t, ok)

	_, err := e.StartSession(models.SessionModeNormal, "", 0)
	require.NoError(t, err)
	e.RecordAttention(80)
	e.RecordAttention(70)
	e.RecordAttention(70.5)

	sum := e.StopSession()
	require.NotNil(t, sum)
	assert.Equal(t, 73.5, sum.AverageAttentionScore)
}

func TestLoad_ResetsHealthAndSession(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.StartSession(models.SessionModeNormal, "", 0)
	require.NoError(t, err)

	e.Load(models.GameState{XP: 42, Level: 0, Health: 3, TotalStudySeconds: 77})
	st := e.State()
	assert.Equal(t, 100.0, st.Health)
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, 42.0, st.XP)
	assert.Equal(t, 77, st.TotalStudySeconds)
	assert.False(t, e.Active())
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "00:01:05", FormatClock(65))
	assert.Equal(t, "02:46:40", FormatClock(10000))
	assert.Equal(t, "00:00:00", FormatClock(-3))
}

func ptr[T any](v T) *T { return &v }
