// Package game owns XP, level, health, streak and the study session life cycle.
package game

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joescharf/focuswin/internal/models"
)

const (
	maxHealth  = 100.0
	xpPerLevel = 100
)

// Rates are the per-tick health changes. Penalty should stay an order of
// magnitude above Regen so distraction is costly.
type Rates struct {
	Regen   float64
	Penalty float64
}

// DefaultRates regenerates 0.1 health per studying tick and drains 5.0 per distracted tick.
func DefaultRates() Rates {
	return Rates{Regen: 0.1, Penalty: 5.0}
}

// Session is the transient state of the active study session.
type Session struct {
	Mode              models.SessionMode `json:"mode"`
	Course            string             `json:"course,omitempty"`
	ChallengeDuration int                `json:"challenge_duration_seconds"`
	StartedAt         time.Time          `json:"started_at"`
	StudySeconds      int                `json:"study_seconds"`
	PendingXP         float64            `json:"xp_earned"`
	AttentionScores   []float64          `json:"-"`
	Paused            bool               `json:"paused"`

	pausedAt    time.Time
	pausedTotal time.Duration
}

// StartResult reports the streak evaluated when a session starts.
type StartResult struct {
	Streak          int  `json:"streak"`
	StreakIncreased bool `json:"streak_increased"`
}

// Engine is the gamification state machine. It is not safe for concurrent
// use; callers serialize access (one tick or command at a time).
type Engine struct {
	state   models.GameState
	session *Session
	rates   Rates
	now     func() time.Time
}

// NewEngine creates an engine with a fresh game state.
func NewEngine(rates Rates, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{state: models.NewGameState(), rates: rates, now: now}
}

// Load restores persisted progress. Health and session are never resumed:
// a crash mid-session starts over with full health and no session.
func (e *Engine) Load(s models.GameState) {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.XP < 0 {
		s.XP = 0
	}
	s.Health = maxHealth
	e.state = s
	e.session = nil
}

// State returns a copy of the game state.
func (e *Engine) State() models.GameState {
	s := e.state
	if s.LastStudyDate != nil {
		d := *s.LastStudyDate
		s.LastStudyDate = &d
	}
	return s
}

// Session returns a copy of the active session, if any.
func (e *Engine) Session() (Session, bool) {
	if e.session == nil {
		return Session{}, false
	}
	s := *e.session
	s.AttentionScores = append([]float64(nil), e.session.AttentionScores...)
	return s, true
}

// Active reports whether a session is running.
func (e *Engine) Active() bool {
	return e.session != nil
}

// StartSession begins a session. Challenge mode needs challengeSeconds > 0.
// A running session is never replaced.
func (e *Engine) StartSession(mode models.SessionMode, course string, challengeSeconds int) (StartResult, error) {
	if !mode.Valid() {
		return StartResult{}, fmt.Errorf("%w: unknown session mode %q", ErrInvalidArgument, mode)
	}
	if mode == models.SessionModeChallenge && challengeSeconds <= 0 {
		return StartResult{}, fmt.Errorf("%w: challenge mode requires a positive duration", ErrInvalidArgument)
	}
	if e.session != nil {
		return StartResult{}, fmt.Errorf("%w: a %s session is already active", ErrInvalidState, e.session.Mode)
	}
	if mode == models.SessionModeNormal {
		challengeSeconds = 0
	}

	now := e.now()
	res := e.advanceStreak(now)

	e.state.Health = maxHealth
	e.session = &Session{
		Mode:              mode,
		Course:            strings.TrimSpace(course),
		ChallengeDuration: challengeSeconds,
		StartedAt:         now,
	}
	return res, nil
}

// advanceStreak applies the once-per-start daily streak rule.
func (e *Engine) advanceStreak(now time.Time) StartResult {
	before := e.state.CurrentStreak
	today := dateOf(now)

	switch {
	case e.state.LastStudyDate == nil:
		e.state.CurrentStreak = 1
	default:
		last := dateOf(e.state.LastStudyDate.In(now.Location()))
		switch {
		case last.Equal(today):
			if e.state.CurrentStreak < 1 {
				e.state.CurrentStreak = 1
			}
		case last.AddDate(0, 0, 1).Equal(today):
			e.state.CurrentStreak++
		default:
			e.state.CurrentStreak = 1
		}
	}

	e.state.BestStreak = max(e.state.BestStreak, e.state.CurrentStreak)
	e.state.LastStudyDate = &today

	return StartResult{
		Streak:          e.state.CurrentStreak,
		StreakIncreased: e.state.CurrentStreak > before,
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Update applies one tick. It is a no-op without an active, unpaused session.
// Absence always counts as not studying.
func (e *Engine) Update(isStudying bool, multiplier float64, present bool) {
	if e.session == nil || e.session.Paused {
		return
	}
	if !present {
		isStudying = false
	}

	if isStudying {
		e.state.TotalStudySeconds++
		e.session.StudySeconds++
		e.session.PendingXP += 1.0 * multiplier
		e.state.Health = math.Min(maxHealth, e.state.Health+e.rates.Regen)
		return
	}
	e.state.Health = math.Max(0, e.state.Health-e.rates.Penalty)
}

// RecordAttention adds a camera attention sample to the active session.
func (e *Engine) RecordAttention(score float64) {
	if e.session == nil || e.session.Paused {
		return
	}
	e.session.AttentionScores = append(e.session.AttentionScores, score)
}

// IsHealthDepleted reports whether health has reached zero.
func (e *Engine) IsHealthDepleted() bool {
	return e.state.Health <= 0
}

// IsSessionComplete reports whether a challenge has run its full duration.
func (e *Engine) IsSessionComplete() bool {
	if e.session == nil || e.session.Mode != models.SessionModeChallenge {
		return false
	}
	return e.elapsed() >= time.Duration(e.session.ChallengeDuration)*time.Second
}

// Elapsed returns whole seconds since the session started, excluding pauses.
func (e *Engine) Elapsed() int {
	if e.session == nil {
		return 0
	}
	return int(e.elapsed().Seconds())
}

func (e *Engine) elapsed() time.Duration {
	s := e.session
	d := e.now().Sub(s.StartedAt) - s.pausedTotal
	if s.Paused {
		d -= e.now().Sub(s.pausedAt)
	}
	return max(d, 0)
}

// TimeRemaining returns whole seconds left in a challenge, 0 otherwise.
func (e *Engine) TimeRemaining() int {
	if e.session == nil || e.session.Mode != models.SessionModeChallenge {
		return 0
	}
	remaining := time.Duration(e.session.ChallengeDuration)*time.Second - e.elapsed()
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// PauseSession suspends scoring and the session clock.
func (e *Engine) PauseSession() error {
	if e.session == nil {
		return fmt.Errorf("%w: no active session", ErrInvalidState)
	}
	if e.session.Paused {
		return fmt.Errorf("%w: session already paused", ErrInvalidState)
	}
	e.session.Paused = true
	e.session.pausedAt = e.now()
	return nil
}

// ResumeSession continues a paused session.
func (e *Engine) ResumeSession() error {
	if e.session == nil {
		return fmt.Errorf("%w: no active session", ErrInvalidState)
	}
	if !e.session.Paused {
		return fmt.Errorf("%w: session is not paused", ErrInvalidState)
	}
	e.session.pausedTotal += e.now().Sub(e.session.pausedAt)
	e.session.Paused = false
	e.session.pausedAt = time.Time{}
	return nil
}

// StopSession ends the session and returns its summary, or nil when no
// session is active. XP is only committed when neither the health nor the
// challenge target failed; the session is cleared either way.
func (e *Engine) StopSession() *models.SessionSummary {
	s := e.session
	if s == nil {
		return nil
	}
	e.session = nil

	sum := &models.SessionSummary{
		Course:                s.Course,
		Mode:                  s.Mode,
		DurationSeconds:       s.StudySeconds,
		BaseXP:                s.PendingXP,
		StartTime:             s.StartedAt,
		EndTime:               e.now(),
		OldLevel:              e.state.Level,
		OldXP:                 e.state.XP,
		HealthFailed:          e.state.Health <= 0,
		ChallengeDuration:     s.ChallengeDuration,
		CurrentStreak:         e.state.CurrentStreak,
		BestStreak:            e.state.BestStreak,
		AverageAttentionScore: average(s.AttentionScores),
	}
	if s.Mode == models.SessionModeChallenge {
		sum.ChallengeFailed = s.StudySeconds < s.ChallengeDuration
	}

	if !sum.Failed() {
		// 10% of the session's XP per streak day, rounded down.
		sum.StreakBonus = math.Floor(s.PendingXP * float64(e.state.CurrentStreak) / 10)
		sum.XPEarned = s.PendingXP + sum.StreakBonus
		e.state.XP += sum.XPEarned
		for e.state.XP >= float64(e.state.Level*xpPerLevel) {
			e.state.Level++
		}
	}

	sum.NewLevel = e.state.Level
	sum.NewXP = e.state.XP
	sum.LevelsGained = sum.NewLevel - sum.OldLevel
	return sum
}

func average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return math.Round(sum/float64(len(scores))*100) / 100
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
