// Package tracker owns the 1 Hz tick: it reads the window and camera
// collaborators, drives focus detection and the game engine, and publishes
// a snapshot. All mutation happens under one mutex, so commands from the
// API never interleave with a tick.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joescharf/focuswin/internal/attention"
	"github.com/joescharf/focuswin/internal/camera"
	"github.com/joescharf/focuswin/internal/focus"
	"github.com/joescharf/focuswin/internal/game"
	"github.com/joescharf/focuswin/internal/metrics"
	"github.com/joescharf/focuswin/internal/models"
	"github.com/joescharf/focuswin/internal/monitor"
	"github.com/joescharf/focuswin/internal/rules"
	"github.com/joescharf/focuswin/internal/store"
	"github.com/joescharf/focuswin/internal/voice"
	"github.com/joescharf/focuswin/internal/window"
)

const (
	DefaultTickInterval    = time.Second
	DefaultPostureInterval = 10 * time.Minute
	DefaultBreakInterval   = 20 * time.Minute
)

// Tracker is the single tick owner.
type Tracker struct {
	mu sync.Mutex

	provider  window.Provider
	denylist  *window.Denylist
	detector  *focus.Detector
	game      *game.Engine
	camera    *camera.Hub
	posture   *monitor.PostureMonitor
	breaks    *monitor.BreakReminder
	analytics *monitor.CameraAnalytics

	store   store.Store
	metrics *metrics.Metrics
	coach   *voice.Coach
	logger  *slog.Logger
	now     func() time.Time

	interval        time.Duration
	postureInterval time.Duration
	breakInterval   time.Duration

	snap            Snapshot
	lastProviderErr string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStore persists game state and session history. Without a store the
// tracker runs in memory only.
func WithStore(s store.Store) Option { return func(t *Tracker) { t.store = s } }

func WithMetrics(m *metrics.Metrics) Option { return func(t *Tracker) { t.metrics = m } }
func WithCoach(c *voice.Coach) Option       { return func(t *Tracker) { t.coach = c } }
func WithLogger(l *slog.Logger) Option      { return func(t *Tracker) { t.logger = l } }
func WithDenylist(d *window.Denylist) Option {
	return func(t *Tracker) { t.denylist = d }
}
func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

// WithTickInterval sets the Run period. Non-positive values keep the default.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}
func WithPostureInterval(d time.Duration) Option {
	return func(t *Tracker) { t.postureInterval = d }
}
func WithBreakInterval(d time.Duration) Option {
	return func(t *Tracker) { t.breakInterval = d }
}

// New wires a tracker. The detector, engine and hub should share the clock
// passed with WithClock.
func New(provider window.Provider, detector *focus.Detector, engine *game.Engine, hub *camera.Hub, opts ...Option) *Tracker {
	t := &Tracker{
		provider:        provider,
		denylist:        window.NewDenylist(window.DefaultIgnoreApps),
		detector:        detector,
		game:            engine,
		camera:          hub,
		logger:          slog.Default(),
		now:             time.Now,
		interval:        DefaultTickInterval,
		postureInterval: DefaultPostureInterval,
		breakInterval:   DefaultBreakInterval,
	}
	for _, o := range opts {
		o(t)
	}
	t.posture = monitor.NewPostureMonitor(t.postureInterval, t.now)
	t.breaks = monitor.NewBreakReminder(t.breakInterval, t.now)
	t.analytics = monitor.NewCameraAnalytics()
	t.snap = Snapshot{AppName: "Initializing...", WindowTitle: "...", HasPermissions: true}
	t.refreshLocked()
	return t
}

// Load restores persisted progress from the store.
func (t *Tracker) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	st, err := t.store.LoadGameState(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.game.Load(st)
	t.refreshLocked()
	return nil
}

// Run ticks until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Tick runs one update. A panic inside a tick is logged and swallowed.
func (t *Tracker) Tick(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t.metrics.TickPanicked()
			t.logger.Error("tick panicked", "panic", r)
		}
	}()

	t.mu.Lock()
	defer t.mu.Unlock()

	v := t.tickLocked(ctx)
	t.metrics.ObserveTick(v, time.Since(start))
}

func (t *Tracker) tickLocked(ctx context.Context) models.FocusVerdict {
	sig, err := t.provider.ActiveWindow(ctx)
	var v models.FocusVerdict
	ignored := false
	switch {
	case err != nil:
		t.metrics.ProviderError()
		if msg := err.Error(); msg != t.lastProviderErr {
			t.logger.Warn("active window unavailable", "error", err)
			t.lastProviderErr = msg
		}
		v = t.detector.Error(err)
	case t.denylist.Ignored(sig):
		ignored = true
		v = models.FocusVerdict{State: models.FocusStateUnknown, Reason: "Own window ignored", Source: models.SourceRules}
	default:
		t.lastProviderErr = ""
		v = t.detector.Evaluate(ctx, sig.AppName, sig.WindowTitle)
	}

	cam := t.camera.Latest()
	multiplier := attention.Multiplier(cam)
	present := attention.Present(cam)
	studying := v.IsStudying()

	sess, active := t.game.Session()
	postureWarning := false
	if active && !sess.Paused && v.State != models.FocusStateUnknown {
		t.game.Update(studying, multiplier, present)

		if cam.Enabled && cam.Present != nil {
			t.game.RecordAttention(cam.AttentionScore)
			t.analytics.RecordAttention(cam.AttentionScore)
			t.analytics.RecordPosture(cam.GoodPosture)
			t.analytics.RecordPresence(*cam.Present)
			t.metrics.ObserveAttention(cam.AttentionScore)
			postureWarning = t.posture.Update(cam.GoodPosture)
		}
		if t.coach != nil {
			t.coach.Check(ctx, v.State == models.FocusStateDistracted, studying && present)
		}
	}

	if active && (t.game.IsHealthDepleted() || t.game.IsSessionComplete()) {
		sum := t.stopLocked(ctx)
		t.snap.AutoStopResults = sum
		t.logger.Info("session auto-stopped",
			"mode", sum.Mode, "health_failed", sum.HealthFailed,
			"challenge_failed", sum.ChallengeFailed, "xp_earned", sum.XPEarned)
	} else if active {
		t.saveStateLocked(ctx)
	}

	t.snap.AppName = sig.AppName
	t.snap.WindowTitle = sig.WindowTitle
	t.snap.HasPermissions = err == nil && sig.HasPermissions
	if err != nil {
		t.snap.AppName, t.snap.WindowTitle = "Unknown", "Unknown"
	}
	t.snap.FocusState = v.State
	t.snap.FocusReason = v.Reason
	t.snap.FocusSource = v.Source
	t.snap.FocusConfidence = v.Confidence
	t.snap.IsStudying = studying
	t.snap.Ignored = ignored
	t.snap.PostureWarning = postureWarning
	t.refreshLocked()
	return v
}

// refreshLocked copies game, session and camera state into the snapshot.
func (t *Tracker) refreshLocked() {
	st := t.game.State()
	sess, active := t.game.Session()

	t.snap.XP = st.XP
	t.snap.Level = st.Level
	t.snap.Health = st.Health
	t.snap.TotalTimeFormatted = game.FormatClock(st.TotalStudySeconds)
	t.snap.CurrentStreak = st.CurrentStreak
	t.snap.BestStreak = st.BestStreak
	t.snap.GraceActive = t.detector.GracePeriod().Active

	t.snap.SessionActive = active
	t.snap.SessionMode = sess.Mode
	t.snap.SessionPaused = sess.Paused
	t.snap.Course = sess.Course
	t.snap.SessionTimeFormatted = game.FormatClock(sess.StudySeconds)
	t.snap.SessionXP = sess.PendingXP
	t.snap.TimeRemaining = t.game.TimeRemaining()
	t.snap.SessionElapsed = t.game.Elapsed()

	if active {
		t.snap.BreakReminder = t.breaks.CheckBreakNeeded()
		t.snap.TimeUntilBreak = t.breaks.TimeUntilBreak()
	} else {
		t.snap.BreakReminder = false
		t.snap.TimeUntilBreak = 0
		t.snap.PostureWarning = false
	}
	t.snap.BreaksTaken = t.breaks.BreaksTaken()

	cam := t.camera.Latest()
	t.snap.setCamera(cam, attention.Multiplier(cam), attention.StatusMessage(cam), t.camera.Calibration())
	t.metrics.SetGame(st, active)
}

// Snapshot returns a copy of the latest published state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap.clone()
}

// StartSession begins a study session. challengeSeconds is only used in
// challenge mode.
func (t *Tracker) StartSession(ctx context.Context, mode models.SessionMode, course string, challengeSeconds int) (game.StartResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	res, err := t.game.StartSession(mode, course, challengeSeconds)
	if err != nil {
		return res, err
	}

	t.posture.Reset()
	t.breaks.StartSession()
	t.analytics.Reset()
	if t.coach != nil {
		t.coach.Reset()
	}
	t.snap.AutoStopResults = nil

	if sess, _ := t.game.Session(); sess.Course != "" && t.store != nil {
		if _, _, err := t.store.AddCourse(ctx, sess.Course); err != nil {
			t.logger.Warn("failed to save course", "course", sess.Course, "error", err)
		}
	}
	t.saveStateLocked(ctx)
	t.refreshLocked()

	t.logger.Info("session started", "mode", mode, "course", course, "streak", res.Streak)
	return res, nil
}

// StopSession ends the active session and returns its summary.
func (t *Tracker) StopSession(ctx context.Context) (*models.SessionSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.game.Active() {
		return nil, fmt.Errorf("%w: no active session", game.ErrInvalidState)
	}
	sum := t.stopLocked(ctx)
	t.refreshLocked()
	return sum, nil
}

// stopLocked stops the session, records it and resets per-session monitors.
func (t *Tracker) stopLocked(ctx context.Context) *models.SessionSummary {
	sum := t.game.StopSession()
	if sum == nil {
		return nil
	}
	t.metrics.SessionFinished(sum)

	if t.store != nil {
		rec := &models.SessionRecord{SessionSummary: *sum}
		if err := t.store.RecordSession(ctx, rec); err != nil {
			t.logger.Warn("failed to record session", "error", err)
		}
	}
	t.saveStateLocked(ctx)

	t.posture.Reset()
	t.breaks.Reset()
	if t.coach != nil {
		t.coach.Reset()
	}
	return sum
}

func (t *Tracker) saveStateLocked(ctx context.Context) {
	if t.store == nil {
		return
	}
	if err := t.store.SaveGameState(ctx, t.game.State()); err != nil {
		t.logger.Warn("failed to save game state", "error", err)
	}
}

// PauseSession suspends scoring.
func (t *Tracker) PauseSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.game.PauseSession(); err != nil {
		return err
	}
	t.refreshLocked()
	return nil
}

// ResumeSession continues a paused session.
func (t *Tracker) ResumeSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.game.ResumeSession(); err != nil {
		return err
	}
	t.refreshLocked()
	return nil
}

// ToggleCamera switches camera input on or off.
func (t *Tracker) ToggleCamera(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.camera.SetEnabled(enabled)
	t.refreshLocked()
}

// CalibrateCamera stores the current head pose as the focused baseline.
func (t *Tracker) CalibrateCamera() (camera.Calibration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cal, err := t.camera.Calibrate()
	t.refreshLocked()
	return cal, err
}

// MarkBreakTaken restarts the break timer of the active session.
func (t *Tracker) MarkBreakTaken() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.game.Active() {
		return fmt.Errorf("%w: no active session", game.ErrInvalidState)
	}
	t.breaks.MarkBreakTaken()
	t.refreshLocked()
	return nil
}

// Analytics returns the camera aggregates of the current session.
func (t *Tracker) Analytics() monitor.AnalyticsSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.analytics.Summary()
}

// SetRules hot-swaps the keyword rules.
func (t *Tracker) SetRules(e *rules.Engine) {
	t.detector.SetRules(e)
}

// Classify runs the current rules on arbitrary text without touching state.
func (t *Tracker) Classify(appName, windowTitle string) models.FocusVerdict {
	return t.detector.Rules().Classify(appName, windowTitle)
}

// Store returns the configured store, or nil.
func (t *Tracker) Store() store.Store {
	return t.store
}
