// Package focus combines rule, classifier and grace-period logic into one
// stable focus verdict per tick.
package focus

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joescharf/focuswin/internal/models"
	"github.com/joescharf/focuswin/internal/rules"
)

// DefaultGracePeriod is how long a fresh distraction is reported as searching.
const DefaultGracePeriod = 15 * time.Second

// classifierThreshold is the confidence a classifier label must exceed to be adopted.
const classifierThreshold = 0.6

// Classifier is a secondary text classifier consulted when no rule matches.
type Classifier interface {
	Predict(ctx context.Context, text string) (models.FocusState, float64, error)
}

// GracePeriod suppresses the penalty right after focus is lost.
// Active implies StartedAt is set.
type GracePeriod struct {
	Active    bool          `json:"active"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Detector is the focus state machine. Evaluate and Error must be called from
// a single tick owner; SetRules may be called from any goroutine.
type Detector struct {
	rules      atomic.Pointer[rules.Engine]
	classifier Classifier
	now        func() time.Time

	grace     GracePeriod
	lastState models.FocusState
}

// Option configures a Detector.
type Option func(*Detector)

// WithClassifier sets the fallback classifier. A nil classifier means rule-only.
func WithClassifier(c Classifier) Option {
	return func(d *Detector) { d.classifier = c }
}

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(dur time.Duration) Option {
	return func(d *Detector) { d.grace.Duration = dur }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// NewDetector creates a detector. The initial state is focused, so a cold
// start never begins with a penalty.
func NewDetector(engine *rules.Engine, opts ...Option) *Detector {
	d := &Detector{
		now:       time.Now,
		grace:     GracePeriod{Duration: DefaultGracePeriod},
		lastState: models.FocusStateFocused,
	}
	d.rules.Store(engine)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetRules swaps the rule engine used by subsequent ticks.
func (d *Detector) SetRules(engine *rules.Engine) {
	d.rules.Store(engine)
}

// Rules returns the current rule engine.
func (d *Detector) Rules() *rules.Engine {
	return d.rules.Load()
}

// GracePeriod returns a copy of the grace period state.
func (d *Detector) GracePeriod() GracePeriod {
	g := d.grace
	if g.StartedAt != nil {
		t := *g.StartedAt
		g.StartedAt = &t
	}
	return g
}

// LastState is the state emitted by the previous successful tick.
func (d *Detector) LastState() models.FocusState {
	return d.lastState
}

// Evaluate classifies one tick of window text.
func (d *Detector) Evaluate(ctx context.Context, appName, windowTitle string) models.FocusVerdict {
	v := d.rules.Load().Classify(appName, windowTitle)
	if v.State == models.FocusStateUnknown {
		v = d.fallback(ctx, appName+" "+windowTitle)
	}

	now := d.now()

	if v.State == models.FocusStateDistracted && d.lastState == models.FocusStateFocused && !d.grace.Active {
		d.grace.Active = true
		d.grace.StartedAt = &now
	}

	if d.grace.Active {
		elapsed := now.Sub(*d.grace.StartedAt)
		if elapsed < d.grace.Duration {
			if v.State == models.FocusStateDistracted {
				v.State = models.FocusStateSearching
				v.Reason = fmt.Sprintf("Grace period (%ds left)", int((d.grace.Duration - elapsed).Seconds()))
			}
		} else {
			d.clearGrace()
		}
	}

	if v.State == models.FocusStateFocused {
		d.clearGrace()
	}

	d.lastState = v.State
	return v
}

// Error is the verdict for a tick where window acquisition failed. Grace
// period state is left untouched.
func (d *Detector) Error(err error) models.FocusVerdict {
	return models.FocusVerdict{
		State:  models.FocusStateUnknown,
		Reason: fmt.Sprintf("Window provider error: %v", err),
		Source: models.SourceError,
	}
}

func (d *Detector) fallback(ctx context.Context, text string) models.FocusVerdict {
	def := models.FocusVerdict{
		State:      models.FocusStateDistracted,
		Confidence: 0.5,
		Reason:     "Unknown activity",
		Source:     models.SourceDefault,
	}
	if d.classifier == nil {
		return def
	}

	label, conf, err := d.classifier.Predict(ctx, text)
	if err != nil {
		def.Reason = fmt.Sprintf("Unknown activity (classifier error: %v)", err)
		return def
	}
	if label == models.FocusStateUnknown || conf <= classifierThreshold {
		return def
	}
	return models.FocusVerdict{
		State:      label,
		Confidence: conf,
		Reason:     fmt.Sprintf("AI classified as %s (%d%%)", label, int(conf*100)),
		Source:     models.SourceAI,
	}
}

func (d *Detector) clearGrace() {
	d.grace.Active = false
	d.grace.StartedAt = nil
}
