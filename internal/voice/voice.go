// Package voice speaks short coaching lines based on focus history.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os/exec"
	"time"
)

var (
	distractedLines = []string{
		"Please put the phone away.",
		"Focus, you can do this.",
		"Get back to work.",
		"Distraction detected.",
		"Stay focused on your goal.",
	}
	focusedLines = []string{
		"You are doing great!",
		"Excellent focus, keep it up.",
		"You're on fire!",
		"Great work session.",
		"Proud of your focus.",
	}
)

const (
	DefaultCooldown     = 60 * time.Second
	distractedThreshold = 5 * time.Second
	focusedThreshold    = 300 * time.Second
	encourageChance     = 0.2
)

// Speaker turns text into audio.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// CommandSpeaker runs a TTS binary (say, espeak) without waiting for it.
type CommandSpeaker struct {
	Command string
	Args    []string
}

// DefaultCommand returns the TTS binary for an operating system.
func DefaultCommand(goos string) string {
	if goos == "darwin" {
		return "say"
	}
	return "espeak"
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	args := append(append([]string{}, s.Args...), text)
	cmd := exec.CommandContext(ctx, s.Command, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.Command, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Coach decides when to speak. It is not safe for concurrent use.
type Coach struct {
	speaker  Speaker
	cooldown time.Duration
	now      func() time.Time
	chance   func() float64
	pick     func(n int) int
	logger   *slog.Logger

	lastSpoke       time.Time
	distractedSince *time.Time
	focusedSince    *time.Time
}

// Option configures a Coach.
type Option func(*Coach)

func WithCooldown(d time.Duration) Option { return func(c *Coach) { c.cooldown = d } }
func WithClock(now func() time.Time) Option {
	return func(c *Coach) { c.now = now }
}

// WithRand replaces the random sources: chance returns [0,1), pick returns [0,n).
func WithRand(chance func() float64, pick func(n int) int) Option {
	return func(c *Coach) {
		c.chance = chance
		c.pick = pick
	}
}

func WithLogger(l *slog.Logger) Option { return func(c *Coach) { c.logger = l } }

// NewCoach creates a coach speaking through s.
func NewCoach(s Speaker, opts ...Option) *Coach {
	c := &Coach{
		speaker:  s,
		cooldown: DefaultCooldown,
		now:      time.Now,
		chance:   rand.Float64,
		pick:     rand.IntN,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check is called once per tick. It returns the line spoken, if any.
// Continuous distraction over 5s triggers a nudge; over 5 minutes of
// continuous study triggers an occasional encouragement.
func (c *Coach) Check(ctx context.Context, distracted, studying bool) string {
	now := c.now()
	if !c.lastSpoke.IsZero() && now.Sub(c.lastSpoke) < c.cooldown {
		return ""
	}

	if distracted {
		c.focusedSince = nil
		if c.distractedSince == nil {
			c.distractedSince = &now
			return ""
		}
		if now.Sub(*c.distractedSince) <= distractedThreshold {
			return ""
		}
		c.distractedSince = nil
		return c.say(ctx, now, distractedLines)
	}

	c.distractedSince = nil
	if !studying {
		c.focusedSince = nil
		return ""
	}
	if c.focusedSince == nil {
		c.focusedSince = &now
		return ""
	}
	if now.Sub(*c.focusedSince) <= focusedThreshold || c.chance() >= encourageChance {
		return ""
	}
	c.focusedSince = &now
	return c.say(ctx, now, focusedLines)
}

func (c *Coach) say(ctx context.Context, now time.Time, lines []string) string {
	line := lines[c.pick(len(lines))]
	c.lastSpoke = now
	if err := c.speaker.Speak(ctx, line); err != nil {
		c.logger.Warn("voice coach failed to speak", "error", err)
	}
	return line
}

// Reset forgets streak timers but keeps the cooldown.
func (c *Coach) Reset() {
	c.distractedSince = nil
	c.focusedSince = nil
}
