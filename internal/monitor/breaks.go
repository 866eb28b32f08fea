package monitor

import "time"

// BreakReminder signals when a break is due.
type BreakReminder struct {
	interval    time.Duration
	now         func() time.Time
	lastBreak   *time.Time
	breaksTaken int
}

// NewBreakReminder creates a reminder that fires every interval of work.
func NewBreakReminder(interval time.Duration, now func() time.Time) *BreakReminder {
	if now == nil {
		now = time.Now
	}
	return &BreakReminder{interval: interval, now: now}
}

// StartSession begins tracking from now.
func (b *BreakReminder) StartSession() {
	now := b.now()
	b.lastBreak = &now
	b.breaksTaken = 0
}

// CheckBreakNeeded reports whether interval has elapsed since the last break.
func (b *BreakReminder) CheckBreakNeeded() bool {
	if b.lastBreak == nil {
		return false
	}
	return b.now().Sub(*b.lastBreak) >= b.interval
}

// MarkBreakTaken restarts the timer.
func (b *BreakReminder) MarkBreakTaken() {
	now := b.now()
	b.lastBreak = &now
	b.breaksTaken++
}

// TimeUntilBreak returns whole seconds until the next break, never negative.
func (b *BreakReminder) TimeUntilBreak() int {
	if b.lastBreak == nil {
		return 0
	}
	remaining := b.interval - b.now().Sub(*b.lastBreak)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// BreaksTaken is the number of breaks taken this session.
func (b *BreakReminder) BreaksTaken() int {
	return b.breaksTaken
}

// Reset stops tracking.
func (b *BreakReminder) Reset() {
	b.lastBreak = nil
	b.breaksTaken = 0
}
