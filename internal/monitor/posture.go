// Package monitor holds the per-session posture, break and camera accumulators.
// None of the types are safe for concurrent use; the tick owner serializes access.
package monitor

import "time"

// PostureMonitor raises a debounced warning after sustained bad posture.
type PostureMonitor struct {
	interval    time.Duration
	now         func() time.Time
	badSince    *time.Time
	lastWarning *time.Time
	goodSeconds int
	badSeconds  int
}

// NewPostureMonitor creates a monitor that warns after interval of continuous bad posture.
func NewPostureMonitor(interval time.Duration, now func() time.Time) *PostureMonitor {
	if now == nil {
		now = time.Now
	}
	return &PostureMonitor{interval: interval, now: now}
}

// Update records one posture sample and reports whether a warning is due.
// While posture stays bad a warning fires at most once per interval.
func (m *PostureMonitor) Update(goodPosture bool) bool {
	now := m.now()

	if goodPosture {
		m.badSince = nil
		m.goodSeconds++
		return false
	}

	if m.badSince == nil {
		m.badSince = &now
	}
	m.badSeconds++

	if now.Sub(*m.badSince) < m.interval {
		return false
	}
	if m.lastWarning != nil && now.Sub(*m.lastWarning) < m.interval {
		return false
	}
	m.lastWarning = &now
	return true
}

// QualityPercentage is the share of tracked time with good posture (100 when empty).
func (m *PostureMonitor) QualityPercentage() float64 {
	total := m.goodSeconds + m.badSeconds
	if total == 0 {
		return 100
	}
	return float64(m.goodSeconds) / float64(total) * 100
}

// Reset clears all tracking for a new session.
func (m *PostureMonitor) Reset() {
	m.badSince = nil
	m.lastWarning = nil
	m.goodSeconds = 0
	m.badSeconds = 0
}
