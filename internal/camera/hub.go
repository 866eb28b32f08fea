package camera

import (
	"errors"
	"sync"
	"time"
)

// ErrNoHeadPose is returned by Calibrate when the latest signal carries no head pose.
var ErrNoHeadPose = errors.New("no head pose detected, look at the camera and retry")

// Hub holds the most recent camera signal pushed by the detector process.
// Readers never wait for fresh data; a signal older than maxAge is reported
// with indeterminate presence.
type Hub struct {
	mu          sync.RWMutex
	enabled     bool
	latest      *Signal
	calibration Calibration
	maxAge      time.Duration
	now         func() time.Time
}

// NewHub creates a hub. A zero maxAge disables staleness checks.
func NewHub(enabled bool, maxAge time.Duration) *Hub {
	return &Hub{enabled: enabled, maxAge: maxAge, now: time.Now}
}

// SetClock replaces the hub's time source.
func (h *Hub) SetClock(now func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = now
}

// Enabled reports whether camera input is switched on.
func (h *Hub) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

// SetEnabled toggles camera input. Disabling drops the stored signal.
func (h *Hub) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
	if !enabled {
		h.latest = nil
	}
}

// Publish stores a detector signal. Signals are ignored while disabled.
func (h *Hub) Publish(sig Signal) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.enabled {
		return false
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = h.now()
	}
	sig.Enabled = true
	h.latest = &sig
	return true
}

// Latest returns the current signal. With the camera disabled the result has
// Enabled=false; with no (or a stale) detection, Present is nil.
func (h *Hub) Latest() Signal {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.enabled {
		return Signal{}
	}
	if h.latest == nil {
		return Signal{Enabled: true}
	}
	sig := *h.latest
	if h.maxAge > 0 && h.now().Sub(sig.Timestamp) > h.maxAge {
		sig.Present = nil
	}
	return sig
}

// Calibrate records the latest head pose as the focused baseline.
func (h *Hub) Calibrate() (Calibration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.enabled || h.latest == nil || h.latest.HeadPose == nil {
		return h.calibration, ErrNoHeadPose
	}
	h.calibration = Calibration{
		Baseline:     *h.latest.HeadPose,
		IsCalibrated: true,
		CalibratedAt: h.now(),
	}
	return h.calibration, nil
}

// Calibration returns the stored calibration.
func (h *Hub) Calibration() Calibration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.calibration
}
