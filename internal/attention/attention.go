// Package attention turns camera detector output into scoring inputs.
package attention

import "github.com/joescharf/focuswin/internal/camera"

// ScoreToMultiplier maps an attention score (0-100) to an XP multiplier.
// Bands are stepped, not interpolated.
func ScoreToMultiplier(score float64) float64 {
	switch {
	case score >= 80:
		return 1.0
	case score >= 60:
		return 0.85
	case score >= 40:
		return 0.7
	case score >= 20:
		return 0.6
	default:
		return 0.5
	}
}

// MultiplierToScore maps a multiplier back to the midpoint of its band.
// Lossy; for reporting only.
func MultiplierToScore(m float64) float64 {
	switch {
	case m >= 1.0:
		return 90
	case m >= 0.85:
		return 70
	case m >= 0.7:
		return 50
	case m >= 0.6:
		return 30
	default:
		return 10
	}
}

// Multiplier returns the XP multiplier for a camera signal. A disabled camera
// or one without a current reading never reduces XP.
func Multiplier(sig camera.Signal) float64 {
	if !sig.Enabled || sig.Present == nil {
		return 1.0
	}
	return ScoreToMultiplier(sig.AttentionScore)
}

// Present reports whether the user counts as present. Only an explicit
// absence from an enabled camera is trusted.
func Present(sig camera.Signal) bool {
	if !sig.Enabled || sig.Present == nil {
		return true
	}
	return *sig.Present
}

// StatusMessage is the short human-readable camera status.
func StatusMessage(sig camera.Signal) string {
	switch {
	case !sig.Enabled:
		return "Camera disabled"
	case sig.Present == nil:
		return "Starting camera..."
	case !*sig.Present:
		return "User away"
	case sig.PhoneDetected:
		return "Phone detected"
	case sig.AttentionScore >= 80:
		return "Fully focused"
	case sig.AttentionScore >= 60:
		return "Paying attention"
	case sig.AttentionScore >= 40:
		return "Somewhat distracted"
	default:
		return "Distracted"
	}
}
