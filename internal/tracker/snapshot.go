package tracker

import (
	"github.com/joescharf/focuswin/internal/camera"
	"github.com/joescharf/focuswin/internal/models"
)

// Snapshot is the state published after every tick for the UI to poll.
type Snapshot struct {
	AppName         string               `json:"app_name"`
	WindowTitle     string               `json:"window_title"`
	FocusState      models.FocusState    `json:"focus_state"`
	FocusReason     string               `json:"focus_reason"`
	FocusSource     models.VerdictSource `json:"focus_source"`
	FocusConfidence float64              `json:"focus_confidence"`
	IsStudying      bool                 `json:"is_studying"`
	Ignored         bool                 `json:"ignored"`
	HasPermissions  bool                 `json:"has_permissions"`
	GraceActive     bool                 `json:"grace_active"`

	XP                   float64 `json:"xp"`
	Level                int     `json:"level"`
	Health               float64 `json:"health"`
	TotalTimeFormatted   string  `json:"total_time_formatted"`
	SessionTimeFormatted string  `json:"session_time_formatted"`
	CurrentStreak        int     `json:"current_streak"`
	BestStreak           int     `json:"best_streak"`

	SessionActive  bool               `json:"session_active"`
	SessionMode    models.SessionMode `json:"session_mode,omitempty"`
	SessionPaused  bool               `json:"session_paused"`
	Course         string             `json:"course,omitempty"`
	TimeRemaining  int                `json:"time_remaining"`
	SessionElapsed int                `json:"session_elapsed"`
	SessionXP      float64            `json:"session_xp"`

	CameraEnabled        bool    `json:"camera_enabled"`
	CameraPresent        *bool   `json:"camera_present"`
	CameraAttentionScore float64 `json:"camera_attention_score"`
	CameraMultiplier     float64 `json:"camera_multiplier"`
	CameraGoodPosture    bool    `json:"camera_good_posture"`
	CameraPhoneDetected  bool    `json:"camera_phone_detected"`
	CameraMessage        string  `json:"camera_message"`
	CameraCalibrated     bool    `json:"camera_calibrated"`

	PostureWarning bool `json:"posture_warning"`
	BreakReminder  bool `json:"break_reminder"`
	TimeUntilBreak int  `json:"time_until_break"`
	BreaksTaken    int  `json:"breaks_taken"`

	AutoStopResults *models.SessionSummary `json:"auto_stop_results"`
}

func (s Snapshot) clone() Snapshot {
	if s.CameraPresent != nil {
		p := *s.CameraPresent
		s.CameraPresent = &p
	}
	if s.AutoStopResults != nil {
		r := *s.AutoStopResults
		s.AutoStopResults = &r
	}
	return s
}

func (s *Snapshot) setCamera(sig camera.Signal, multiplier float64, message string, cal camera.Calibration) {
	s.CameraEnabled = sig.Enabled
	s.CameraPresent = sig.Present
	s.CameraAttentionScore = sig.AttentionScore
	s.CameraMultiplier = multiplier
	s.CameraGoodPosture = sig.GoodPosture
	s.CameraPhoneDetected = sig.PhoneDetected
	s.CameraMessage = message
	s.CameraCalibrated = cal.IsCalibrated
}
