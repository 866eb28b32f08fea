package models

import "time"

// SessionMode selects how a study session ends.
type SessionMode string

const (
	SessionModeNormal    SessionMode = "normal"
	SessionModeChallenge SessionMode = "challenge"
)

// Valid reports whether m is a known mode.
func (m SessionMode) Valid() bool {
	return m == SessionModeNormal || m == SessionModeChallenge
}

// SessionSummary is produced when a session stops, manually or automatically.
type SessionSummary struct {
	Course                string      `json:"course"`
	Mode                  SessionMode `json:"mode"`
	DurationSeconds       int         `json:"duration_seconds"`
	XPEarned              float64     `json:"xp_earned"`
	BaseXP                float64     `json:"base_xp"`
	StreakBonus           float64     `json:"streak_bonus"`
	StartTime             time.Time   `json:"start_time"`
	EndTime               time.Time   `json:"end_time"`
	OldLevel              int         `json:"old_level"`
	NewLevel              int         `json:"new_level"`
	OldXP                 float64     `json:"old_xp"`
	NewXP                 float64     `json:"new_xp"`
	LevelsGained          int         `json:"levels_gained"`
	ChallengeFailed       bool        `json:"challenge_failed"`
	HealthFailed          bool        `json:"health_failed"`
	ChallengeDuration     int         `json:"challenge_duration"`
	CurrentStreak         int         `json:"current_streak"`
	BestStreak            int         `json:"best_streak"`
	AverageAttentionScore float64     `json:"average_attention_score"`
}

// Failed reports whether the session forfeited its XP.
func (s *SessionSummary) Failed() bool {
	return s.ChallengeFailed || s.HealthFailed
}

// SessionRecord is a completed session as kept in history.
type SessionRecord struct {
	ID   string `json:"id"`
	Date string `json:"date"` // YYYY-MM-DD of the start time, local
	SessionSummary
	CreatedAt time.Time `json:"created_at"`
}
