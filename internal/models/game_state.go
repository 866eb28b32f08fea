package models

import "time"

// GameState is the persisted progress of the single local user.
type GameState struct {
	XP                float64    `json:"xp"`
	Level             int        `json:"level"`
	Health            float64    `json:"health"`
	TotalStudySeconds int        `json:"total_study_seconds"`
	CurrentStreak     int        `json:"current_streak"`
	BestStreak        int        `json:"best_streak"`
	LastStudyDate     *time.Time `json:"last_study_date,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewGameState returns the state of a first launch.
func NewGameState() GameState {
	return GameState{Level: 1, Health: 100}
}
