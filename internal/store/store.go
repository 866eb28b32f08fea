package store

import (
	"context"

	"github.com/joescharf/focuswin/internal/models"
)

// SessionStats aggregates the session history.
type SessionStats struct {
	Sessions     int     `json:"sessions"`
	Failed       int     `json:"failed"`
	StudySeconds int     `json:"study_seconds"`
	XPEarned     float64 `json:"xp_earned"`
}

// Store defines the persistence interface for focuswin.
type Store interface {
	// Game state
	LoadGameState(ctx context.Context) (models.GameState, error)
	SaveGameState(ctx context.Context, s models.GameState) error

	// Courses
	AddCourse(ctx context.Context, name string) (*models.Course, bool, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)

	// Session history
	RecordSession(ctx context.Context, rec *models.SessionRecord) error
	ListSessions(ctx context.Context, limit int) ([]*models.SessionRecord, error)
	SessionStats(ctx context.Context) (SessionStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
