package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/focuswin/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrEmptyName is returned when a course name is blank.
var ErrEmptyName = errors.New("course name is empty")

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer: the tick loop and HTTP handlers share this connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func newULID(t time.Time) string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(t), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Game state ---

// LoadGameState returns the persisted progress, or a first-launch state when
// nothing has been saved yet. Health is not persisted.
func (s *SQLiteStore) LoadGameState(ctx context.Context) (models.GameState, error) {
	st := models.NewGameState()
	var lastStudy sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT xp, level, total_study_seconds, current_streak, best_streak, last_study_date, updated_at
		FROM game_state WHERE id = 1`,
	).Scan(&st.XP, &st.Level, &st.TotalStudySeconds, &st.CurrentStreak, &st.BestStreak, &lastStudy, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.NewGameState(), nil
	}
	if err != nil {
		return models.GameState{}, fmt.Errorf("load game state: %w", err)
	}
	if lastStudy.Valid {
		d := lastStudy.Time
		st.LastStudyDate = &d
	}
	return st, nil
}

// SaveGameState upserts the singleton progress row.
func (s *SQLiteStore) SaveGameState(ctx context.Context, st models.GameState) error {
	var lastStudy sql.NullTime
	if st.LastStudyDate != nil {
		lastStudy = sql.NullTime{Time: *st.LastStudyDate, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_state (id, xp, level, total_study_seconds, current_streak, best_streak, last_study_date, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			xp = excluded.xp,
			level = excluded.level,
			total_study_seconds = excluded.total_study_seconds,
			current_streak = excluded.current_streak,
			best_streak = excluded.best_streak,
			last_study_date = excluded.last_study_date,
			updated_at = excluded.updated_at`,
		st.XP, st.Level, st.TotalStudySeconds, st.CurrentStreak, st.BestStreak, lastStudy, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save game state: %w", err)
	}
	return nil
}

// --- Courses ---

// AddCourse inserts a course unless one with the same name (ignoring case)
// exists. The returned bool reports whether a row was created.
func (s *SQLiteStore) AddCourse(ctx context.Context, name string) (*models.Course, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, ErrEmptyName
	}

	existing := &models.Course{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM courses WHERE name = ?`, name,
	).Scan(&existing.ID, &existing.Name, &existing.CreatedAt)
	if err == nil {
		return existing, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("get course: %w", err)
	}

	now := time.Now().UTC()
	c := &models.Course{ID: newULID(now), Name: name, CreatedAt: now}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO courses (id, name, created_at) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("create course: %w", err)
	}
	return c, true, nil
}

// ListCourses returns all courses in insertion order.
func (s *SQLiteStore) ListCourses(ctx context.Context) ([]*models.Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM courses ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var courses []*models.Course
	for rows.Next() {
		c := &models.Course{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// --- Session history ---

// RecordSession appends a finished session. ID, Date and CreatedAt are
// filled in when empty.
func (s *SQLiteStore) RecordSession(ctx context.Context, rec *models.SessionRecord) error {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = newULID(now)
	}
	if rec.Date == "" {
		rec.Date = rec.StartTime.Format(time.DateOnly)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, date, course, mode, duration_seconds, xp_earned, base_xp, streak_bonus,
			start_time, end_time, old_level, new_level, old_xp, new_xp, levels_gained,
			challenge_failed, health_failed, challenge_duration, current_streak, best_streak,
			average_attention_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Date, rec.Course, string(rec.Mode), rec.DurationSeconds, rec.XPEarned, rec.BaseXP, rec.StreakBonus,
		rec.StartTime.UTC(), rec.EndTime.UTC(), rec.OldLevel, rec.NewLevel, rec.OldXP, rec.NewXP, rec.LevelsGained,
		boolToInt(rec.ChallengeFailed), boolToInt(rec.HealthFailed), rec.ChallengeDuration, rec.CurrentStreak, rec.BestStreak,
		rec.AverageAttentionScore, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions first. A limit <= 0 returns all.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]*models.SessionRecord, error) {
	query := `SELECT id, date, course, mode, duration_seconds, xp_earned, base_xp, streak_bonus,
			start_time, end_time, old_level, new_level, old_xp, new_xp, levels_gained,
			challenge_failed, health_failed, challenge_duration, current_streak, best_streak,
			average_attention_score, created_at
		FROM sessions ORDER BY start_time DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.SessionRecord
	for rows.Next() {
		r := &models.SessionRecord{}
		var mode string
		if err := rows.Scan(&r.ID, &r.Date, &r.Course, &mode, &r.DurationSeconds, &r.XPEarned, &r.BaseXP, &r.StreakBonus,
			&r.StartTime, &r.EndTime, &r.OldLevel, &r.NewLevel, &r.OldXP, &r.NewXP, &r.LevelsGained,
			&r.ChallengeFailed, &r.HealthFailed, &r.ChallengeDuration, &r.CurrentStreak, &r.BestStreak,
			&r.AverageAttentionScore, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.Mode = models.SessionMode(mode)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SessionStats sums the whole history.
func (s *SQLiteStore) SessionStats(ctx context.Context) (SessionStats, error) {
	var st SessionStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN challenge_failed = 1 OR health_failed = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(duration_seconds), 0),
			COALESCE(SUM(xp_earned), 0)
		FROM sessions`,
	).Scan(&st.Sessions, &st.Failed, &st.StudySeconds, &st.XPEarned)
	if err != nil {
		return SessionStats{}, fmt.Errorf("session stats: %w", err)
	}
	return st, nil
}
