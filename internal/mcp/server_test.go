package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/focuswin/internal/game"
	"github.com/joescharf/focuswin/internal/models"
	"github.com/joescharf/focuswin/internal/rules"
	"github.com/joescharf/focuswin/internal/store"
	"github.com/joescharf/focuswin/internal/tracker"
)

// ---------------------------------------------------------------------------
// Mock tracker
// ---------------------------------------------------------------------------

type mockTracker struct {
	snap    tracker.Snapshot
	active  bool
	started []string

	startErr error
}

func (m *mockTracker) Snapshot() tracker.Snapshot { return m.snap }

func (m *mockTracker) StartSession(_ context.Context, mode models.SessionMode, course string, secs int) (game.StartResult, error) {
	if m.startErr != nil {
		return game.StartResult{}, m.startErr
	}
	m.active = true
	m.started = append(m.started, fmt.Sprintf("%s/%s/%d", mode, course, secs))
	return game.StartResult{Streak: 3, StreakIncreased: true}, nil
}

func (m *mockTracker) StopSession(_ context.Context) (*models.SessionSummary, error) {
	if !m.active {
		return nil, fmt.Errorf("%w: no active session", game.ErrInvalidState)
	}
	m.active = false
	return &models.SessionSummary{Mode: models.SessionModeNormal, DurationSeconds: 120, XPEarned: 120}, nil
}

func (m *mockTracker) Classify(appName, windowTitle string) models.FocusVerdict {
	return rules.NewDefaultEngine().Classify(appName, windowTitle)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T) (*Server, *mockTracker, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	mt := &mockTracker{snap: tracker.Snapshot{AppName: "Code", FocusState: models.FocusStateFocused, Level: 2}}
	return NewServer(mt, s, "test"), mt, s
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcpgo.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target), "failed to parse result JSON: %s", text)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestMCPServer(t *testing.T) {
	srv, _, _ := newTestServer(t)
	require.NotNil(t, srv.MCPServer())
}

func TestHandleStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result, err := srv.handleStatus(context.Background(), callToolReq("focus_status", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var snap tracker.Snapshot
	resultJSON(t, result, &snap)
	assert.Equal(t, "Code", snap.AppName)
	assert.Equal(t, 2, snap.Level)
}

func TestHandleStartSession(t *testing.T) {
	srv, mt, _ := newTestServer(t)

	result, err := srv.handleStartSession(context.Background(), callToolReq("focus_start_session", map[string]any{
		"mode":             "challenge",
		"course":           "Physics",
		"duration_minutes": 1.5,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var res game.StartResult
	resultJSON(t, result, &res)
	assert.Equal(t, 3, res.Streak)
	assert.Equal(t, []string{"challenge/Physics/90"}, mt.started)
}

func TestHandleStartSession_DefaultsToNormal(t *testing.T) {
	srv, mt, _ := newTestServer(t)

	result, err := srv.handleStartSession(context.Background(), callToolReq("focus_start_session", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, []string{"normal//0"}, mt.started)
}

func TestHandleStartSession_Error(t *testing.T) {
	srv, mt, _ := newTestServer(t)
	mt.startErr = fmt.Errorf("%w: session already active", game.ErrInvalidState)

	result, err := srv.handleStartSession(context.Background(), callToolReq("focus_start_session", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "session already active")
}

func TestHandleStopSession(t *testing.T) {
	srv, mt, _ := newTestServer(t)

	result, err := srv.handleStopSession(context.Background(), callToolReq("focus_stop_session", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "no active session", resultText(t, result))

	mt.active = true
	result, err = srv.handleStopSession(context.Background(), callToolReq("focus_stop_session", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var sum models.SessionSummary
	resultJSON(t, result, &sum)
	assert.Equal(t, 120, sum.DurationSeconds)
}

func TestHandleListHistory(t *testing.T) {
	srv, _, s := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, s.RecordSession(ctx, &models.SessionRecord{SessionSummary: models.SessionSummary{
			Course:          "Chemistry",
			Mode:            models.SessionModeNormal,
			DurationSeconds: 600,
			XPEarned:        600,
			StartTime:       base.Add(time.Duration(i) * time.Hour),
			EndTime:         base.Add(time.Duration(i)*time.Hour + 10*time.Minute),
		}}))
	}

	result, err := srv.handleListHistory(ctx, callToolReq("focus_list_history", map[string]any{"limit": 2}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Sessions []models.SessionRecord `json:"sessions"`
		Totals   store.SessionStats     `json:"totals"`
	}
	resultJSON(t, result, &out)
	require.Len(t, out.Sessions, 2)
	assert.True(t, out.Sessions[0].StartTime.After(out.Sessions[1].StartTime))
	assert.Equal(t, 3, out.Totals.Sessions)
	assert.Equal(t, 1800, out.Totals.StudySeconds)
}

func TestHandleListHistory_NegativeLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result, err := srv.handleListHistory(context.Background(), callToolReq("focus_list_history", map[string]any{"limit": -1}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleListCourses(t *testing.T) {
	srv, _, s := newTestServer(t)
	ctx := context.Background()

	result, err := srv.handleListCourses(ctx, callToolReq("focus_list_courses", nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", resultText(t, result))

	_, _, err = s.AddCourse(ctx, "Algebra")
	require.NoError(t, err)
	_, _, err = s.AddCourse(ctx, "History")
	require.NoError(t, err)

	result, err = srv.handleListCourses(ctx, callToolReq("focus_list_courses", nil))
	require.NoError(t, err)
	var names []string
	resultJSON(t, result, &names)
	assert.Equal(t, []string{"Algebra", "History"}, names)
}

func TestHandleClassify(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result, err := srv.handleClassify(context.Background(), callToolReq("focus_classify", map[string]any{
		"app_name":     "Firefox",
		"window_title": "Reddit - front page",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var v models.FocusVerdict
	resultJSON(t, result, &v)
	assert.Equal(t, models.FocusStateDistracted, v.State)

	result, err = srv.handleClassify(context.Background(), callToolReq("focus_classify", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
