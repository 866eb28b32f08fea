package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/focuswin/internal/game"
	"github.com/joescharf/focuswin/internal/models"
	"github.com/joescharf/focuswin/internal/store"
	"github.com/joescharf/focuswin/internal/tracker"
)

const defaultHistoryLimit = 10

// Tracker is the part of the tracker the MCP tools drive.
type Tracker interface {
	Snapshot() tracker.Snapshot
	StartSession(ctx context.Context, mode models.SessionMode, course string, challengeSeconds int) (game.StartResult, error)
	StopSession(ctx context.Context) (*models.SessionSummary, error)
	Classify(appName, windowTitle string) models.FocusVerdict
}

// Server exposes focus tracking as MCP tools.
type Server struct {
	tracker Tracker
	store   store.Store
	version string
}

// NewServer creates the MCP server wrapper.
func NewServer(tr Tracker, s store.Store, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{tracker: tr, store: s, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("focuswin", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.statusTool())
	srv.AddTool(s.startSessionTool())
	srv.AddTool(s.stopSessionTool())
	srv.AddTool(s.listHistoryTool())
	srv.AddTool(s.listCoursesTool())
	srv.AddTool(s.classifyTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// focus_status
func (s *Server) statusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("focus_status",
		mcp.WithDescription("Current focus state, active window, health, XP, level, streak and session progress as JSON."),
	)
	return tool, s.handleStatus
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.tracker.Snapshot())
}

// focus_start_session
func (s *Server) startSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("focus_start_session",
		mcp.WithDescription("Start a study session. Challenge sessions need duration_minutes and fail if stopped early or if health reaches zero."),
		mcp.WithString("mode", mcp.Description("Session mode: normal (default) or challenge")),
		mcp.WithString("course", mcp.Description("Course being studied")),
		mcp.WithNumber("duration_minutes", mcp.Description("Challenge length in minutes")),
	)
	return tool, s.handleStartSession
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := models.SessionMode(request.GetString("mode", string(models.SessionModeNormal)))
	course := request.GetString("course", "")
	minutes := request.GetFloat("duration_minutes", 0)

	res, err := s.tracker.StartSession(ctx, mode, course, int(minutes*60))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start session: %v", err)), nil
	}
	return jsonResult(res)
}

// focus_stop_session
func (s *Server) stopSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("focus_stop_session",
		mcp.WithDescription("Stop the active session and return its summary: duration, XP earned, streak bonus and level changes."),
	)
	return tool, s.handleStopSession
}

func (s *Server) handleStopSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.tracker.StopSession(ctx)
	if errors.Is(err, game.ErrInvalidState) {
		return mcp.NewToolResultError("no active session"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to stop session: %v", err)), nil
	}
	return jsonResult(sum)
}

// focus_list_history
func (s *Server) listHistoryTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("focus_list_history",
		mcp.WithDescription("List completed sessions, newest first, with totals across all history."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions (default 10, 0 for all)")),
	)
	return tool, s.handleListHistory
}

func (s *Server) handleListHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultHistoryLimit)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}

	records, err := s.store.ListSessions(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}
	stats, err := s.store.SessionStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load stats: %v", err)), nil
	}
	if records == nil {
		records = []*models.SessionRecord{}
	}

	return jsonResult(struct {
		Sessions []*models.SessionRecord `json:"sessions"`
		Totals   store.SessionStats      `json:"totals"`
	}{records, stats})
}

// focus_list_courses
func (s *Server) listCoursesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("focus_list_courses",
		mcp.WithDescription("List the courses the user has studied, in the order they were added."),
	)
	return tool, s.handleListCourses
}

func (s *Server) handleListCourses(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list courses: %v", err)), nil
	}
	names := make([]string, len(courses))
	for i, c := range courses {
		names[i] = c.Name
	}
	return jsonResult(names)
}

// focus_classify
func (s *Server) classifyTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("focus_classify",
		mcp.WithDescription("Classify an app name and window title with the current keyword rules, without affecting the session."),
		mcp.WithString("window_title", mcp.Required(), mcp.Description("Window title text")),
		mcp.WithString("app_name", mcp.Description("Application name")),
	)
	return tool, s.handleClassify
}

func (s *Server) handleClassify(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("window_title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: window_title"), nil
	}
	return jsonResult(s.tracker.Classify(request.GetString("app_name", ""), title))
}
