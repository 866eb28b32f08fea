package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/joescharf/focuswin/internal/camera"
	"github.com/joescharf/focuswin/internal/game"
	"github.com/joescharf/focuswin/internal/models"
	"github.com/joescharf/focuswin/internal/monitor"
	"github.com/joescharf/focuswin/internal/store"
	"github.com/joescharf/focuswin/internal/tracker"
)

const defaultHistoryLimit = 20

// Controller is the tracker surface the API drives.
type Controller interface {
	Snapshot() tracker.Snapshot
	StartSession(ctx context.Context, mode models.SessionMode, course string, challengeSeconds int) (game.StartResult, error)
	StopSession(ctx context.Context) (*models.SessionSummary, error)
	PauseSession() error
	ResumeSession() error
	MarkBreakTaken() error
	ToggleCamera(enabled bool)
	CalibrateCamera() (camera.Calibration, error)
	Analytics() monitor.AnalyticsSummary
	Classify(appName, windowTitle string) models.FocusVerdict
}

// Server provides the REST API handlers.
type Server struct {
	tracker Controller
	store   store.Store
	camera  *camera.Hub
	metrics http.Handler
}

// NewServer creates a new API server. metricsHandler may be nil.
func NewServer(tr Controller, s store.Store, hub *camera.Hub, metricsHandler http.Handler) *Server {
	return &Server{tracker: tr, store: s, camera: hub, metrics: metricsHandler}
}

// Router returns an http.Handler for the API routes. Requests that match no
// route go to fallback when it is non-nil.
func (s *Server) Router(fallback http.Handler) http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	if fallback != nil {
		mux.Handle("/", fallback)
	}
	return corsMiddleware(mux)
}

// Register adds the API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/status", s.status)

	mux.HandleFunc("POST /api/v1/session/start", s.startSession)
	mux.HandleFunc("POST /api/v1/session/stop", s.stopSession)
	mux.HandleFunc("POST /api/v1/session/pause", s.pauseSession)
	mux.HandleFunc("POST /api/v1/session/resume", s.resumeSession)
	mux.HandleFunc("POST /api/v1/break", s.takeBreak)

	mux.HandleFunc("POST /api/v1/camera/toggle", s.toggleCamera)
	mux.HandleFunc("POST /api/v1/camera/calibrate", s.calibrateCamera)
	mux.HandleFunc("POST /api/v1/camera/signal", s.cameraSignal)
	mux.HandleFunc("GET /api/v1/camera/analytics", s.cameraAnalytics)

	mux.HandleFunc("GET /api/v1/courses", s.listCourses)
	mux.HandleFunc("POST /api/v1/courses", s.addCourse)

	mux.HandleFunc("GET /api/v1/history", s.listHistory)
	mux.HandleFunc("GET /api/v1/history/stats", s.historyStats)

	mux.HandleFunc("POST /api/v1/classify", s.classify)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps engine sentinels to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// --- Status & session ---

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

type startRequest struct {
	Mode            models.SessionMode `json:"mode"`
	Course          string             `json:"course"`
	DurationMinutes float64            `json:"duration_minutes"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	if req.Mode == "" {
		req.Mode = models.SessionModeNormal
	}

	res, err := s.tracker.StartSession(r.Context(), req.Mode, req.Course, int(req.DurationMinutes*60))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	sum, err := s.tracker.StopSession(r.Context())
	if errors.Is(err, game.ErrInvalidState) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) pauseSession(w http.ResponseWriter, _ *http.Request) {
	s.command(w, s.tracker.PauseSession)
}

func (s *Server) resumeSession(w http.ResponseWriter, _ *http.Request) {
	s.command(w, s.tracker.ResumeSession)
}

func (s *Server) takeBreak(w http.ResponseWriter, _ *http.Request) {
	s.command(w, s.tracker.MarkBreakTaken)
}

// command runs a state change and replies with the resulting snapshot.
func (s *Server) command(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

// --- Camera ---

func (s *Server) toggleCamera(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, `body must be {"enabled": true|false}`)
		return
	}
	s.tracker.ToggleCamera(*req.Enabled)
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) calibrateCamera(w http.ResponseWriter, _ *http.Request) {
	cal, err := s.tracker.CalibrateCamera()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (s *Server) cameraSignal(w http.ResponseWriter, r *http.Request) {
	if s.camera == nil {
		writeError(w, http.StatusServiceUnavailable, "camera input not configured")
		return
	}
	var sig camera.Signal
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if sig.AttentionScore < 0 || sig.AttentionScore > 100 {
		writeError(w, http.StatusBadRequest, "attention_score must be within [0, 100]")
		return
	}
	if !s.camera.Publish(sig) {
		writeError(w, http.StatusConflict, "camera is disabled")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) cameraAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Analytics())
}

// --- Courses & history ---

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.store.ListCourses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) addCourse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	c, created, err := s.store.AddCourse(r.Context(), req.Name)
	if errors.Is(err, store.ErrEmptyName) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, c)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.store.ListSessions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*models.SessionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) historyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.SessionStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- Debug ---

func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppName     string `json:"app_name"`
		WindowTitle string `json:"window_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.AppName+req.WindowTitle) == "" {
		writeError(w, http.StatusBadRequest, "app_name or window_title is required")
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Classify(req.AppName, req.WindowTitle))
}
