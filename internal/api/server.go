// Package api serves the content tree, answers and stars as JSON over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/p-n-ai/pai-learn/internal/content"
	"github.com/p-n-ai/pai-learn/internal/learning"
	"github.com/p-n-ai/pai-learn/internal/report"
)

const (
	healthTimeout = 2 * time.Second
	maxBodyBytes  = 1 << 16
	xlsxType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// HealthChecker is a dependency probed by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the server.
type Config struct {
	Provider *content.Provider
	// Checks are probed by /readyz in addition to the provider state.
	Checks map[string]HealthChecker
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server routes HTTP requests to the content provider.
type Server struct {
	provider *content.Provider
	checks   map[string]HealthChecker
	metrics  http.Handler

	reloadMu sync.Mutex
}

// NewServer creates a server over cfg.Provider.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("content provider is nil")
	}
	return &Server{
		provider: cfg.Provider,
		checks:   cfg.Checks,
		metrics:  cfg.Metrics,
	}, nil
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	mux.HandleFunc("GET /api/modules", s.handleModules)
	mux.HandleFunc("GET /api/modules/{id}", s.handleModule)
	mux.HandleFunc("GET /api/lessons", s.handleLessons)
	mux.HandleFunc("GET /api/lessons/{id}", s.handleLesson)
	mux.HandleFunc("GET /api/lessons/{id}/summary", s.handleLessonSummary)
	mux.HandleFunc("POST /api/questions/{id}/answer", s.handleAnswer)
	mux.HandleFunc("GET /api/questions/{id}/attempts", s.handleAttempts)
	mux.HandleFunc("GET /api/stars", s.handleStars)
	mux.HandleFunc("PUT /api/stars/{id}", s.handleStar)
	mux.HandleFunc("DELETE /api/stars/{id}", s.handleUnstar)
	mux.HandleFunc("POST /api/content/reload", s.handleReload)
	mux.HandleFunc("GET /api/reports/progress.xlsx", s.handleProgressReport)

	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if state := s.provider.State(); state != content.Ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "content " + state.String(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	for name, check := range s.checks {
		if err := check.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": name + " unavailable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	modules := s.provider.TopLevelModules()
	out := make([]moduleView, 0, len(modules))
	for _, m := range modules {
		out = append(out, moduleOf(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, ok := s.provider.FindModule(id)
	if !ok {
		writeError(w, http.StatusNotFound, "module not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, moduleOf(m))
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	var lessons []*learning.Lesson
	if tag := r.URL.Query().Get("tag"); tag != "" {
		lessons = s.provider.LessonsByTag(tag)
	} else {
		lessons = s.provider.Lessons()
	}
	writeJSON(w, http.StatusOK, lessonSummaries(lessons))
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lesson(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lessonOf(l))
}

func (s *Server) handleLessonSummary(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lesson(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": l.ID(), "summary": l.Summary()})
}

func (s *Server) lesson(w http.ResponseWriter, r *http.Request) (*learning.Lesson, bool) {
	id := r.PathValue("id")
	l, ok := s.provider.GetLesson(id)
	if !ok {
		writeError(w, http.StatusNotFound, "lesson not found: "+id)
	}
	return l, ok
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Answer == "" {
		writeError(w, http.StatusBadRequest, "answer is required")
		return
	}

	id := r.PathValue("id")
	q, correct, err := s.provider.SubmitAnswer(id, req.Answer)
	switch {
	case errors.Is(err, content.ErrQuestionNotFound):
		writeError(w, http.StatusNotFound, "question not found: "+id)
		return
	case err != nil:
		slog.Error("failed to submit answer", "question_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record answer")
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		QuestionID:  q.ID(),
		Correct:     correct,
		State:       q.AnswerState(),
		Explanation: q.Explanation(),
	})
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.provider.GetQuestion(id); !ok {
		writeError(w, http.StatusNotFound, "question not found: "+id)
		return
	}

	attempts, err := s.provider.Attempts(id)
	if err != nil {
		slog.Error("failed to load attempts", "question_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load attempts")
		return
	}

	out := make([]attemptView, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptView{
			Answer:    a.Answer,
			Correct:   a.Correct,
			CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStars(w http.ResponseWriter, r *http.Request) {
	var modules []string
	var walk func(ms []*learning.Module)
	walk = func(ms []*learning.Module) {
		for _, m := range ms {
			if m.IsStarred() {
				modules = append(modules, m.ID())
			}
			walk(m.SubModules())
		}
	}
	walk(s.provider.TopLevelModules())
	if modules == nil {
		modules = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lessons": lessonSummaries(s.provider.StarredLessons()),
		"modules": modules,
	})
}

// starrable is implemented by lessons and modules.
type starrable interface {
	Star() error
	Unstar() error
}

func (s *Server) starTarget(id string) (starrable, bool) {
	if l, ok := s.provider.GetLesson(id); ok {
		return l, true
	}
	if m, ok := s.provider.FindModule(id); ok {
		return m, true
	}
	return nil, false
}

func (s *Server) handleStar(w http.ResponseWriter, r *http.Request) {
	s.setStar(w, r, true)
}

func (s *Server) handleUnstar(w http.ResponseWriter, r *http.Request) {
	s.setStar(w, r, false)
}

func (s *Server) setStar(w http.ResponseWriter, r *http.Request, starred bool) {
	id := r.PathValue("id")
	target, ok := s.starTarget(id)
	if !ok {
		writeError(w, http.StatusNotFound, "content not found: "+id)
		return
	}

	var err error
	if starred {
		err = target.Star()
	} else {
		err = target.Unstar()
	}
	if err != nil {
		slog.Error("failed to update star", "id", id, "starred", starred, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update star")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reload runs a content load, waiting for any load already in progress.
func (s *Server) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	return s.provider.Initialize(ctx)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if !s.reloadMu.TryLock() {
		writeError(w, http.StatusConflict, "reload already in progress")
		return
	}
	defer s.reloadMu.Unlock()

	err := s.provider.Initialize(r.Context())

	resp := reloadResponse{
		State:   s.provider.State().String(),
		Lessons: len(s.provider.Lessons()),
		Modules: len(s.provider.TopLevelModules()),
		Skipped: []skipView{},
	}
	for _, f := range s.provider.Failures() {
		resp.Skipped = append(resp.Skipped, skipView{Kind: f.Kind, ID: f.ID, Error: f.Err.Error()})
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleProgressReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteProgress(&buf, s.provider.TopLevelModules(), s.provider.Lessons()); err != nil {
		slog.Error("failed to build progress report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="progress.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
