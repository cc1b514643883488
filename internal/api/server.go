// Package api serves the engine's boundary operations over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/service"
	"github.com/julianstephens/gradually/internal/suggestion"
	"github.com/julianstephens/gradually/internal/validation"
)

// Engine is the service surface the handlers call
type Engine interface {
	Ping(ctx context.Context) error
	AddUser(ctx context.Context, username, timezone string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetBaseline(ctx context.Context, userID int64, timezone string, tasks []validation.TaskInput) ([]models.BaselineTask, error)
	GetBaseline(ctx context.Context, userID int64, timezone string) ([]service.BaselineTaskView, error)
	GenerateDailySchedule(ctx context.Context, userID int64, date string) (service.GenerateResult, error)
	GetDailySchedule(ctx context.Context, userID int64, timezone, date string) ([]service.EntryView, error)
	LogCompletions(ctx context.Context, userID int64, reqs []service.CompletionRequest) ([]models.DailyScheduleEntry, error)
	GetAdjustmentHistory(ctx context.Context, userID int64) ([]models.ScheduleAdjustment, error)
	SubmitAISuggestions(ctx context.Context, userID int64, date, timezone string, lines []string) (suggestion.SubmitResult, error)
	RequestSuggestions(ctx context.Context, userID int64) (suggestion.SubmitResult, error)
	RespondToSuggestion(ctx context.Context, userID int64, habit string, decision constants.SuggestionStatus) (suggestion.RespondResult, error)
	ListSuggestions(ctx context.Context, userID int64, status constants.SuggestionStatus) ([]models.HabitSuggestion, error)
}

// NewHandler builds the router. Every route except /healthz requires
// "Authorization: Bearer <token>".
func NewHandler(engine Engine, token string) http.Handler {
	h := &handlers{engine: engine}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(bearerAuth(token))

		r.Get("/users", h.listUsers)
		r.Post("/users", h.addUser)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Put("/baseline", h.setBaseline)
			r.Get("/baseline", h.getBaseline)
			r.Post("/schedule/generate", h.generate)
			r.Get("/schedule", h.getSchedule)
			r.Post("/completions", h.logCompletions)
			r.Get("/adjustments", h.adjustments)
			r.Get("/suggestions", h.listSuggestions)
			r.Post("/suggestions", h.submitSuggestions)
			r.Post("/suggestions/request", h.requestSuggestions)
			r.Post("/suggestions/respond", h.respondSuggestion)
		})
	})

	return r
}

// healthz reports 503 when the database cannot answer a query.
func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.engine.Ping(ctx); err != nil {
		logger.Warn("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable", "version": constants.Version, "error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": constants.Version})
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="`+constants.AppName+`"`)
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"elapsed", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("API stopped")
	return nil
}
