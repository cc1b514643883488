package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/gradually/internal/constants"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/service"
	"github.com/julianstephens/gradually/internal/storage"
	"github.com/julianstephens/gradually/internal/validation"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	engine Engine
}

type errorBody struct {
	Error     string                `json:"error"`
	Conflicts []validation.Conflict `json:"conflicts,omitempty"`
}

type addUserReq struct {
	Username string `json:"username"`
	Timezone string `json:"timezone"`
}

type baselineReq struct {
	Timezone string                 `json:"timezone"`
	Tasks    []validation.TaskInput `json:"tasks"`
}

type generateReq struct {
	Date string `json:"date"`
}

type submitReq struct {
	Date     string   `json:"date"`
	Timezone string   `json:"timezone"`
	Lines    []string `json:"lines"`
}

type respondReq struct {
	Habit    string                     `json:"habit"`
	Decision constants.SuggestionStatus `json:"decision"`
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.engine.ListUsers(r.Context())
	respond(w, r, http.StatusOK, users, err)
}

func (h *handlers) addUser(w http.ResponseWriter, r *http.Request) {
	var req addUserReq
	if !decode(w, r, &req, false) {
		return
	}
	user, err := h.engine.AddUser(r.Context(), req.Username, req.Timezone)
	respond(w, r, http.StatusCreated, user, err)
}

func (h *handlers) setBaseline(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req baselineReq
	if !decode(w, r, &req, false) {
		return
	}
	tasks, err := h.engine.SetBaseline(r.Context(), userID, req.Timezone, req.Tasks)
	respond(w, r, http.StatusOK, tasks, err)
}

func (h *handlers) getBaseline(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	tasks, err := h.engine.GetBaseline(r.Context(), userID, r.URL.Query().Get("timezone"))
	respond(w, r, http.StatusOK, tasks, err)
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req generateReq
	if !decode(w, r, &req, true) {
		return
	}
	res, err := h.engine.GenerateDailySchedule(r.Context(), userID, req.Date)
	respond(w, r, http.StatusOK, res, err)
}

func (h *handlers) getSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	entries, err := h.engine.GetDailySchedule(r.Context(), userID, q.Get("timezone"), q.Get("date"))
	respond(w, r, http.StatusOK, entries, err)
}

func (h *handlers) logCompletions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	var reqs []service.CompletionRequest
	if !decode(w, r, &reqs, false) {
		return
	}
	entries, err := h.engine.LogCompletions(r.Context(), userID, reqs)
	respond(w, r, http.StatusOK, entries, err)
}

func (h *handlers) adjustments(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	history, err := h.engine.GetAdjustmentHistory(r.Context(), userID)
	respond(w, r, http.StatusOK, history, err)
}

func (h *handlers) listSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	status := constants.SuggestionStatus(r.URL.Query().Get("status"))
	suggestions, err := h.engine.ListSuggestions(r.Context(), userID, status)
	respond(w, r, http.StatusOK, suggestions, err)
}

func (h *handlers) submitSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req submitReq
	if !decode(w, r, &req, false) {
		return
	}
	res, err := h.engine.SubmitAISuggestions(r.Context(), userID, req.Date, req.Timezone, req.Lines)
	respond(w, r, http.StatusOK, res, err)
}

func (h *handlers) requestSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	res, err := h.engine.RequestSuggestions(r.Context(), userID)
	respond(w, r, http.StatusOK, res, err)
}

func (h *handlers) respondSuggestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	var req respondReq
	if !decode(w, r, &req, false) {
		return
	}
	res, err := h.engine.RespondToSuggestion(r.Context(), userID, req.Habit, req.Decision)
	respond(w, r, http.StatusOK, res, err)
}

func pathUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid user id"})
		return 0, false
	}
	return id, true
}

// decode reads a JSON body into v. allowEmpty accepts a missing body.
func decode(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Conflicts: verr.Result.Conflicts})
	case apperrors.IsInvalid(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, storage.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrNoSource):
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: err.Error()})
	default:
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
