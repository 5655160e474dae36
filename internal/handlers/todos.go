package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	logpkg "github.com/benvon/memtodo/internal/logger"
	"github.com/benvon/memtodo/internal/services/todos"
	"github.com/benvon/memtodo/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// MaxTodoTitleLength is the maximum length for todo titles
	MaxTodoTitleLength = 10000
	// MaxTagLength is the maximum length for a single tag
	MaxTagLength = MaxTodoTitleLength
)

// TodoHandler handles todo-related requests
type TodoHandler struct {
	service *todos.Service
	logger  *zap.Logger
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(service *todos.Service, logger *zap.Logger) *TodoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoHandler{service: service, logger: logger}
}

// RegisterRoutes registers todo routes on the given router.
// The router should already carry the /todos prefix.
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTodos).Methods(http.MethodGet)
	r.HandleFunc("", h.CreateTodo).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.GetTodo).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.DeleteTodo).Methods(http.MethodDelete)
	r.HandleFunc("/{id}/toggle", h.ToggleTodo).Methods(http.MethodPost)
	r.HandleFunc("/{id}/tag", h.AddTag).Methods(http.MethodPost)
	r.HandleFunc("/{id}/flag", h.FlagTodo).Methods(http.MethodPost)
	r.HandleFunc("/{id}/flag", h.UnflagTodo).Methods(http.MethodDelete)
	r.HandleFunc("/{id}/history", h.GetHistory).Methods(http.MethodGet)
}

// CreateTodoRequest represents a create todo request
type CreateTodoRequest struct {
	Title string `json:"title" validate:"notblank,max=10000"`
}

// AddTagRequest represents an add tag request
type AddTagRequest struct {
	Tag string `json:"tag" validate:"notblank,max=10000"`
}

// FlagResponse acknowledges a flag request
type FlagResponse struct {
	OK bool `json:"ok"`
}

// ListTodos lists all todos, most recent first
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.ListTodos(r.Context()))
}

// CreateTodo creates a new todo
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, validation.Message(err))
		return
	}

	todo, err := h.service.AddTodo(r.Context(), req.Title)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, todo)
}

// GetTodo retrieves a todo by id
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := h.service.GetTodo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// ToggleTodo flips the done state of a todo
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := h.service.ToggleTodo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// AddTag attaches a tag to a todo. A missing tag is reported before an
// unknown id.
func (h *TodoHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req AddTagRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	req.Tag = validation.SanitizeText(req.Tag)
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, validation.Message(err))
		return
	}

	todo, err := h.service.AddTag(r.Context(), mux.Vars(r)["id"], req.Tag)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// FlagTodo marks a todo for review
func (h *TodoHandler) FlagTodo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.FlagTodo(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FlagResponse{OK: true})
}

// UnflagTodo clears the review mark of a todo
func (h *TodoHandler) UnflagTodo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UnflagTodo(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteTodo deletes a todo
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTodo(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetHistory returns the change history, metadata and flag state of a todo
func (h *TodoHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// decodeBody decodes the JSON body into dst. An empty body decodes as {}.
// It reports false after writing an error response.
func (h *TodoHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		respondJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
		return false
	}

	h.logger.Debug("invalid_request_body",
		zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		zap.Error(err),
	)
	respondJSONError(w, http.StatusBadRequest, "invalid request body")
	return false
}

// respondServiceError maps service errors onto HTTP responses
func (h *TodoHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *todos.ValidationError
	switch {
	case errors.Is(err, todos.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "not found")
	case errors.As(err, &validationErr):
		respondJSONError(w, http.StatusBadRequest, validationErr.Error())
	default:
		h.logger.Error("todo_operation_failed",
			zap.String("method", r.Method),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
