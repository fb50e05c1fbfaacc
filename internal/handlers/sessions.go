package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/emberworks/echofall/internal/engine"
	"github.com/emberworks/echofall/pkg/mode"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SessionsHandler serves the session lifecycle and gameplay endpoints.
type SessionsHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSessionsHandler(eng *engine.Engine, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		engine: eng,
		logger: logger,
	}
}

// CreateSessionRequest defines the request body for starting a new game.
type CreateSessionRequest struct {
	PlayerName string `json:"player_name"`
	Class      string `json:"class"`
	Origin     string `json:"origin"`
}

// ActionRequest defines the request body for submitting a player action.
type ActionRequest struct {
	Action  string         `json:"action"`
	Payload engine.Payload `json:"payload,omitempty"`
}

// TransitionRequest defines the request body for an explicit mode change.
type TransitionRequest struct {
	Mode string `json:"mode"`
	Note string `json:"note,omitempty"`
}

// ServeHTTP routes session requests.
// Routes:
// POST /v1/sessions               - Create a new session
// GET /v1/sessions/{id}           - Read a session
// DELETE /v1/sessions/{id}        - End a session
// POST /v1/sessions/{id}/actions  - Submit a player action
// POST /v1/sessions/{id}/mode     - Request an explicit mode transition
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, sessionID)
		case http.MethodDelete:
			h.handleDelete(w, r, sessionID)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}
	switch parts[1] {
	case "actions":
		h.handleAction(w, r, sessionID)
	case "mode":
		h.handleTransition(w, r, sessionID)
	default:
		h.writeError(w, http.StatusNotFound, "Unknown session endpoint")
	}
}

func (h *SessionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.PlayerName == "" || req.Class == "" || req.Origin == "" {
		h.writeError(w, http.StatusBadRequest, "player_name, class, and origin are required")
		return
	}

	s, err := h.engine.CreateSession(r.Context(), req.PlayerName, req.Class, req.Origin)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(s); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionsHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.engine.GetSession(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(s); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionsHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.engine.EndSession(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) handleAction(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	action, err := mode.ParseAction(req.Action)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.ProcessAction(r.Context(), id, action, req.Payload)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("Failed to encode action response", "error", err)
	}
}

func (h *SessionsHandler) handleTransition(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	target, err := mode.Parse(req.Mode)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.TransitionMode(r.Context(), id, target, req.Note)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("Failed to encode transition response", "error", err)
	}
}

// writeEngineError maps engine taxonomy errors to HTTP statuses. Taxonomy
// errors are recoverable request failures; anything else is a 500.
func (h *SessionsHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidAction),
		errors.Is(err, engine.ErrStateTransition):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrInsufficientResource):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *SessionsHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
