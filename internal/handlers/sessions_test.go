package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberworks/echofall/internal/content"
	"github.com/emberworks/echofall/internal/engine"
	"github.com/emberworks/echofall/internal/services"
	"github.com/emberworks/echofall/internal/storage"
	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/session"
)

func newTestHandler(t *testing.T) (*SessionsHandler, *engine.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(storage.NewMemoryStore(), services.NewMockNarrative(), content.NewRegistry(), logger, engine.Options{})
	return NewSessionsHandler(eng, logger), eng
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func createSession(t *testing.T, h *SessionsHandler) session.Session {
	t.Helper()
	rr := postJSON(t, h, "/v1/sessions", CreateSessionRequest{
		PlayerName: "Tester",
		Class:      "vanguard",
		Origin:     "wasteland-born",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var s session.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	return s
}

func TestCreateSession(t *testing.T) {
	h, _ := newTestHandler(t)

	s := createSession(t, h)
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, mode.Exploration, s.Mode)
	assert.Equal(t, "Tester", s.Player.Name)
	assert.Equal(t, 60, s.Player.MaxHealth)
}

func TestCreateSessionValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := postJSON(t, h, "/v1/sessions", CreateSessionRequest{PlayerName: "Tester"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, h, "/v1/sessions", CreateSessionRequest{
		PlayerName: "Tester", Class: "warlock", Origin: "wasteland-born",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte("not json")))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.NotEmpty(t, errResp.Error)
}

func TestReadSession(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+s.ID.String(), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var loaded session.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loaded))
	assert.Equal(t, s.ID, loaded.ID)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+uuid.NewString(), nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteSession(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h)

	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+s.ID.String(), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+s.ID.String(), nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitAction(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h)

	rr := postJSON(t, h, "/v1/sessions/"+s.ID.String()+"/actions", ActionRequest{
		Action:  "move",
		Payload: engine.Payload{LocationID: "frozen_cathedral_main_hall"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result engine.ActionResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, mode.Exploration, result.Mode)
	assert.NotEmpty(t, result.Description)
	assert.NotEmpty(t, result.AllowedActions)
}

func TestSubmitActionErrors(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h)
	base := "/v1/sessions/" + s.ID.String() + "/actions"

	// Unknown action word.
	rr := postJSON(t, h, base, ActionRequest{Action: "dance"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Known action, illegal in the current mode.
	rr = postJSON(t, h, base, ActionRequest{Action: "attack"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown move target.
	rr = postJSON(t, h, base, ActionRequest{
		Action:  "move",
		Payload: engine.Payload{LocationID: "the_moon"},
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Unknown session.
	rr = postJSON(t, h, "/v1/sessions/"+uuid.NewString()+"/actions", ActionRequest{Action: "examine"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInsufficientResourceMapsToConflict(t *testing.T) {
	h, eng := newTestHandler(t)
	s := createSession(t, h)
	ctx := context.Background()

	// Walk to the beacon without the key it requires.
	_, err := eng.ProcessAction(ctx, s.ID, mode.ActionMove, engine.Payload{LocationID: "frozen_cathedral_main_hall"})
	require.NoError(t, err)

	rr := postJSON(t, h, "/v1/sessions/"+s.ID.String()+"/actions", ActionRequest{
		Action:  "interact",
		Payload: engine.Payload{ObjectID: "frozen_beacon"},
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestModeTransitionEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h)
	path := "/v1/sessions/" + s.ID.String() + "/mode"

	rr := postJSON(t, h, path, TransitionRequest{Mode: "inventory"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result engine.ActionResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, mode.Inventory, result.Mode)

	// Inventory cannot jump straight to Dialogue.
	rr = postJSON(t, h, path, TransitionRequest{Mode: "dialogue"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, h, path, TransitionRequest{Mode: "limbo"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+s.ID.String()+"/actions", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req = httptest.NewRequest(http.MethodPut, "/v1/sessions/"+s.ID.String(), nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestUnknownSessionEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h)

	rr := postJSON(t, h, "/v1/sessions/"+s.ID.String()+"/teleport", struct{}{})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
