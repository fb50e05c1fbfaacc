//go:build integration
// +build integration

// End-to-end tests against a running API instance. Start the server (with the
// mock narrator) and run:
//
//	API_BASE_URL=http://localhost:8080 go test -tags integration ./integration/
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL string

func TestMain(m *testing.M) {
	baseURL = os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	fmt.Printf("Running Echofall integration tests against %s\n", baseURL)
	os.Exit(m.Run())
}

var client = &http.Client{Timeout: 30 * time.Second}

func post(t *testing.T, path string, body, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

type sessionResp struct {
	ID     string `json:"id"`
	Mode   string `json:"mode"`
	Player struct {
		Name   string `json:"name"`
		Health int    `json:"health"`
		Level  int    `json:"level"`
	} `json:"player"`
}

type actionResp struct {
	Description string   `json:"description"`
	Narrative   string   `json:"narrative"`
	Mode        string   `json:"mode"`
	Allowed     []string `json:"allowed_actions"`
}

func action(t *testing.T, sessionID, verb string, payload map[string]any) actionResp {
	t.Helper()
	var result actionResp
	status := post(t, "/v1/sessions/"+sessionID+"/actions", map[string]any{
		"action":  verb,
		"payload": payload,
	}, &result)
	if status != http.StatusOK {
		t.Fatalf("action %s: status %d", verb, status)
	}
	return result
}

func TestHealth(t *testing.T) {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}

func TestFullSession(t *testing.T) {
	var s sessionResp
	status := post(t, "/v1/sessions", map[string]any{
		"player_name": "Integration Tester",
		"class":       "vanguard",
		"origin":      "wasteland-born",
	}, &s)
	if status != http.StatusCreated {
		t.Fatalf("create session: status %d", status)
	}
	if s.Mode != "exploration" {
		t.Fatalf("new session mode = %s", s.Mode)
	}

	result := action(t, s.ID, "examine", nil)
	if result.Narrative == "" {
		t.Error("examine returned no narrative")
	}

	result = action(t, s.ID, "move", map[string]any{"location_id": "frozen_cathedral_main_hall"})
	if result.Mode != "exploration" {
		t.Fatalf("mode after move = %s", result.Mode)
	}

	// Talking to the archivist opens dialogue; leaving returns.
	result = action(t, s.ID, "talk", map[string]any{"npc_id": "frosted_archivist"})
	if result.Mode != "dialogue" {
		t.Fatalf("mode after talk = %s", result.Mode)
	}
	action(t, s.ID, "respond", map[string]any{"text": "What is this place?"})
	result = action(t, s.ID, "leave", nil)
	if result.Mode != "exploration" {
		t.Fatalf("mode after leave = %s", result.Mode)
	}

	// Entering the eastern corridor starts an ambush.
	result = action(t, s.ID, "move", map[string]any{"location_id": "frozen_cathedral_eastern_corridor"})
	if result.Mode != "combat" && result.Mode != "exploration" {
		t.Fatalf("mode after entering corridor = %s", result.Mode)
	}
	// Fight or flee until back in exploration; bounded so a bad server
	// cannot hang the suite.
	for i := 0; i < 100 && result.Mode == "combat"; i++ {
		result = action(t, s.ID, "attack", nil)
	}
	if result.Mode != "exploration" {
		t.Fatalf("combat did not resolve, mode = %s", result.Mode)
	}

	// Clean up.
	req, err := http.NewRequest(http.MethodDelete, baseURL+"/v1/sessions/"+s.ID, nil)
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
}
