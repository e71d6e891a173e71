package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitefight-arena/internal/config"
	"github.com/bitefight-arena/internal/ledger"
	"github.com/bitefight-arena/internal/service"
	"github.com/bitefight-arena/internal/websocket"
)

const testAdminToken = "test-token"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := websocket.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	cfg := config.GameConfig{
		MaxHP:          100,
		MinPlayers:     2,
		LobbyCountdown: time.Hour,
		DefaultAnte:    100,
	}
	svc := service.NewArenaService(ledger.NewMemoryStore(), nil, hub, cfg, logger)
	t.Cleanup(svc.Shutdown)

	return NewHandler(svc, hub, testAdminToken, logger).Router()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, admin bool) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Token", testAdminToken)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func playerBody(id int64, name string, bot bool) map[string]interface{} {
	return map[string]interface{}{
		"player": map[string]interface{}{"id": id, "name": name, "bot": bot},
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/health", nil, false)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected healthy response, got %d %+v", rec.Code, resp)
	}
}

func TestLobbyLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/rooms/room-1/lobby", playerBody(1, "Alice", false), false)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected lobby opened, got %d %+v", rec.Code, resp)
	}

	// Second lobby in the same room conflicts.
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/rooms/room-1/lobby", playerBody(2, "Bob", false), false)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	// Bots cannot join.
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/rooms/room-1/join", playerBody(9, "Helper", true), false)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for bot join, got %d", rec.Code)
	}

	rec, resp = doJSON(t, router, http.MethodPost, "/api/v1/rooms/room-1/join", playerBody(2, "Bob", false), false)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected join, got %d %+v", rec.Code, resp)
	}

	// Casual sessions have no pot.
	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/rooms/room-1/pot", nil, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for casual pot, got %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/rooms/room-1/stop", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected stop to succeed, got %d", rec.Code)
	}

	// Missing or malformed body is a bad request.
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/rooms/room-1/lobby", map[string]string{}, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty player, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)
	body := map[string]interface{}{"name": "Cup", "entry_fee": 100}

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/tournament/", body, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/tournament/", body, true)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected tournament start, got %d %+v", rec.Code, resp)
	}

	// Public read works without the token.
	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/tournament/", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reading tournament, got %d", rec.Code)
	}
}

func TestNotFoundMappings(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/tournament/leaderboard", nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with no active tournament, got %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/prizes/42/delivered", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown prize, got %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/rooms/nowhere/begin", nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for room without session, got %d", rec.Code)
	}
}
