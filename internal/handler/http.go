package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bitefight-arena/internal/domain"
	"github.com/bitefight-arena/internal/service"
	"github.com/bitefight-arena/internal/websocket"
)

// Handler provides HTTP handlers for the arena API
type Handler struct {
	service    *service.ArenaService
	hub        *websocket.Hub
	adminToken string
	logger     *slog.Logger
}

// NewHandler creates a new HTTP handler. An empty adminToken leaves the
// admin routes open, for development.
func NewHandler(service *service.ArenaService, hub *websocket.Hub, adminToken string, logger *slog.Logger) *Handler {
	return &Handler{
		service:    service,
		hub:        hub,
		adminToken: adminToken,
		logger:     logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// playerRequest is the body for lobby and join calls.
type playerRequest struct {
	Player domain.Player `json:"player"`
}

// tournamentRequest is the body for starting a tournament.
type tournamentRequest struct {
	Name        string `json:"name"`
	EntryFee    int    `json:"entry_fee"`
	GamesTarget int    `json:"games_target"`
	RoomID      string `json:"room_id"`
}

// prizeModeRequest is the body for prize mode changes.
type prizeModeRequest struct {
	Mode           domain.PrizeMode `json:"mode"`
	WishlistCount  int              `json:"wishlist_count"`
	CreditsPercent int              `json:"credits_percent"`
}

// anteRequest is the body for entry fee changes.
type anteRequest struct {
	EntryFee int    `json:"entry_fee"`
	RoomID   string `json:"room_id,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Room game operations
		r.Route("/rooms/{roomID}", func(r chi.Router) {
			r.Post("/lobby", h.StartLobby)
			r.Post("/join", h.Join)
			r.Post("/begin", h.Begin)
			r.Post("/stop", h.Stop)
			r.Get("/pot", h.GetPot)
			r.Get("/players/{playerID}/profile", h.GetProfile)
		})

		// Tournament operations
		r.Route("/tournament", func(r chi.Router) {
			r.Get("/", h.GetTournament)
			r.Get("/leaderboard", h.GetLeaderboard)
			r.Get("/live", h.GetLiveLeaderboard)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin)
				r.Post("/", h.StartTournament)
				r.Delete("/", h.EndTournament)
				r.Put("/prize-mode", h.SetPrizeMode)
				r.Put("/ante", h.SetAnte)
			})
		})

		// Prize queue
		r.Route("/prizes", func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/", h.GetPrizeQueue)
			r.Post("/{prizeID}/delivered", h.MarkPrizeDelivered)
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID, X-Admin-Token")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAdmin guards the operator routes with a shared token.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken != "" && r.Header.Get("X-Admin-Token") != h.adminToken {
			h.writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps domain errors onto HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case domain.IsConflictError(err):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrInvalidAnte) || errors.Is(err, domain.ErrInvalidPrizeMode) || errors.Is(err, domain.ErrNotTournament):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// StartLobby opens a lobby in the room
func (h *Handler) StartLobby(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Player.ID == 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	info, err := h.service.StartLobby(r.Context(), roomID, req.Player)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, info)
}

// Join adds a player to the room's open lobby
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Player.ID == 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	count, err := h.service.Join(r.Context(), roomID, req.Player)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, map[string]int{"players": count})
}

// Begin closes the lobby early and starts the match
func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	if err := h.service.Begin(r.Context(), roomID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "started"})
}

// Stop aborts the room's session
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	if err := h.service.Stop(r.Context(), roomID, "stopped by request"); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "stopped"})
}

// GetPot reports the tournament pot collected by the room's session
func (h *Handler) GetPot(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	pot, err := h.service.Pot(r.Context(), roomID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, pot)
}

// GetProfile returns a player's lifetime record
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	playerID, err := strconv.ParseInt(chi.URLParam(r, "playerID"), 10, 64)
	if err != nil || playerID == 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	profile, err := h.service.Profile(r.Context(), roomID, playerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, profile)
}

// GetTournament returns the tournament document, active or not
func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.TournamentInfo(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, state)
}

// StartTournament activates a tournament
func (h *Handler) StartTournament(w http.ResponseWriter, r *http.Request) {
	var req tournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	state, err := h.service.StartTournament(r.Context(), req.Name, req.EntryFee, req.GamesTarget, req.RoomID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, state)
}

// EndTournament closes the active tournament
func (h *Handler) EndTournament(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.EndTournament(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, result)
}

// SetPrizeMode updates how future wins are rewarded
func (h *Handler) SetPrizeMode(w http.ResponseWriter, r *http.Request) {
	var req prizeModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	state, err := h.service.SetPrizeMode(r.Context(), req.Mode, req.WishlistCount, req.CreditsPercent)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, state)
}

// SetAnte updates the default or per-room entry fee
func (h *Handler) SetAnte(w http.ResponseWriter, r *http.Request) {
	var req anteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if req.RoomID != "" {
		if err := h.service.SetRoomAnte(req.RoomID, req.EntryFee); err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeSuccess(w, map[string]interface{}{"room_id": req.RoomID, "entry_fee": req.EntryFee})
		return
	}

	state, err := h.service.SetDefaultAnte(r.Context(), req.EntryFee)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, state)
}

// GetLeaderboard ranks a tournament from the stats document
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	tournamentID := r.URL.Query().Get("tournament_id")

	rows, err := h.service.Leaderboard(r.Context(), tournamentID, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, rows)
}

// GetLiveLeaderboard serves the mirror's view of the active tournament
func (h *Handler) GetLiveLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := h.service.LiveLeaderboard(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, rows)
}

// GetPrizeQueue returns the prize ledger
func (h *Handler) GetPrizeQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.service.PrizeQueue(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, queue)
}

// MarkPrizeDelivered closes an open prize entry
func (h *Handler) MarkPrizeDelivered(w http.ResponseWriter, r *http.Request) {
	prizeID, err := strconv.Atoi(chi.URLParam(r, "prizeID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	entry, err := h.service.MarkPrizeDelivered(r.Context(), prizeID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, entry)
}
