// Package websocket streams session events to rendering collaborators.
// Clients subscribe per room and receive every lobby, round and match
// message for it; tournament-wide events go to everyone.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/bitefight-arena/internal/domain"
)

// Message types
const (
	MessageTypeLobbyOpen        = "lobby_open"
	MessageTypeLobbyNotice      = "lobby_notice"
	MessageTypePlayerJoined     = "player_joined"
	MessageTypeMatchStart       = "match_start"
	MessageTypeRound            = "round"
	MessageTypeMatchEnd         = "match_end"
	MessageTypeSessionCancelled = "session_cancelled"
	MessageTypeTournamentEnd    = "tournament_end"
	MessageTypeSubscribe        = "subscribe"
	MessageTypeUnsubscribe      = "unsubscribe"
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
	MessageTypeError            = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// MatchStart is the payload announcing a starting match.
type MatchStart struct {
	Intro  string          `json:"intro,omitempty"`
	Roster []domain.Player `json:"roster"`
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by room ID
	rooms map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound messages
	broadcast chan *Message

	// Subscription requests
	subscribe chan *subscriptionRequest

	// Unsubscription requests
	unsubscribe chan *subscriptionRequest

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client *Client
	roomID string
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:       make(map[string]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				for roomID, clients := range h.rooms {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.rooms, roomID)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.rooms[req.roomID]; !ok {
				h.rooms[req.roomID] = make(map[*Client]bool)
			}
			h.rooms[req.roomID][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", req.client.id, "room_id", req.roomID)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.rooms[req.roomID]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.rooms, req.roomID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "room_id", req.roomID)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to the room's subscribers, or to every
// client when the message carries no room.
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	if message.RoomID != "" {
		if clients, ok := h.rooms[message.RoomID]; ok {
			for client := range clients {
				select {
				case client.send <- data:
				default:
					// Client's buffer is full, skip
					h.logger.Warn("client buffer full, skipping", "client_id", client.id)
				}
			}
		}
	} else {
		for client := range h.allClients {
			select {
			case client.send <- data:
			default:
				h.logger.Warn("client buffer full, skipping", "client_id", client.id)
			}
		}
	}
}

func (h *Hub) push(msgType, roomID string, data interface{}) {
	message := &Message{
		Type:      msgType,
		RoomID:    roomID,
		Data:      data,
		Timestamp: time.Now(),
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "type", msgType)
	}
}

// LobbyOpened announces a newly opened lobby to the room.
func (h *Hub) LobbyOpened(roomID string, info domain.LobbyInfo) {
	h.push(MessageTypeLobbyOpen, roomID, info)
}

// LobbyNotice announces how long the lobby stays open.
func (h *Hub) LobbyNotice(roomID string, closesIn time.Duration) {
	h.push(MessageTypeLobbyNotice, roomID, map[string]int{
		"closes_in_seconds": int(closesIn.Seconds()),
	})
}

// PlayerJoined announces a lobby join and the new roster size.
func (h *Hub) PlayerJoined(roomID string, player domain.Player, count int) {
	h.push(MessageTypePlayerJoined, roomID, map[string]interface{}{
		"player": player,
		"count":  count,
	})
}

// MatchStarted announces the roster and intro line.
func (h *Hub) MatchStarted(roomID string, intro string, roster []domain.Player) {
	h.push(MessageTypeMatchStart, roomID, MatchStart{Intro: intro, Roster: roster})
}

// RoundPlayed streams one resolved round, key play included.
func (h *Hub) RoundPlayed(roomID string, result domain.RoundResult) {
	h.push(MessageTypeRound, roomID, result)
}

// MatchEnded announces the final summary.
func (h *Hub) MatchEnded(roomID string, summary domain.MatchSummary) {
	h.push(MessageTypeMatchEnd, roomID, summary)
}

// SessionCancelled announces an aborted session.
func (h *Hub) SessionCancelled(roomID string, reason string) {
	h.push(MessageTypeSessionCancelled, roomID, map[string]string{"reason": reason})
}

// TournamentEnded announces the final leaderboard to every client.
func (h *Hub) TournamentEnded(result domain.TournamentResult) {
	h.push(MessageTypeTournamentEnd, "", result)
}

// GetSubscriberCount returns the number of subscribers for a room
func (h *Hub) GetSubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[roomID]; ok {
		return len(clients)
	}
	return 0
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds a client to a room subscription
func (h *Hub) Subscribe(client *Client, roomID string) {
	h.subscribe <- &subscriptionRequest{client: client, roomID: roomID}
}

// Unsubscribe removes a client from a room subscription
func (h *Hub) Unsubscribe(client *Client, roomID string) {
	h.unsubscribe <- &subscriptionRequest{client: client, roomID: roomID}
}
