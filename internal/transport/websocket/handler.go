package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/internal/service/session"
	"github.com/medagenda/backend/internal/transport/http/middleware"
)

// Handler upgrades authenticated requests to WebSocket connections and
// relays live messages between connected users.
type Handler struct {
	ConnManager  *ConnectionManager
	Auth         *session.AuthService
	Upgrader     websocket.Upgrader
	PingInterval time.Duration
}

func NewHandler(cm *ConnectionManager, as *session.AuthService) *Handler {
	return &Handler{
		ConnManager: cm,
		Auth:        as,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		PingInterval: 30 * time.Second,
	}
}

// HandleWebSocket upgrades the connection. The request reaches this handler
// only after the guard verified the access_token query parameter, so the
// identity is already on the context.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	h.handleConnection(conn, identity)
}

// handleConnection manages the lifecycle of a single WebSocket connection.
func (h *Handler) handleConnection(conn *websocket.Conn, identity *domain.Identity) {
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	// Keep-alive pinger. WriteControl is safe alongside the mutexed data
	// writes in ConnectionManager; WriteMessage here would race them.
	go func() {
		ticker := time.NewTicker(h.PingInterval)
		defer ticker.Stop()
		for range ticker.C {
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	log.Printf("[WS] Connection opened for user %s (ID: %d)", identity.Name, identity.ID)
	h.ConnManager.AddConnection(identity.ID, conn, identity.Name)

	defer func() {
		log.Printf("[WS] Connection closed for user %s", identity.Name)
		h.ConnManager.RemoveConnectionIfMatching(identity.ID, conn)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] User %d disconnected unexpectedly: %v", identity.ID, err)
			}
			break
		}

		var msg domain.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[WS] Invalid message format from user %d: %v", identity.ID, err)
			conn.WriteJSON(domain.ErrorMessage{Type: "error", Message: "invalid message format"})
			continue
		}

		// Revalidate the session on every message. A newer login supersedes
		// this one, so the connection dies on the next message it sends.
		if _, err := h.Auth.Authenticate(context.Background(), identity.Token); err != nil {
			if errors.Is(err, domain.ErrRegistryUnavailable) {
				log.Printf("[WS] Session check unavailable for user %d: %v", identity.ID, err)
				h.ConnManager.SendMessage(identity.ID, domain.ServerMessage{Type: "error", Message: "session check unavailable"})
				return
			}
			log.Printf("[WS] Session no longer active for user %d: %v", identity.ID, err)
			h.ConnManager.SendMessage(identity.ID, domain.ServerMessage{Type: "error", Message: "session expired or superseded"})
			return
		}

		h.processMessage(identity, msg)
	}
}

// processMessage routes client message types.
func (h *Handler) processMessage(identity *domain.Identity, msg domain.ClientMessage) {
	switch msg.Type {
	case "message":
		if msg.To == 0 || msg.Body == "" {
			h.ConnManager.SendMessage(identity.ID, domain.ServerMessage{Type: "error", Message: "message needs a recipient and a body"})
			return
		}
		out := domain.ServerMessage{
			Type:      "message",
			MessageID: uuid.NewString(),
			From:      identity.ID,
			FromName:  identity.Name,
			Body:      msg.Body,
			SentAt:    time.Now().UTC(),
		}
		if err := h.ConnManager.SendMessage(msg.To, out); err != nil {
			log.Printf("[WS] Deliver to user %d failed: %v", msg.To, err)
		}
		// Echo back so the sender's client can confirm delivery ordering.
		h.ConnManager.SendMessage(identity.ID, domain.ServerMessage{
			Type:      "message_sent",
			MessageID: out.MessageID,
			SentAt:    out.SentAt,
		})

	case "ping":
		h.ConnManager.SendMessage(identity.ID, domain.ServerMessage{Type: "pong"})

	default:
		h.ConnManager.SendMessage(identity.ID, domain.ServerMessage{Type: "error", Message: "unknown message type"})
	}
}
