// Package ws pushes ride events to connected dashboard and driver clients over websockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wecare-ems/wecare-api/internal/adapters/httpapi"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	"github.com/wecare-ems/wecare-api/internal/ports/out/notify"
)

const (
	authTimeout    = 5 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 8192
	sendBuffer     = 64
)

// Authenticator validates the token a client presents.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (domain.Principal, error)
}

type message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type inbound struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type client struct {
	id     string
	userID domain.UserID
	role   domain.Role
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks authenticated connections and implements notify.Publisher.
type Hub struct {
	auth     Authenticator
	log      logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	closed  bool

	wg sync.WaitGroup
}

var _ notify.Publisher = (*Hub)(nil)

// NewHub builds a hub. Browser origins must be in allowedOrigins; requests without an
// Origin header (native clients) are accepted.
func NewHub(auth Authenticator, allowedOrigins []string, log logger.Logger) *Hub {
	set := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		set[strings.TrimRight(o, "/")] = true
	}
	return &Hub{
		auth:    auth,
		log:     log,
		clients: map[string]*client{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || set[origin]
			},
		},
	}
}

// Run blocks until ctx is done, then disconnects every client and waits for their pumps.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
	h.mu.Unlock()

	h.wg.Wait()
	h.log.Info("websocket hub stopped")
	return nil
}

// Connected reports the number of authenticated connections.
func (h *Hub) Connected() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request. The token comes from ?token= or from the first message,
// which must arrive within authTimeout.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warning("websocket upgrade failed", logger.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		_ = conn.SetReadDeadline(time.Now().Add(authTimeout))
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			h.reject(conn, websocket.ClosePolicyViolation, "authentication timeout")
			return
		}
		token = strings.TrimSpace(in.Token)
	}
	p, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		h.reject(conn, websocket.ClosePolicyViolation, "invalid token")
		return
	}

	c := &client{
		id:     uuid.NewString(),
		userID: p.UserID,
		role:   p.Role,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	// The greeting is queued ahead of any event published once the client is registered.
	greeting, _ := json.Marshal(message{Type: "authenticated", Data: map[string]string{
		"userId": string(p.UserID),
		"role":   string(p.Role),
	}})
	c.send <- greeting

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.reject(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	h.clients[c.id] = c
	h.wg.Add(2)
	h.mu.Unlock()

	h.log.Debug("websocket client connected", logger.String("userId", string(c.userID)), logger.String("role", string(c.role)))
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) reject(conn *websocket.Conn, code int, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(message{Type: "error", Data: map[string]string{"message": reason}})
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = conn.Close()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// readPump keeps the read deadline alive and answers application-level pings.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
		h.wg.Done()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read", logger.String("client", c.id), logger.Error(err))
			}
			return
		}
		var in inbound
		if json.Unmarshal(raw, &in) == nil && in.Type == "ping" {
			h.enqueue(c, message{Type: "pong"})
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		h.wg.Done()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) enqueue(c *client, m message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(c, b)
}

// deliverLocked drops a client whose buffer is full rather than blocking publishers.
func (h *Hub) deliverLocked(c *client, b []byte) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- b:
	default:
		h.log.Warning("websocket client too slow, disconnecting", logger.String("client", c.id))
		delete(h.clients, c.id)
		close(c.send)
	}
}

// Publish sends {type: "ride_event", data} to every connection whose user or role is in the audience.
func (h *Hub) Publish(_ context.Context, ev domain.RideEvent, to notify.Audience) {
	b, err := json.Marshal(message{Type: "ride_event", Data: httpapi.RideEventFromDomain(ev)})
	if err != nil {
		h.log.Error("marshal ride event", logger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if slices.Contains(to.UserIDs, c.userID) || slices.Contains(to.Roles, c.role) {
			h.deliverLocked(c, b)
		}
	}
}
