package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

// ──────────────────── WebSocket Hub ────────────────────

type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	activeJobs map[string]json.RawMessage // job_id → last job:update payload
	jobsMu     sync.RWMutex
	log        zerolog.Logger
}

type WSClient struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type WSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func NewWSHub(logger zerolog.Logger) *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		activeJobs: make(map[string]json.RawMessage),
		log:        logger,
	}
}

func (h *WSHub) Broadcast(event string, data any) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		return
	}

	// Track job state so newly connected clients get current progress.
	if event == "job:update" {
		h.trackJob(data, msg)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

func (h *WSHub) trackJob(data any, raw []byte) {
	m, ok := data.(map[string]any)
	if !ok {
		return
	}
	jobID, _ := m["job_id"].(string)
	if jobID == "" {
		return
	}
	// Status may arrive as a plain string or a string-typed constant.
	status := fmt.Sprintf("%v", m["status"])

	h.jobsMu.Lock()
	defer h.jobsMu.Unlock()
	if status == "completed" || status == "failed" {
		delete(h.activeJobs, jobID)
	} else {
		h.activeJobs[jobID] = json.RawMessage(raw)
	}
}

// sendActiveJobs replays in-flight job state to a new client.
func (h *WSHub) sendActiveJobs(client *WSClient) {
	h.jobsMu.RLock()
	defer h.jobsMu.RUnlock()
	for _, msg := range h.activeJobs {
		select {
		case client.send <- msg:
		default:
		}
	}
}

func (h *WSHub) addClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *WSHub) removeClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ──────────────────── WebSocket Handler ────────────────────

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := s.authService.ParseToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}

	client := &WSClient{
		conn:   conn,
		userID: claims.UserID.String(),
		send:   make(chan []byte, 64),
	}

	s.wsHub.addClient(client)
	s.wsHub.sendActiveJobs(client)
	s.log.Debug().Str("user_id", client.userID).Msg("websocket client connected")

	ctx := r.Context()

	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range client.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop keeps the connection alive until the client goes away.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	s.wsHub.removeClient(client)
	s.log.Debug().Str("user_id", client.userID).Msg("websocket client disconnected")
}
