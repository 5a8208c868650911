package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// ProgressSource subscribes to a progress channel. CacheService implements it.
type ProgressSource interface {
	Subscribe(ctx context.Context, channel string) *redis.PubSub
}

// Client is one websocket connection following a single analysis run.
type Client struct {
	RunID string
	Conn  *websocket.Conn
	Send  chan []byte
	Hub   *ProgressHub
}

// ProgressMessage is what subscribers receive.
type ProgressMessage struct {
	Type      string          `json:"type"` // "connected" or "progress"
	RunID     string          `json:"runId"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type runMessage struct {
	runID string
	data  []byte
}

// ProgressHub relays analysis progress from redis pub/sub to websocket clients.
// One redis subscription is held per run while at least one client follows it.
type ProgressHub struct {
	source     ProgressSource
	upgrader   websocket.Upgrader
	register   chan *Client
	unregister chan *Client
	broadcast  chan runMessage
	done       chan struct{}
	logger     *logrus.Logger

	// owned by the Run goroutine
	runs  map[string]map[*Client]bool
	relay map[string]context.CancelFunc

	mutex   sync.RWMutex
	clients int
}

// NewProgressHub creates the hub. allowedOrigins of ["*"] or empty accepts any origin.
func NewProgressHub(source ProgressSource, allowedOrigins []string, logger *logrus.Logger) *ProgressHub {
	h := &ProgressHub{
		source:     source,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan runMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
		runs:       make(map[string]map[*Client]bool),
		relay:      make(map[string]context.CancelFunc),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Run processes registrations and relayed messages until ctx ends. Open
// connections and redis subscriptions are closed on return.
func (h *ProgressHub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(ctx, client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastRun(msg)
		}
	}
}

func (h *ProgressHub) registerClient(ctx context.Context, client *Client) {
	clients, ok := h.runs[client.RunID]
	if !ok {
		clients = make(map[*Client]bool)
		h.runs[client.RunID] = clients
		h.startRelay(ctx, client.RunID)
	}
	clients[client] = true
	h.setClientCount(1)

	h.logger.WithFields(logrus.Fields{
		"run_id":      client.RunID,
		"run_clients": len(clients),
	}).Info("Progress websocket client connected")

	h.sendToClient(client, h.message("connected", client.RunID, nil))
}

func (h *ProgressHub) unregisterClient(client *Client) {
	clients, ok := h.runs[client.RunID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	h.setClientCount(-1)

	if len(clients) == 0 {
		delete(h.runs, client.RunID)
		if cancel, ok := h.relay[client.RunID]; ok {
			cancel()
			delete(h.relay, client.RunID)
		}
	}

	h.logger.WithField("run_id", client.RunID).Info("Progress websocket client disconnected")
}

func (h *ProgressHub) broadcastRun(msg runMessage) {
	for client := range h.runs[msg.runID] {
		h.sendToClient(client, h.message("progress", msg.runID, msg.data))
	}
}

// sendToClient must only be called from the Run goroutine. A client whose
// buffer is full is dropped.
func (h *ProgressHub) sendToClient(client *Client, message *ProgressMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal websocket message")
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.WithField("run_id", client.RunID).Warn("Progress client too slow, dropping")
		h.unregisterClient(client)
	}
}

func (h *ProgressHub) message(kind, runID string, data []byte) *ProgressMessage {
	return &ProgressMessage{
		Type:      kind,
		RunID:     runID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// startRelay subscribes to the run's progress channel and feeds the hub.
func (h *ProgressHub) startRelay(ctx context.Context, runID string) {
	relayCtx, cancel := context.WithCancel(ctx)
	h.relay[runID] = cancel

	pubsub := h.source.Subscribe(relayCtx, services.ProgressChannel(runID))
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-relayCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case h.broadcast <- runMessage{runID: runID, data: []byte(msg.Payload)}:
				case <-relayCtx.Done():
					return
				}
			}
		}
	}()
}

func (h *ProgressHub) shutdown() {
	for runID, clients := range h.runs {
		for client := range clients {
			close(client.Send)
		}
		if cancel, ok := h.relay[runID]; ok {
			cancel()
		}
	}
	h.runs = make(map[string]map[*Client]bool)
	h.relay = make(map[string]context.CancelFunc)

	h.mutex.Lock()
	h.clients = 0
	h.mutex.Unlock()
}

func (h *ProgressHub) setClientCount(delta int) {
	h.mutex.Lock()
	h.clients += delta
	h.mutex.Unlock()
}

// GetConnectionCount returns the number of open progress connections.
func (h *ProgressHub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.clients
}

// HandleWebSocket upgrades the request and follows the run named by the :id param.
func (h *ProgressHub) HandleWebSocket(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Run ID is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade progress websocket connection")
		return
	}

	client := &Client{
		RunID: runID,
		Conn:  conn,
		Send:  make(chan []byte, sendBuffer),
		Hub:   h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only watches for the connection closing; clients have nothing to send.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.WithError(err).Warn("Progress websocket closed unexpectedly")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.WithError(err).Debug("Failed to write progress message")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
