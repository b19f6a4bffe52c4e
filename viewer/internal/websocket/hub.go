package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Krimson/dts-viewer/viewer/internal/axis"
	"github.com/Krimson/dts-viewer/viewer/internal/cursor"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
	"github.com/Krimson/dts-viewer/viewer/internal/logging"
	"github.com/Krimson/dts-viewer/viewer/internal/override"
	"github.com/Krimson/dts-viewer/viewer/internal/session"
)

// Message types exchanged with viewer clients.
const (
	TypeMove     = "move"
	TypeLeave    = "leave"
	TypeClick    = "click"
	TypeCursor   = "cursor"
	TypeOverride = "override"
	TypeLoaded   = "loaded"
	TypeCleared  = "cleared"
	TypeError    = "error"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

// Controller is the part of the session the hub drives.
type Controller interface {
	Move(id axis.ID, ev cursor.PointerEvent) (session.CursorFrame, error)
	Click(id axis.ID, click override.Click) (*override.Refresh, bool, error)
}

// Inbound is a pointer event from a client. X and Y are data coordinates.
type Inbound struct {
	Type   string  `json:"type"`
	Axis   string  `json:"axis"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button,omitempty"`
	Pixel  bool    `json:"pixel,omitempty"`
}

// Outbound wraps every message the hub sends.
type Outbound struct {
	Type    string               `json:"type"`
	Cursor  *session.CursorFrame `json:"cursor,omitempty"`
	Refresh *override.Refresh    `json:"refresh,omitempty"`
	Label   string               `json:"label,omitempty"`
	ID      string               `json:"experiment_id,omitempty"`
	Error   string               `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub keeps the connected viewer clients. Cursor frames go back to the client
// that moved; overrides and experiment changes go to everyone.
type Hub struct {
	ctrl   Controller
	logger *zap.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu sync.RWMutex
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// closed is guarded by hub.mu.
	closed bool
}

func NewHub(ctrl Controller, logger *zap.Logger) *Hub {
	return &Hub{
		ctrl:       ctrl,
		logger:     logging.OrNop(logger).Named("websocket"),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("remote", client.conn.RemoteAddr().String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("remote", client.conn.RemoteAddr().String()))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OverrideCommitted broadcasts a committed override.
func (h *Hub) OverrideCommitted(exp *experiment.Experiment, r *override.Refresh) {
	h.publish(Outbound{Type: TypeOverride, Refresh: r, ID: exp.ID()})
}

func (h *Hub) ExperimentLoaded(ctx context.Context, exp *experiment.Experiment) {
	h.publish(Outbound{Type: TypeLoaded, ID: exp.ID(), Label: exp.Label()})
}

func (h *Hub) ExperimentCleared(ctx context.Context, experimentID string) {
	h.publish(Outbound{Type: TypeCleared, ID: experimentID})
}

func (h *Hub) publish(msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, dropping message", zap.String("type", msg.Type))
	}
}

// HandleWebSocket upgrades the request and starts the client pumps.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
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

// handle turns one inbound message into the reply for its sender, if any.
func (h *Hub) handle(in Inbound) *Outbound {
	id, err := axis.Parse(in.Axis)
	if err != nil {
		return &Outbound{Type: TypeError, Error: err.Error()}
	}

	switch in.Type {
	case TypeMove, TypeLeave:
		ev := cursor.PointerEvent{InAxes: in.Type == TypeMove, X: in.X, Y: in.Y}
		frame, err := h.ctrl.Move(id, ev)
		if err != nil {
			return &Outbound{Type: TypeError, Error: err.Error()}
		}
		return &Outbound{Type: TypeCursor, Cursor: &frame}

	case TypeClick:
		click := override.Click{Button: override.Button(in.Button), X: in.X, Y: in.Y, Pixel: in.Pixel}
		if _, _, err := h.ctrl.Click(id, click); err != nil {
			return &Outbound{Type: TypeError, Error: err.Error()}
		}
		// Committed overrides reach every client through OverrideCommitted.
		return nil

	default:
		return &Outbound{Type: TypeError, Error: "unknown message type " + in.Type}
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	for {
		var in Inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("read message", zap.Error(err))
			}
			return
		}

		reply := c.hub.handle(in)
		if reply == nil {
			continue
		}
		data, err := json.Marshal(reply)
		if err != nil {
			c.hub.logger.Error("marshal reply", zap.Error(err))
			continue
		}
		c.hub.mu.RLock()
		if !c.closed {
			select {
			case c.send <- data:
			default:
				c.hub.logger.Warn("client buffer full, dropping reply")
			}
		}
		c.hub.mu.RUnlock()
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.hub.logger.Warn("write message", zap.Error(err))
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
