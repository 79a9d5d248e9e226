package surface

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/raterudder/solarkiosk/pkg/autoscroll"
	"github.com/raterudder/solarkiosk/pkg/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the page is served by the same process
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// enqueue queues b without blocking and reports whether there was room.
func (c *client) enqueue(b []byte) bool {
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// pageMessage is anything the page sends.
type pageMessage struct {
	Type         string   `json:"type"`
	ScrollHeight float64  `json:"scrollHeight"`
	ClientHeight float64  `json:"clientHeight"`
	ScrollTop    *float64 `json:"scrollTop"`
	Kind         string   `json:"kind"`
}

// ServeWS upgrades the request and serves the page until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error
		log.Ctx(h.ctx).WarnContext(h.ctx, "websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	ctx := log.WithAttrs(h.ctx, slog.String("clientID", c.id))
	log.Ctx(ctx).InfoContext(ctx, "page connected", slog.String("remoteAddr", r.RemoteAddr))

	h.register(c)
	go h.writePump(c)
	h.readPump(c)

	log.Ctx(ctx).InfoContext(ctx, "page disconnected")
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Ctx(h.ctx).DebugContext(h.ctx, "websocket read failed", slog.String("clientID", c.id), slog.Any("error", err))
			}
			return
		}
		if err := h.handlePageMessage(data); err != nil {
			log.Ctx(h.ctx).DebugContext(h.ctx, "ignoring page message", slog.String("clientID", c.id), slog.Any("error", err))
		}
	}
}

func (h *Hub) handlePageMessage(data []byte) error {
	var msg pageMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	switch msg.Type {
	case "layout":
		if msg.ScrollHeight < 0 || msg.ClientHeight < 0 {
			return errors.New("negative layout")
		}
		m := autoscroll.Metrics{ScrollHeight: msg.ScrollHeight, ClientHeight: msg.ClientHeight}
		if msg.ScrollTop != nil {
			m.ScrollTop = *msg.ScrollTop
		}
		h.setLayout(m, msg.ScrollTop != nil)
	case "interaction":
		kind, err := autoscroll.ParseInteraction(msg.Kind)
		if err != nil {
			return err
		}
		h.interaction(kind, msg.ScrollTop)
	default:
		return errors.New("unknown message type: " + msg.Type)
	}
	return nil
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
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
