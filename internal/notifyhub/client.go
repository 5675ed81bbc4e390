package notifyhub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32
)

// upgrader performs the HTTP -> WebSocket upgrade. Origin checking is left
// to whatever reverse proxy fronts this local endpoint, matching arkeep's
// websocket.upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one connected status-push peer. It runs a read pump (detects
// disconnection, handles pongs) and a write pump (the only goroutine
// allowed to write to conn, since gorilla/websocket connections are not
// safe for concurrent writers).
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Event
	topics []string
	logger *zap.Logger
}

// NewClient upgrades r to a WebSocket connection and builds a Client
// subscribed to topics.
func NewClient(hub *Hub, w http.ResponseWriter, r *http.Request, topics []string, logger *zap.Logger) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan Event, sendBufferSize),
		topics: topics,
		logger: logger.Named("notifyhub").With(zap.String("remote_addr", r.RemoteAddr)),
	}, nil
}

// Run subscribes the client and blocks until its connection closes.
func (c *Client) Run() {
	c.hub.Subscribe(c)
	go c.writePump()
	c.readPump()
}

// readPump discards incoming frames (the protocol is server-push only) and
// exists solely to detect disconnection and keep the read deadline fresh.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("failed to set read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.logger.Warn("unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("failed to set write deadline", zap.Error(err))
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Warn("write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("failed to set write deadline", zap.Error(err))
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn("ping error", zap.Error(err))
				return
			}
		}
	}
}
