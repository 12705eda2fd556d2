package ws

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client — одно живое соединение одного пользователя.
// Пользователь может держать несколько клиентов (вкладки, устройства).
type Client struct {
	ID          string
	UserID      uuid.UUID
	DisplayName string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, displayName string, sendBuffer int) *Client {
	return &Client{
		ID:          uuid.New().String(),
		UserID:      userID,
		DisplayName: displayName,
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
	}
}

// enqueue не блокируется: медленный клиент теряет кадр, остальные не ждут
func (c *Client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

// readPump крутится до разрыва соединения; RPC одного клиента
// обрабатываются последовательно
func (c *Client) readPump(ctx context.Context, gateway *Gateway) {
	defer gateway.onDisconnect(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				gateway.log.Warn("Unexpected connection close", "error", err, "user_id", c.UserID)
			}
			return
		}
		gateway.dispatch(ctx, c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
