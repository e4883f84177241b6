package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Interval between keep-alive pings.
	pingPeriod = 30 * time.Second

	// Messages queued per client before Send starts failing.
	sendQueueSize = 16
)

var (
	errSendQueueFull = errors.New("send queue full")
	errClientClosed  = errors.New("client closed")
)

// client is the Handle of one accepted connection. Messages are queued and
// written by writePump so that Send never blocks the registry lock.
type client struct {
	id   uint64
	conn *websocket.Conn
	send chan string

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id uint64, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan string, sendQueueSize),
		done: make(chan struct{}),
	}
}

// Send queues msg for delivery.
func (c *client) Send(msg string) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return errSendQueueFull
	}
}

// close shuts the connection down. Safe to call more than once.
func (c *client) close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close(code, reason)
	})
}

// writePump drains the send queue until the client is closed.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, []byte(msg))
			cancel()
			if err != nil {
				c.close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				c.close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}
