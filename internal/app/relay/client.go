/*
Package relay is the WebSocket transport around the presence engine.

This file defines the Client, one live WebSocket connection. ReadPump decodes inbound frames
and hands them to the Hub; WritePump drains the outbound queue and keeps the heartbeat.
*/
package relay

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"chatrelay/internal/app/presence"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
)

const (
	// timeout for writing one frame to the connection.
	writeWait = 10 * time.Second

	// time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// ping interval; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maximum size in bytes of one inbound frame.
	maxMessageSize = 16384

	// SendQueueSize is the number of outbound frames buffered per connection.
	SendQueueSize = 256
)

// Client is one WebSocket connection attached to a Hub.
type Client struct {
	// hub the client is registered with.
	hub *Hub

	// underlying WebSocket connection; nil for in-process clients.
	conn *websocket.Conn

	// id is the connection handle known to the presence engine.
	id presence.ConnID

	// send queues encoded frames for WritePump. Only the Hub goroutine writes to or closes it.
	send chan []byte

	// limiter bounds the inbound frame rate; nil disables limiting.
	limiter *rate.Limiter

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient wraps wsConn as a connection of hub. limiter may be nil.
func NewClient(hub *Hub, wsConn *websocket.Conn, id presence.ConnID, limiter *rate.Limiter) *Client {
	return &Client{
		hub:     hub,
		conn:    wsConn,
		id:      id,
		send:    make(chan []byte, SendQueueSize),
		limiter: limiter,
		logger:  logx.Logger().With().Str("conn_id", string(id)).Logger(),
	}
}

// ID returns the connection handle.
func (c *Client) ID() presence.ConnID {
	return c.id
}

// ReadPump reads frames until the connection fails, then unregisters the client.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Unexpected close while reading")
			}
			return
		}

		if !c.hub.submit(c.process(raw)) {
			return
		}
	}
}

// process turns one raw frame into the unit of work handed to the Hub.
func (c *Client) process(raw []byte) inbound {
	if c.limiter != nil && !c.limiter.Allow() {
		c.logger.Warn().Msg("Inbound rate limit exceeded, dropping frame")
		return inbound{client: c, err: errs.NewError(errs.ErrRateLimitExceeded)}
	}

	event, customErr := Decode(c.id, raw)
	if customErr != nil {
		c.logger.Warn().
			Int("error_code", customErr.Code).
			Int("frame_bytes", len(raw)).
			Msg("Rejected inbound frame")
		return inbound{client: c, err: customErr}
	}

	return inbound{client: c, event: event}
}

// cleanupOnDisconnect unregisters the client and closes the connection.
func (c *Client) cleanupOnDisconnect() {
	c.hub.Unregister(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}
}

// WritePump writes queued frames and pings until the queue is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueued(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueued writes one frame, or a close message when the queue was closed.
// It returns false when WritePump should stop.
func (c *Client) writeQueued(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePing sends a heartbeat ping. It returns false when WritePump should stop.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
