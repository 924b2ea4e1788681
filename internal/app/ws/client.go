/*
Package ws is the websocket transport layer.

This file defines the Client struct, representing one live websocket
connection. It manages the connection's read and write loops (ReadPump and
WritePump), heartbeats, and disconnect propagation into the session core.
*/
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pixly/internal/app/session"
	"pixly/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 4096

	// capacity of the per-connection outbound queue.
	sendChannelBuffer = 256
)

// Client represents one live websocket connection.
type Client struct {
	// socketID is the connection identifier minted by the gateway on accept.
	socketID string

	gateway *Gateway

	// sink receives lifecycle notifications and decoded actions.
	sink ActionSink

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// send queues frames waiting to be written to the connection.
	send chan []byte

	// sendMu guards closed; enqueue and closeSend may race between the
	// gateway and the pumps.
	sendMu sync.Mutex
	closed bool

	// disconnectOnce guarantees the sink sees at most one disconnect.
	disconnectOnce sync.Once

	// structured logger with client context.
	logger zerolog.Logger
}

func newClient(gateway *Gateway, sink ActionSink, conn *websocket.Conn, socketID string) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "Client").
		Str("socket_id", socketID).
		Logger()

	return &Client{
		socketID: socketID,
		gateway:  gateway,
		sink:     sink,
		conn:     conn,
		send:     make(chan []byte, sendChannelBuffer),
		logger:   clientLogger,
	}
}

// ReadPump reads frames from the connection, decodes the action envelope, and
// forwards actions to the sink. It handles heartbeats (Pong) and performs
// cleanup when the connection closes.
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
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		c.processInboundFrame(frame)
	}
}

// processInboundFrame decodes one inbound frame. Frames that are not a valid
// envelope are logged and dropped at the transport boundary; the payload
// itself is validated later by the session core.
func (c *Client) processInboundFrame(frame []byte) {
	var envelope session.ActionEnvelope

	if err := json.Unmarshal(frame, &envelope); err != nil {
		c.logger.Warn().Err(err).
			Bytes("frame", frame).
			Msg("Client sent invalid JSON envelope")
		return
	}

	if envelope.Action == "" {
		c.logger.Warn().Msg("Client sent envelope without an action")
		return
	}

	c.sink.Action(c.socketID, envelope.Action, envelope.Payload)
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.disconnectOnce.Do(func() {
		c.sink.Disconnect(c.socketID)
	})

	c.gateway.unregister(c)
	c.closeSend()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// enqueue offers a frame to the outbound queue without blocking. It reports
// false when the queue is full or the connection is already closed.
func (c *Client) enqueue(frame []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue exactly once, which terminates the
// write pump.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump writes queued frames to the connection and keeps the heartbeat
// alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame handles frames pulled from the send channel, writing them to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
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

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
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
