package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/algrv/codelab/internal/errors"
	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/workspace"
)

// creates a new websocket client connection
func NewClient(id, workspaceID, ipAddress string, initialState *workspace.View, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:                   id,
		WorkspaceID:          workspaceID,
		IPAddress:            ipAddress,
		InitialState:         initialState,
		conn:                 conn,
		hub:                  hub,
		send:                 make(chan []byte, 256),
		codeUpdateTimestamps: make([]time.Time, 0, maxCodeUpdatesPerSecond),
		executeTimestamps:    make([]time.Time, 0, maxExecutesPerMinute),
	}
}

// reads messages from the websocket connection to the hub for processing
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: pong handler
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error",
					"client_id", c.ID,
					"workspace_id", c.WorkspaceID,
					"error", err,
				)
			}

			break
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.SendError("bad_request", "invalid message format", err.Error())
			continue
		}

		// the connection decides which workspace a message belongs to
		msg.WorkspaceID = c.WorkspaceID
		msg.ClientID = c.ID
		msg.Timestamp = time.Now()

		c.hub.Broadcast <- &msg
	}
}

// writes messages from the hub to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing

			if !ok {
				// hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck,gosec // G104: close message
				return
			}

			// one message per frame; terminal chunks may contain newlines
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket ping timing

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sends a message to the client
func (c *Client) Send(msg *Message) (err error) {
	// recover from panic if channel is closed
	defer func() {
		if r := recover(); r != nil {
			err = ErrConnectionClosed
		}
	}()

	if c.IsClosed() {
		return ErrConnectionClosed
	}

	messageBytes, marshalErr := json.Marshal(msg)
	if marshalErr != nil {
		return marshalErr
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		// channel is full, send error directly to websocket before closing
		c.sendBufferOverflowError()
		c.Close()
		return ErrConnectionClosed
	}
}

// sends buffer overflow error directly to websocket (bypassing the full channel)
func (c *Client) sendBufferOverflowError() {
	if c.conn == nil {
		return
	}

	errorMsg, err := NewMessage(TypeError, c.WorkspaceID, errors.ErrorResponse{
		Error:   "buffer_overflow",
		Message: "message buffer full, connection will be closed",
		Details: "too many messages queued, please reconnect",
	})
	if err != nil {
		return
	}

	errorBytes, err := json.Marshal(errorMsg)
	if err != nil {
		return
	}

	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck,gosec
	c.conn.WriteMessage(websocket.TextMessage, errorBytes)   //nolint:errcheck,gosec
}

// sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	if details != "" {
		details = sanitizeErrorString(details)
	}

	errorMsg, err := NewMessage(TypeError, c.WorkspaceID, errors.ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create error message",
			"client_id", c.ID,
			"workspace_id", c.WorkspaceID,
			"error_code", code,
		)
		return
	}

	c.Send(errorMsg) //nolint:errcheck,gosec // G104: best effort error notification
}

// closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// checks if the client can send a code write
func (c *Client) checkCodeUpdateRateLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ok bool
	c.codeUpdateTimestamps, ok = allow(c.codeUpdateTimestamps, time.Now(), time.Second, maxCodeUpdatesPerSecond)

	return ok
}

// checks if the client can start the dev server again
func (c *Client) checkExecuteRateLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ok bool
	c.executeTimestamps, ok = allow(c.executeTimestamps, time.Now(), time.Minute, maxExecutesPerMinute)

	return ok
}

// sliding window check; returns the pruned window and whether now fits
func allow(timestamps []time.Time, now time.Time, window time.Duration, limit int) ([]time.Time, bool) {
	cutoff := now.Add(-window)
	valid := make([]time.Time, 0, limit)

	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= limit {
		return valid, false
	}

	return append(valid, now), true
}
