package tui

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	ws "codeberg.org/algrv/codelab/internal/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// receives a workspace's realtime events
type WSClient struct {
	endpoint string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	events chan ws.Message
	err    error
}

func NewWSClient(endpoint string) *WSClient {
	return &WSClient{
		endpoint: endpoint,
		events:   make(chan ws.Message, 256),
	}
}

// Connect establishes the WebSocket connection
func (c *WSClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec
		return nil
	})

	c.conn = conn
	c.connected = true

	go c.readPump(conn)
	go c.pingPump(conn)

	return nil
}

// sends periodic pings to keep the connection alive
func (c *WSClient) pingPump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()

		if !c.connected || c.conn != conn {
			c.mu.Unlock()
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec
		err := conn.WriteMessage(websocket.PingMessage, nil)
		c.mu.Unlock()

		if err != nil {
			return
		}
	}
}

// forwards every server message to the events channel until the
// connection drops
func (c *WSClient) readPump(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()

		conn.Close() //nolint:errcheck,gosec
		close(c.events)
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec

		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		c.events <- msg
	}
}

// sends a client message such as execute or write_code
func (c *WSClient) Send(msgType string, payload any) error {
	msg, err := ws.NewMessage(msgType, "", payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec
	return c.conn.WriteJSON(msg)
}

func (c *WSClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// closes the webSocket connection
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck,gosec
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close() //nolint:errcheck,gosec
	}
}

// returns a tea.Cmd that connects and waits for the first event
func (c *WSClient) ConnectCmd() tea.Cmd {
	return func() tea.Msg {
		if err := c.Connect(); err != nil {
			return DisconnectedMsg{err: err}
		}

		return c.NextEvent()
	}
}

// blocks until the next event arrives or the connection drops
func (c *WSClient) NextEvent() tea.Msg {
	msg, ok := <-c.events
	if !ok {
		c.mu.Lock()
		err := c.err
		c.mu.Unlock()

		return DisconnectedMsg{err: err}
	}

	return EventMsg{msg: msg}
}

func (c *WSClient) NextEventCmd() tea.Cmd {
	return c.NextEvent
}
