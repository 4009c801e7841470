package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/workspace"
)

func NewHub() *Hub {
	pool, err := ants.NewPool(handlerPoolSize,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error("websocket handler panicked", "panic", fmt.Sprint(p))
		}),
	)
	if err != nil {
		// only fails for a non-positive size
		panic(fmt.Sprintf("failed to create handler pool: %v", err))
	}

	h := &Hub{
		workspaces:    make(map[string]map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		Broadcast:     make(chan *Message, 256),
		handlers:      make(map[string]MessageHandler),
		pool:          pool,
		shutdown:      make(chan struct{}),
		ipConnections: make(map[string]int),
		sequences:     make(map[string]uint64),
	}

	h.handlers[TypePing] = PingHandler

	return h
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// starts the hub's main loop
func (h *Hub) Run() {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
		h.pool.Release()
	}()

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.handleMessage(message)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// adds a client to the hub and sends it the current workspace view
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.workspaces[client.WorkspaceID] == nil {
		h.workspaces[client.WorkspaceID] = make(map[string]*Client)
	}

	h.workspaces[client.WorkspaceID][client.ID] = client

	logger.Info("client registered",
		"client_id", client.ID,
		"workspace_id", client.WorkspaceID,
	)

	if client.InitialState == nil {
		return
	}

	stateMsg, err := NewMessage(TypeWorkspaceState, client.WorkspaceID, client.InitialState)
	if err != nil {
		logger.ErrorErr(err, "failed to build workspace state", "workspace_id", client.WorkspaceID)
		return
	}

	if err := client.Send(stateMsg); err != nil {
		logger.ErrorErr(err, "failed to send workspace state",
			"client_id", client.ID,
			"workspace_id", client.WorkspaceID,
		)
	}
}

// removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, exists := h.workspaces[client.WorkspaceID]
	if !exists {
		return
	}

	if _, exists := clients[client.ID]; !exists {
		return
	}

	delete(clients, client.ID)
	client.Close()
	h.untrackIP(client.IPAddress)

	logger.Info("client unregistered",
		"client_id", client.ID,
		"workspace_id", client.WorkspaceID,
	)

	if len(clients) == 0 {
		delete(h.workspaces, client.WorkspaceID)
		delete(h.sequences, client.WorkspaceID)
	}
}

// processes an incoming message on the handler pool
func (h *Hub) handleMessage(msg *Message) {
	h.mu.RLock()
	sender, exists := h.workspaces[msg.WorkspaceID][msg.ClientID]
	handler, known := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !exists {
		logger.Warn("sender client not found for message",
			"client_id", msg.ClientID,
			"workspace_id", msg.WorkspaceID,
			"message_type", msg.Type,
		)
		return
	}

	if !known {
		logger.Warn("unhandled message type received",
			"message_type", msg.Type,
			"client_id", sender.ID,
			"workspace_id", msg.WorkspaceID,
		)

		sender.SendError("bad_request", "unsupported message type", "message type not recognized")
		return
	}

	err := h.pool.Submit(func() {
		if err := handler(h, sender, msg); err != nil {
			logger.ErrorErr(err, "handler error",
				"message_type", msg.Type,
				"client_id", sender.ID,
				"workspace_id", msg.WorkspaceID,
			)

			sender.SendError("server_error", "failed to process message", err.Error())
		}
	})

	if errors.Is(err, ants.ErrPoolOverload) {
		sender.SendError("too_many_requests", "server is busy, try again", "")
		return
	}

	if err != nil {
		logger.ErrorErr(err, "failed to schedule handler", "message_type", msg.Type)
	}
}

// Publish sends a workspace event to every client attached to the
// workspace. Clients that attach later do not receive it.
func (h *Hub) Publish(workspaceID string, ev workspace.Event) {
	msg, err := NewMessage(string(ev.Type), workspaceID, ev.Payload)
	if err != nil {
		logger.ErrorErr(err, "failed to build event message",
			"workspace_id", workspaceID,
			"event", ev.Type,
		)
		return
	}

	h.BroadcastToWorkspace(workspaceID, msg, "")
}

// sends a message to all clients of a workspace
func (h *Hub) BroadcastToWorkspace(workspaceID string, msg *Message, excludeClientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastToWorkspace(workspaceID, msg, excludeClientID)
}

// must be called with lock held
func (h *Hub) broadcastToWorkspace(workspaceID string, msg *Message, excludeClientID string) {
	clients, exists := h.workspaces[workspaceID]
	if !exists {
		return
	}

	h.sequences[workspaceID]++
	msg.Sequence = h.sequences[workspaceID]

	for clientID, client := range clients {
		if clientID == excludeClientID {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to client",
				"client_id", clientID,
				"workspace_id", workspaceID,
			)
		}
	}
}

func (h *Hub) GetClientCount(workspaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.workspaces[workspaceID])
}

func (h *Hub) GetWorkspaceCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.workspaces)
}

func (h *Hub) Shutdown() {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()

	if running {
		close(h.shutdown)
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	for workspaceID, clients := range h.workspaces {
		shutdownMsg, err := NewMessage(TypeServerShutdown, workspaceID, ServerShutdownPayload{
			Reason: "server is shutting down",
		})
		if err != nil {
			continue
		}

		for _, client := range clients {
			if err := client.Send(shutdownMsg); err != nil {
				logger.ErrorErr(err, "failed to send shutdown notification",
					"client_id", client.ID,
					"workspace_id", workspaceID,
				)
			}
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(shutdownNotificationWait)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections")

	for _, clients := range h.workspaces {
		for _, client := range clients {
			client.Close()
		}
	}

	h.workspaces = make(map[string]map[string]*Client)
	h.ipConnections = make(map[string]int)
	h.sequences = make(map[string]uint64)
}

// checks if a new connection should be allowed based on limits
func (h *Hub) CanAcceptConnection(workspaceID, ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.workspaces[workspaceID]) >= maxClientsPerWorkspace {
		return false, "maximum connections per workspace exceeded"
	}

	if h.ipConnections[ipAddress] >= maxConnectionsPerIP {
		return false, "maximum connections per IP address exceeded"
	}

	return true, ""
}

// increments the connection count for an IP address
func (h *Hub) TrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]++
}

// must be called with lock held
func (h *Hub) untrackIP(ipAddress string) {
	if ipAddress == "" {
		return
	}

	h.ipConnections[ipAddress]--

	if h.ipConnections[ipAddress] <= 0 {
		delete(h.ipConnections, ipAddress)
	}
}

// CloseWorkspace tells every attached client the workspace is gone and
// closes their connections.
func (h *Hub) CloseWorkspace(workspaceID, reason string) {
	h.mu.Lock()

	clients, exists := h.workspaces[workspaceID]
	if !exists {
		h.mu.Unlock()
		return
	}

	closedMsg, err := NewMessage(TypeWorkspaceClosed, workspaceID, WorkspaceClosedPayload{Reason: reason})
	if err == nil {
		for _, client := range clients {
			_ = client.Send(closedMsg)
		}
	}

	h.mu.Unlock()

	// give clients time to receive the message
	time.Sleep(100 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	clients, exists = h.workspaces[workspaceID]
	if !exists {
		return
	}

	for _, client := range clients {
		h.untrackIP(client.IPAddress)
		client.Close()
	}

	delete(h.workspaces, workspaceID)
	delete(h.sequences, workspaceID)

	logger.Info("workspace connections closed", "workspace_id", workspaceID, "reason", reason)
}

// creates a message with a JSON payload
func NewMessage(msgType, workspaceID string, payload any) (*Message, error) {
	msg := &Message{
		Type:        msgType,
		WorkspaceID: workspaceID,
		Timestamp:   time.Now(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}

		msg.Payload = data
	}

	return msg, nil
}

// decodes the payload into v
func (m *Message) UnmarshalPayload(v any) error {
	if len(m.Payload) == 0 {
		return ErrInvalidMessage
	}

	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	return nil
}
