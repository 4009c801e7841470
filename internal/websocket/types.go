package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/panjf2000/ants/v2"

	"codeberg.org/algrv/codelab/internal/workspace"
)

// message type constants for websocket communication
const (
	// is sent for every chunk a sandbox process writes
	TypeTerminalOutput = string(workspace.EventTerminalOutput)

	// is sent when the workspace lifecycle state changes
	TypeLifecycleChanged = string(workspace.EventLifecycleChanged)

	// is sent when a dev server starts accepting connections
	TypePreviewReady = string(workspace.EventPreviewReady)

	// is sent when the editor code is replaced
	TypeCodeLoaded = string(workspace.EventCodeLoaded)

	// is sent after a run appends to the transcript
	TypeTranscriptUpdated = string(workspace.EventTranscriptUpdated)

	// is sent to a connecting client with the current workspace view
	TypeWorkspaceState = "workspace_state"

	// is sent when the workspace is deleted or expires
	TypeWorkspaceClosed = "workspace_closed"

	// is sent when an error occurs
	TypeError = "error"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"

	// is sent by clients to start the dev server
	TypeExecute = "execute"

	// is sent by clients to write a file
	TypeWriteCode = "write_code"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 512 * 1024

	maxCodeUpdatesPerSecond = 10
	maxExecutesPerMinute    = 6

	maxCodeSize = 256 * 1024
)

// hub limits
const (
	maxConnectionsPerIP      = 10
	maxClientsPerWorkspace   = 5
	handlerPoolSize          = 64
	shutdownNotificationWait = 500 * time.Millisecond
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrCodeTooLarge      = errors.New("code too large")
)

// represents a websocket message with typed payload
type Message struct {
	Type        string          `json:"type"`
	WorkspaceID string          `json:"workspace_id"`
	ClientID    string          `json:"-"` // internal only
	Timestamp   time.Time       `json:"timestamp"`
	Sequence    uint64          `json:"seq,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// contains a file write from the editor
type WriteCodePayload struct {
	Path string `json:"path"`
	Code string `json:"code"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// contains workspace termination information
type WorkspaceClosedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// looks up live workspaces for message handlers
type WorkspaceSource interface {
	Get(id string) (*workspace.Workspace, bool)
}

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// workspace this client is attached to
	WorkspaceID string

	// IP address of the client (for connection tracking)
	IPAddress string

	// view sent on connect; terminal output is never replayed
	InitialState *workspace.View

	conn *websocket.Conn
	hub  *Hub

	// buffered channel of outbound messages
	send chan []byte

	mu     sync.RWMutex
	closed bool

	// sliding windows for rate limiting
	codeUpdateTimestamps []time.Time
	executeTimestamps    []time.Time
}

// maintains the set of active clients and fans workspace events out to them
type Hub struct {
	// registered clients by workspace ID and client ID
	workspaces map[string]map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// messages received from clients
	Broadcast chan *Message

	mu sync.RWMutex

	handlers map[string]MessageHandler

	// runs message handlers off the hub loop
	pool *ants.Pool

	running  bool
	shutdown chan struct{}

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int

	// sequence numbers per workspace for message ordering
	sequences map[string]uint64
}

// processes a specific message type
type MessageHandler func(hub *Hub, client *Client, msg *Message) error
