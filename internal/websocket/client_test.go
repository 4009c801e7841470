package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendAfterClose(t *testing.T) {
	client := &Client{ID: "client-1", WorkspaceID: "ws-1", send: make(chan []byte, 1)}

	msg, err := NewMessage(TypePong, "ws-1", nil)
	require.NoError(t, err)

	require.NoError(t, client.Send(msg))

	client.Close()
	client.Close()

	assert.True(t, client.IsClosed())
	assert.ErrorIs(t, client.Send(msg), ErrConnectionClosed)
}

func TestClientSendBufferOverflowClosesClient(t *testing.T) {
	client := &Client{ID: "client-1", WorkspaceID: "ws-1", send: make(chan []byte, 1)}

	msg, err := NewMessage(TypeTerminalOutput, "ws-1", map[string]string{"data": "x"})
	require.NoError(t, err)

	require.NoError(t, client.Send(msg))
	assert.ErrorIs(t, client.Send(msg), ErrConnectionClosed)
	assert.True(t, client.IsClosed())
}

func TestClientSendError(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	client := &Client{ID: "client-1", WorkspaceID: "ws-1", send: make(chan []byte, 1)}
	client.SendError("sandbox_not_ready", "sandbox is not ready", "installing")

	msg := receive(t, client)
	assert.Equal(t, TypeError, msg.Type)

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, "sandbox_not_ready", payload.Error)
	assert.Equal(t, "installing", payload.Details)
}

func TestSanitizeErrorString(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	assert.Equal(t, "an internal error occurred", sanitizeErrorString("dial tcp 10.0.0.3:5432"))

	t.Setenv("ENVIRONMENT", "development")
	assert.Equal(t, "dial tcp 10.0.0.3:5432", sanitizeErrorString("dial tcp 10.0.0.3:5432"))
}

func TestMessageUnmarshalPayload(t *testing.T) {
	msg := &Message{Type: TypeWriteCode}

	var payload WriteCodePayload
	assert.ErrorIs(t, msg.UnmarshalPayload(&payload), ErrInvalidMessage)

	msg.Payload = []byte(`{"path":"/src/App.tsx","code":"x"}`)
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, "/src/App.tsx", payload.Path)

	msg.Payload = []byte(`{"path":`)
	assert.ErrorIs(t, msg.UnmarshalPayload(&payload), ErrInvalidMessage)
}
