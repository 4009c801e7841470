package websocket

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/sandbox"
	"codeberg.org/algrv/codelab/internal/workspace"
)

const handlerTimeout = 10 * time.Second

// reports a rejected request to the client, picking the error code from the
// sentinel err wraps
func sendFailure(client *Client, err error) {
	code := "server_error"

	switch {
	case stderrors.Is(err, ErrWorkspaceNotFound):
		code = "workspace_not_found"
	case stderrors.Is(err, ErrRateLimitExceeded):
		code = "too_many_requests"
	case stderrors.Is(err, ErrCodeTooLarge), stderrors.Is(err, sandbox.ErrPathOutsideRoot):
		code = "bad_request"
	case stderrors.Is(err, ErrInvalidMessage):
		code = "validation_error"
	}

	client.SendError(code, err.Error(), "")
}

// answers keepalive pings
func PingHandler(_ *Hub, client *Client, _ *Message) error {
	pong, err := NewMessage(TypePong, client.WorkspaceID, nil)
	if err != nil {
		return err
	}

	return client.Send(pong)
}

// starts (or restarts) the workspace dev server
func ExecuteHandler(source WorkspaceSource) MessageHandler {
	return func(_ *Hub, client *Client, _ *Message) error {
		if !client.checkExecuteRateLimit() {
			sendFailure(client, fmt.Errorf("%w: maximum 6 execute requests per minute", ErrRateLimitExceeded))
			return nil
		}

		w, ok := source.Get(client.WorkspaceID)
		if !ok {
			sendFailure(client, ErrWorkspaceNotFound)
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		err := w.Execute(ctx)
		if stderrors.Is(err, workspace.ErrNotReady) {
			client.SendError("sandbox_not_ready", "sandbox is not ready", string(w.State()))
			return nil
		}

		if err != nil {
			return err
		}

		logger.Info("dev server started", "workspace_id", client.WorkspaceID, "client_id", client.ID)

		return nil
	}
}

// writes a file into the workspace sandbox
func WriteCodeHandler(source WorkspaceSource) MessageHandler {
	return func(_ *Hub, client *Client, msg *Message) error {
		if !client.checkCodeUpdateRateLimit() {
			sendFailure(client, fmt.Errorf("%w: maximum 10 code updates per second", ErrRateLimitExceeded))
			return nil
		}

		var payload WriteCodePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError("validation_error", "failed to parse write_code payload", err.Error())
			return nil
		}

		if payload.Path == "" {
			client.SendError("validation_error", "path is required", "")
			return nil
		}

		if len(payload.Code) > maxCodeSize {
			sendFailure(client, fmt.Errorf("%w: maximum size is 256 KB", ErrCodeTooLarge))
			return nil
		}

		w, ok := source.Get(client.WorkspaceID)
		if !ok {
			sendFailure(client, ErrWorkspaceNotFound)
			return nil
		}

		err := w.WriteCode(payload.Path, payload.Code)
		if stderrors.Is(err, sandbox.ErrPathOutsideRoot) {
			sendFailure(client, err)
			return nil
		}

		return err
	}
}
