package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/domain"
	"github.com/streamsync/server/internal/service/room"
	"github.com/streamsync/server/pkg/ctxlogger"
	"github.com/streamsync/server/pkg/wsrouter"
)

// ServeWS upgrades the connection and pumps its messages through the
// ws router until the read side fails, which is the disconnect signal.
func (c *controller) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("connection_id", uuid.NewString()))
	c.logger.InfoContext(ctx, "connection opened", "remote_addr", r.RemoteAddr)

	readErr := c.wsRouter.ServeConn(ctx, conn)

	if err := c.roomService.Disconnect(context.WithoutCancel(ctx), conn); err != nil && !errors.Is(err, room.ErrNotJoined) {
		c.logger.InfoContext(ctx, "failed to disconnect", "error", err)
	}

	c.logger.InfoContext(ctx, "connection closed", "read_error", readErr)
}

// decode unmarshals and validates an inbound payload. Invalid payloads
// are logged and dropped; no error surfaces to the client.
func (c *controller) decode(ctx context.Context, payload json.RawMessage, dst any) bool {
	if err := json.Unmarshal(payload, dst); err != nil {
		c.logger.DebugContext(ctx, "failed to unmarshal payload",
			"type", wsrouter.GetMessageTypeFromCtx(ctx), "error", err)
		return false
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		c.logger.DebugContext(ctx, "invalid payload",
			"type", wsrouter.GetMessageTypeFromCtx(ctx), "errors", validationErrors)
		return false
	}

	return true
}

// logDropped records a command the service refused. Authorization
// failures, pre-join commands and out-of-range indexes are all silent
// no-ops towards the client.
func (c *controller) logDropped(ctx context.Context, err error) {
	switch {
	case errors.Is(err, room.ErrNotJoined),
		errors.Is(err, room.ErrAlreadyJoined),
		errors.Is(err, room.ErrPermissionDenied),
		errors.Is(err, room.ErrIndexOutOfRange),
		errors.Is(err, room.ErrMembersLimitReached),
		errors.Is(err, room.ErrQueueLimitReached):
		c.logger.DebugContext(ctx, "command dropped",
			"type", wsrouter.GetMessageTypeFromCtx(ctx), "reason", err)
	default:
		c.logger.InfoContext(ctx, "command failed",
			"type", wsrouter.GetMessageTypeFromCtx(ctx), "error", err)
	}
}

type joinRoomInput struct {
	RoomID   string `json:"roomId" validate:"required,max=64"`
	Username string `json:"username" validate:"required,max=32"`
	IsHost   bool   `json:"isHost"`
}

func (c *controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input joinRoomInput
	if !c.decode(ctx, payload, &input) {
		return
	}

	if err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		Conn:     conn,
		RoomID:   input.RoomID,
		Username: input.Username,
		IsHost:   input.IsHost,
	}); err != nil {
		c.logDropped(ctx, err)
	}
}

type queueActionInput struct {
	Type    string `json:"type" validate:"required,oneof=add skip next play remove"`
	VideoID string `json:"videoId" validate:"required_if=Type add,max=64"`
	Title   string `json:"title" validate:"max=200"`
	Index   *int   `json:"index"`
}

func (c *controller) handleQueueAction(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input queueActionInput
	if !c.decode(ctx, payload, &input) {
		return
	}

	var err error
	switch input.Type {
	case "add":
		err = c.roomService.QueueAdd(ctx, &room.QueueAddParams{
			Conn:    conn,
			VideoID: input.VideoID,
			Title:   input.Title,
		})
	case "skip", "next":
		err = c.roomService.QueueSkip(ctx, &room.QueueSkipParams{Conn: conn})
	case "play":
		if input.Index == nil {
			c.logger.DebugContext(ctx, "queue play without index")
			return
		}
		err = c.roomService.QueuePlayAt(ctx, &room.QueuePlayAtParams{Conn: conn, Index: *input.Index})
	case "remove":
		if input.Index == nil {
			c.logger.DebugContext(ctx, "queue remove without index")
			return
		}
		err = c.roomService.QueueRemove(ctx, &room.QueueRemoveParams{Conn: conn, Index: *input.Index})
	}

	if err != nil {
		c.logDropped(ctx, err)
	}
}

type videoActionInput struct {
	Type        string  `json:"type" validate:"required,oneof=play pause seek"`
	CurrentTime float64 `json:"currentTime" validate:"gte=0"`
}

func (c *controller) handleVideoAction(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input videoActionInput
	if !c.decode(ctx, payload, &input) {
		return
	}

	if err := c.roomService.VideoAction(ctx, &room.VideoActionParams{
		Conn:        conn,
		Control:     domain.ControlType(input.Type),
		CurrentTime: input.CurrentTime,
	}); err != nil {
		c.logDropped(ctx, err)
	}
}

type chatMessageInput struct {
	Username string `json:"username" validate:"required,max=32"`
	Message  string `json:"message" validate:"required,max=500"`
}

func (c *controller) handleChatMessage(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input chatMessageInput
	if !c.decode(ctx, payload, &input) {
		return
	}

	if err := c.roomService.ChatMessage(ctx, &room.ChatMessageParams{
		Conn:     conn,
		Username: input.Username,
		Message:  input.Message,
	}); err != nil {
		c.logDropped(ctx, err)
	}
}

func (c *controller) handlePlayerReady(ctx context.Context, conn *websocket.Conn, _ json.RawMessage) {
	if err := c.roomService.PlayerReady(ctx, conn); err != nil {
		c.logDropped(ctx, err)
	}
}
