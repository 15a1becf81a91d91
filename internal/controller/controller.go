package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/service/room"
	"github.com/streamsync/server/pkg/randstr"
	"github.com/streamsync/server/pkg/validator"
	"github.com/streamsync/server/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(ctx context.Context, params *room.JoinRoomParams) error
	Disconnect(ctx context.Context, conn *websocket.Conn) error
	QueueAdd(ctx context.Context, params *room.QueueAddParams) error
	QueueSkip(ctx context.Context, params *room.QueueSkipParams) error
	QueuePlayAt(ctx context.Context, params *room.QueuePlayAtParams) error
	QueueRemove(ctx context.Context, params *room.QueueRemoveParams) error
	VideoAction(ctx context.Context, params *room.VideoActionParams) error
	ChatMessage(ctx context.Context, params *room.ChatMessageParams) error
	PlayerReady(ctx context.Context, conn *websocket.Conn) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	generator   iGenerator
	wsRouter    *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		roomService: roomService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate:  validator.NewValidator(),
		generator: randstr.New([]byte("abcdefghijklmnopqrstuvwxyz0123456789")),
		logger:    logger,
	}
	c.wsRouter = c.getWSRouter()

	return c
}
