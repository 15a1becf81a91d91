package controller

import (
	"github.com/streamsync/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Handle("join-room", c.handleJoinRoom)
	mux.Handle("queue-action", c.handleQueueAction)
	mux.Handle("video-action", c.handleVideoAction)
	mux.Handle("chat-message", c.handleChatMessage)
	mux.Handle("player-ready", c.handlePlayerReady)

	return mux
}
