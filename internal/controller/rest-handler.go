package controller

import (
	"net/http"

	"github.com/streamsync/server/pkg/rest"
)

// roomIDLength matches the short opaque ids used in room links.
const roomIDLength = 6

type createRoomResponse struct {
	RoomID string `json:"room_id"`
}

// CreateRoom mints a fresh room id. The room itself is created lazily
// on the first join.
func (c *controller) CreateRoom(w http.ResponseWriter, r *http.Request) {
	roomID := c.generator.GenerateRandomString(roomIDLength)

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": createRoomResponse{
		RoomID: roomID,
	}})
}
