package collab

import (
	"encoding/json"

	"github.com/nisshchayarathi/drawing-app/internal/roomsync"
)

// Frame is a relay frame as it travels between clients. Payload fields are kept
// raw so the relay forwards exactly what the sender wrote.
type Frame struct {
	Type       string          `json:"type"`
	RoomID     string          `json:"roomId,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	Message    json.RawMessage `json:"message,omitempty"`
	Shape      json.RawMessage `json:"shape,omitempty"`
	MessageIDs []int64         `json:"messageIds,omitempty"`
	Keys       []string        `json:"keys,omitempty"`

	// Room is an older spelling of RoomID still sent by some clients on leave_room.
	Room string `json:"room,omitempty"`
}

// room returns the frame's room, accepting either spelling.
func (f *Frame) room() string {
	if f.RoomID != "" {
		return f.RoomID
	}
	return f.Room
}

type ErrorPayload struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message"`
}

func errorFrame(roomID, msg string) []byte {
	data, _ := json.Marshal(ErrorPayload{Type: roomsync.TypeError, RoomID: roomID, Message: msg})
	return data
}
