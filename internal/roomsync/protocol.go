// Package roomsync keeps a client's board in step with its room: it speaks the relay's
// frame protocol, calls the persistence API and applies remote changes.
package roomsync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

const (
	TypeJoinRoom  = "join_room"
	TypeLeaveRoom = "leave_room"
	TypeChat      = "chat"
	TypeUpdate    = "update"
	TypeErase     = "erase"
	TypeError     = "error"
)

// MaxFrameSize is the largest frame the relay and its clients read. It matches the
// persistence API's body limit, so any shape that can be stored can be relayed.
const MaxFrameSize = 1 << 20

var (
	// ErrMalformed wraps every reason a frame could not be decoded.
	ErrMalformed = errors.New("roomsync: malformed frame")
	// ErrUnknownFrame is returned for well-formed frames of a type this client ignores.
	ErrUnknownFrame = errors.New("roomsync: unknown frame type")
)

// Outgoing is a frame sent to the relay. Which fields are set depends on Type.
type Outgoing struct {
	Type       string      `json:"type"`
	RoomID     string      `json:"roomId"`
	Message    string      `json:"message,omitempty"`
	Shape      shape.Shape `json:"shape,omitempty"`
	MessageIDs []int64     `json:"messageIds,omitempty"`
	Keys       []string    `json:"keys,omitempty"`
}

func JoinRoom(roomID string) Outgoing  { return Outgoing{Type: TypeJoinRoom, RoomID: roomID} }
func LeaveRoom(roomID string) Outgoing { return Outgoing{Type: TypeLeaveRoom, RoomID: roomID} }

// Chat announces a new shape. The payload is the JSON string {"shape": ...}.
func Chat(roomID string, s shape.Shape) (Outgoing, error) {
	msg, err := shape.EncodeMessage(s)
	if err != nil {
		return Outgoing{}, err
	}
	return Outgoing{Type: TypeChat, RoomID: roomID, Message: msg}, nil
}

func Update(roomID string, s shape.Shape) Outgoing {
	return Outgoing{Type: TypeUpdate, RoomID: roomID, Shape: s}
}

// Erase lists removed shapes by persisted id, and by key for those never persisted.
func Erase(roomID string, ids []int64, keys []string) Outgoing {
	return Outgoing{Type: TypeErase, RoomID: roomID, MessageIDs: ids, Keys: keys}
}

// Incoming is a decoded frame from the relay: *ChatMessage, *UpdateMessage or *EraseMessage.
type Incoming interface {
	isIncoming()
}

type ChatMessage struct {
	RoomID string
	UserID string
	Shape  shape.Shape
}

type UpdateMessage struct {
	RoomID string
	Shape  shape.Shape
}

type EraseMessage struct {
	RoomID string
	IDs    []int64
	Keys   []string
}

func (*ChatMessage) isIncoming()   {}
func (*UpdateMessage) isIncoming() {}
func (*EraseMessage) isIncoming()  {}

type rawFrame struct {
	Type       *string         `json:"type"`
	RoomID     string          `json:"roomId"`
	UserID     string          `json:"userId"`
	Message    json.RawMessage `json:"message"`
	Shape      json.RawMessage `json:"shape"`
	MessageIDs []int64         `json:"messageIds"`
	Keys       []string        `json:"keys"`
}

// DecodeIncoming parses one relay frame. A chat message may carry its payload as a JSON
// string or as an inline object; either way it must hold a shape with a known type.
func DecodeIncoming(data []byte) (Incoming, error) {
	var f rawFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f.Type == nil {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch *f.Type {
	case TypeChat:
		payload, err := unwrapMessage(f.Message)
		if err != nil {
			return nil, err
		}
		s, err := shape.DecodeMessage(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: chat: %v", ErrMalformed, err)
		}
		return &ChatMessage{RoomID: f.RoomID, UserID: f.UserID, Shape: s}, nil

	case TypeUpdate:
		if len(f.Shape) == 0 {
			return nil, fmt.Errorf("%w: update without shape", ErrMalformed)
		}
		s, err := shape.Decode(f.Shape)
		if err != nil {
			return nil, fmt.Errorf("%w: update: %v", ErrMalformed, err)
		}
		return &UpdateMessage{RoomID: f.RoomID, Shape: s}, nil

	case TypeErase:
		if len(f.MessageIDs) == 0 && len(f.Keys) == 0 {
			return nil, fmt.Errorf("%w: erase without ids", ErrMalformed)
		}
		return &EraseMessage{RoomID: f.RoomID, IDs: f.MessageIDs, Keys: f.Keys}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, *f.Type)
}

func unwrapMessage(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: chat without message", ErrMalformed)
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: chat message: %v", ErrMalformed, err)
	}
	return []byte(s), nil
}
