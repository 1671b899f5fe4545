package roomsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

var (
	// ErrSendBufferFull is returned by Send when the write pump has fallen behind.
	ErrSendBufferFull = errors.New("roomsync: send buffer full")
	// ErrConnClosed is returned by Send once Run has returned.
	ErrConnClosed = errors.New("roomsync: relay connection closed")
)

// Conn is the realtime relay as seen by the Syncer.
type Conn interface {
	Send(o Outgoing) error
}

// Socket is a relay connection joined to one room.
type Socket struct {
	conn   *websocket.Conn
	roomID string
	send   chan []byte
	done   chan struct{}
	log    *slog.Logger
}

// Dial connects to the relay at wsURL, authenticating with token as a query parameter,
// and queues the join_room frame for roomID.
func Dial(ctx context.Context, wsURL, token, roomID string, log *slog.Logger) (*Socket, error) {
	if log == nil {
		log = slog.Default()
	}
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	conn.SetReadLimit(MaxFrameSize)

	s := &Socket{
		conn:   conn,
		roomID: roomID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		log:    log,
	}
	if err := s.Send(JoinRoom(roomID)); err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return nil, err
	}
	return s, nil
}

// Send queues a frame for the write pump. It never blocks.
func (s *Socket) Send(o Outgoing) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", o.Type, err)
	}
	select {
	case <-s.done:
		return ErrConnClosed
	default:
	}
	select {
	case s.send <- data:
		return nil
	default:
		s.log.Warn("relay send buffer full, dropping frame", "type", o.Type)
		return ErrSendBufferFull
	}
}

// Run pumps frames in both directions until ctx ends or the connection drops.
// Every received frame is passed to handle on the read goroutine. Send fails with
// ErrConnClosed once Run has returned.
func (s *Socket) Run(ctx context.Context, handle func([]byte)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(s.done)

	go s.writePump(ctx)
	return s.readPump(ctx, handle)
}

func (s *Socket) readPump(ctx context.Context, handle func([]byte)) error {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read relay: %w", err)
		}
		handle(data)
	}
}

func (s *Socket) writePump(ctx context.Context) {
	for {
		select {
		case data := <-s.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.log.Debug("relay write error", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close leaves the room and closes the connection.
func (s *Socket) Close() error {
	data, err := json.Marshal(LeaveRoom(s.roomID))
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		_ = s.conn.Write(ctx, websocket.MessageText, data)
		cancel()
	}
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
