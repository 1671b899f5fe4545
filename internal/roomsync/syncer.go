package roomsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

// persistTimeout bounds each background persistence call.
const persistTimeout = 15 * time.Second

// Board is the shape list remote changes are applied to.
type Board interface {
	AddShape(s shape.Shape) bool
	EraseShapes(ids []int64, keys []string) int
	ReplaceShape(s shape.Shape) bool
	AssignID(key string, id int64)
}

// PostFunc runs fn on the goroutine that owns the board.
type PostFunc func(fn func(Board))

// Syncer pushes local mutations to the relay and the store, and applies relay frames
// to a Board. Local changes are never held back by the network: broadcasts are queued
// and persistence runs in the background. Failures are logged and never undone.
type Syncer struct {
	roomID string
	store  Store
	post   PostFunc
	log    *slog.Logger

	mu   sync.Mutex
	conn Conn

	ctx context.Context
	wg  sync.WaitGroup
}

// NewSyncer returns a Syncer for roomID. Background calls stop when ctx ends.
func NewSyncer(ctx context.Context, roomID string, store Store, post PostFunc, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{roomID: roomID, store: store, post: post, log: log, ctx: ctx}
}

// Attach sets the relay connection. Frames sent before a connection exists are dropped.
func (s *Syncer) Attach(c Conn) {
	s.mu.Lock()
	s.conn = c
	s.mu.Unlock()
}

// Detach drops c if it is still the attached connection. Later frames are dropped
// until a new connection is attached.
func (s *Syncer) Detach(c Conn) {
	s.mu.Lock()
	if s.conn == c {
		s.conn = nil
	}
	s.mu.Unlock()
}

// Connected reports whether a relay connection is attached.
func (s *Syncer) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Wait blocks until all background persistence calls have returned.
func (s *Syncer) Wait() { s.wg.Wait() }

func (s *Syncer) broadcast(o Outgoing) {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		s.log.Debug("not connected, frame dropped", "type", o.Type)
		return
	}
	if err := c.Send(o); err != nil {
		s.log.Error("broadcast", "error", err, "type", o.Type)
	}
}

func (s *Syncer) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// ShapeCreated broadcasts the new shape and persists it. The returned id is handed
// back to the board on its own goroutine.
func (s *Syncer) ShapeCreated(sh shape.Shape) {
	frame, err := Chat(s.roomID, sh)
	if err != nil {
		s.log.Error("encode new shape", "error", err)
		return
	}
	s.broadcast(frame)

	key := sh.Ident().Key
	s.background(func(ctx context.Context) {
		id, err := s.store.CreateShape(ctx, s.roomID, sh)
		if err != nil {
			s.log.Error("persist create", "error", err, "key", key)
			return
		}
		s.post(func(b Board) { b.AssignID(key, id) })
	})
}

// ShapeIdentified tells peers the persisted id of a shape they only know by key, and
// stores the latest geometry when it changed while the create call was running.
func (s *Syncer) ShapeIdentified(sh shape.Shape, changed bool) {
	s.broadcast(Update(s.roomID, sh))
	if changed {
		s.persistUpdate(sh)
	}
}

// ShapesUpdated broadcasts and persists each shape. Shapes without an id are only
// broadcast; their final state is stored once the id arrives.
func (s *Syncer) ShapesUpdated(shapes []shape.Shape) {
	for _, sh := range shapes {
		s.broadcast(Update(s.roomID, sh))
		if sh.Ident().ID != 0 {
			s.persistUpdate(sh)
		}
	}
}

func (s *Syncer) persistUpdate(sh shape.Shape) {
	s.background(func(ctx context.Context) {
		if err := s.store.UpdateShape(ctx, sh); err != nil {
			s.log.Error("persist update", "error", err, "id", sh.Ident().ID)
		}
	})
}

// ShapesErased sends one erase frame and deletes every persisted id.
func (s *Syncer) ShapesErased(ids []int64, keys []string) {
	if len(ids) == 0 && len(keys) == 0 {
		return
	}
	s.broadcast(Erase(s.roomID, ids, keys))
	if len(ids) == 0 {
		return
	}

	s.background(func(ctx context.Context) {
		// Independent calls: one failure does not cancel the rest.
		var g errgroup.Group
		for _, id := range ids {
			g.Go(func() error {
				if err := s.store.DeleteShape(ctx, id); err != nil {
					s.log.Error("persist delete", "error", err, "id", id)
					return err
				}
				return nil
			})
		}
		_ = g.Wait()
	})
}

// HandleFrame decodes one relay frame and applies it to the board. It must run on
// the board's goroutine. Malformed frames are logged and dropped.
func (s *Syncer) HandleFrame(b Board, data []byte) {
	msg, err := DecodeIncoming(data)
	if err != nil {
		if errors.Is(err, ErrUnknownFrame) {
			s.log.Debug("ignoring frame", "error", err)
		} else {
			s.log.Warn("dropping frame", "error", err)
		}
		return
	}

	switch m := msg.(type) {
	case *ChatMessage:
		if !b.AddShape(m.Shape) {
			s.log.Debug("duplicate shape ignored", "key", m.Shape.Ident().Key)
		}
	case *UpdateMessage:
		if !b.ReplaceShape(m.Shape) {
			s.log.Debug("update for unknown shape ignored", "id", m.Shape.Ident().ID, "key", m.Shape.Ident().Key)
		}
	case *EraseMessage:
		b.EraseShapes(m.IDs, m.Keys)
	}
}
