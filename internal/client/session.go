// Package client runs a drawing engine for one room: a single goroutine owns the
// engine, and network results are posted to it instead of touching it directly.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nisshchayarathi/drawing-app/internal/config"
	"github.com/nisshchayarathi/drawing-app/internal/engine"
	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/roomsync"
)

const taskBuffer = 256

// ErrStopped is returned by Call once Run has returned.
var ErrStopped = errors.New("client: session stopped")

var _ engine.Outbox = (*roomsync.Syncer)(nil)

// Options configures a Session. Store and Dial default to the HTTP API client and
// the websocket relay at the configured URLs.
type Options struct {
	Config   config.Client
	Measurer geom.Measurer
	Store    roomsync.Store
	Dial     func(ctx context.Context) (Socket, error)
	Logger   *slog.Logger
	// OnChange is called on the owner goroutine after any task that changed the
	// engine's version.
	OnChange func(version uint64)
}

// Socket is the relay connection a Session drives.
type Socket interface {
	roomsync.Conn
	Run(ctx context.Context, handle func([]byte)) error
	Close() error
}

type Session struct {
	cfg      config.Client
	log      *slog.Logger
	eng      *engine.Engine
	syncer   *roomsync.Syncer
	store    roomsync.Store
	dial     func(ctx context.Context) (Socket, error)
	onChange func(uint64)

	tasks chan func()
	done  chan struct{}

	mu   sync.Mutex
	sock Socket
}

// New builds a session. Background persistence stops when ctx ends.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger.With("room", opts.Config.RoomID)

	s := &Session{
		cfg:      opts.Config,
		log:      log,
		store:    opts.Store,
		dial:     opts.Dial,
		onChange: opts.OnChange,
		tasks:    make(chan func(), taskBuffer),
		done:     make(chan struct{}),
	}
	if s.store == nil {
		s.store = roomsync.NewAPIClient(opts.Config.HTTPURL, opts.Config.Token, nil, log)
	}
	if s.dial == nil {
		s.dial = func(ctx context.Context) (Socket, error) {
			return roomsync.Dial(ctx, s.cfg.WSURL, s.cfg.Token, s.cfg.RoomID, log)
		}
	}

	s.syncer = roomsync.NewSyncer(ctx, opts.Config.RoomID, s.store, s.post, log)
	eng, err := engine.New(engine.Options{
		Measurer:     opts.Measurer,
		Outbox:       s.syncer,
		Logger:       log,
		EraserRadius: opts.Config.EraserRadius,
		TextSize:     opts.Config.TextSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	s.eng = eng
	return s, nil
}

func (s *Session) post(fn func(roomsync.Board)) {
	s.Do(func(e *engine.Engine) { fn(e) })
}

// Do queues fn to run on the owner goroutine. It drops fn once the session has stopped.
func (s *Session) Do(fn func(e *engine.Engine)) {
	select {
	case s.tasks <- func() { fn(s.eng) }:
	case <-s.done:
	}
}

// Call runs fn on the owner goroutine and waits for it to finish.
func (s *Session) Call(fn func(e *engine.Engine)) error {
	finished := make(chan struct{})
	select {
	case s.tasks <- func() { defer close(finished); fn(s.eng) }:
	case <-s.done:
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrStopped
	}
}

// Run owns the engine until ctx ends, then closes the relay connection and waits
// for outstanding persistence calls.
func (s *Session) Run(ctx context.Context) {
	defer func() {
		close(s.done)
		s.mu.Lock()
		sock := s.sock
		s.mu.Unlock()
		if sock != nil {
			if err := sock.Close(); err != nil {
				s.log.Debug("close relay", "error", err)
			}
		}
		s.syncer.Wait()
	}()

	for {
		select {
		case fn := <-s.tasks:
			before := s.eng.Version()
			fn()
			if s.onChange != nil && s.eng.Version() != before {
				s.onChange(s.eng.Version())
			}
		case <-ctx.Done():
			return
		}
	}
}

// Start loads the persisted shapes and joins the room on the relay. Run must be
// running, or start concurrently, for the loaded shapes to be applied.
func (s *Session) Start(ctx context.Context) error {
	shapes, err := s.store.FetchShapes(ctx, s.cfg.RoomID)
	if err != nil {
		return fmt.Errorf("load room %s: %w", s.cfg.RoomID, err)
	}
	s.Do(func(e *engine.Engine) { e.Load(shapes) })
	s.log.Info("room loaded", "shapes", len(shapes))

	sock, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("join room %s: %w", s.cfg.RoomID, err)
	}
	s.mu.Lock()
	s.sock = sock
	s.mu.Unlock()
	s.syncer.Attach(sock)

	go func() {
		err := sock.Run(ctx, func(data []byte) {
			s.Do(func(e *engine.Engine) { s.syncer.HandleFrame(e, data) })
		})
		s.syncer.Detach(sock)
		if err != nil {
			s.log.Error("relay connection lost", "error", err)
		}
	}()
	return nil
}

// Connected reports whether the relay connection opened by Start is still up. Local
// edits keep persisting while it is down but are not broadcast.
func (s *Session) Connected() bool { return s.syncer.Connected() }

// Wait blocks until background persistence calls have finished.
func (s *Session) Wait() { s.syncer.Wait() }
