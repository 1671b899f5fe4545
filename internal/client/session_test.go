package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nisshchayarathi/drawing-app/internal/config"
	"github.com/nisshchayarathi/drawing-app/internal/engine"
	"github.com/nisshchayarathi/drawing-app/internal/roomsync"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

type fixedMeasurer struct{}

func (fixedMeasurer) Measure(text string, fontSize float64) float64 {
	return 0.5 * fontSize * float64(len(text))
}

type memStore struct {
	mu       sync.Mutex
	initial  []shape.Shape
	fetchErr error
	created  []shape.Shape
	updated  []shape.Shape
	deleted  []int64
}

func (m *memStore) FetchShapes(context.Context, string) ([]shape.Shape, error) {
	return m.initial, m.fetchErr
}

func (m *memStore) CreateShape(_ context.Context, _ string, s shape.Shape) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, s)
	return int64(100 + len(m.created)), nil
}

func (m *memStore) UpdateShape(_ context.Context, s shape.Shape) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, s)
	return nil
}

func (m *memStore) DeleteShape(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

type fakeSocket struct {
	mu     sync.Mutex
	frames []roomsync.Outgoing
	closed bool

	incoming chan []byte
	handled  chan struct{}
	drop     chan error
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{incoming: make(chan []byte), handled: make(chan struct{}), drop: make(chan error, 1)}
}

func (f *fakeSocket) Send(o roomsync.Outgoing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, o)
	return nil
}

func (f *fakeSocket) Run(ctx context.Context, handle func([]byte)) error {
	for {
		select {
		case data := <-f.incoming:
			handle(data)
			f.handled <- struct{}{}
		case err := <-f.drop:
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSocket) sent() []roomsync.Outgoing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]roomsync.Outgoing(nil), f.frames...)
}

func (f *fakeSocket) deliver(t *testing.T, data string) {
	t.Helper()
	select {
	case f.incoming <- []byte(data):
	case <-time.After(2 * time.Second):
		t.Fatal("socket not running")
	}
	<-f.handled
}

func startSession(t *testing.T, store *memStore) (*Session, *fakeSocket, context.CancelFunc) {
	t.Helper()
	sock := newFakeSocket()
	ctx, cancel := context.WithCancel(context.Background())
	s, err := New(ctx, Options{
		Config:   config.Client{RoomID: "12", EraserRadius: 20, TextSize: 24},
		Measurer: fixedMeasurer{},
		Store:    store,
		Dial:     func(context.Context) (Socket, error) { return sock, nil },
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return s, sock, cancel
}

func shapesOf(t *testing.T, s *Session) []shape.Shape {
	t.Helper()
	var out []shape.Shape
	if err := s.Call(func(e *engine.Engine) { out = e.Shapes() }); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSessionCreateRect(t *testing.T) {
	store := &memStore{}
	s, sock, _ := startSession(t, store)

	s.Call(func(e *engine.Engine) {
		e.SetTool(engine.ToolRectangle)
		e.PointerDown(engine.PointerEvent{X: 10, Y: 10})
		e.PointerMove(engine.PointerEvent{X: 110, Y: 60})
		e.PointerUp(engine.PointerEvent{X: 110, Y: 60})
	})
	s.Wait()
	// flush the id assignment posted by the create call
	got := shapesOf(t, s)

	if len(store.created) != 1 {
		t.Fatalf("create calls = %d, want 1", len(store.created))
	}
	r := store.created[0].(*shape.Rect)
	if r.X != 10 || r.Y != 10 || r.Width != 100 || r.Height != 50 {
		t.Errorf("persisted rect = %+v", r)
	}
	if len(got) != 1 || got[0].Ident().ID != 101 {
		t.Fatalf("shapes = %+v, want one rect with id 101", got)
	}

	frames := sock.sent()
	if len(frames) != 2 || frames[0].Type != roomsync.TypeChat || frames[1].Type != roomsync.TypeUpdate {
		t.Fatalf("frames = %+v, want chat then update", frames)
	}
	if frames[1].Shape.Ident().ID != 101 {
		t.Errorf("update announces id %d, want 101", frames[1].Shape.Ident().ID)
	}
}

func TestSessionLoadsAndAppliesRemoteFrames(t *testing.T) {
	store := &memStore{initial: []shape.Shape{
		&shape.Rect{Meta: shape.Meta{ID: 1}, Width: 10, Height: 10},
	}}
	s, sock, _ := startSession(t, store)

	if got := shapesOf(t, s); len(got) != 1 {
		t.Fatalf("loaded %d shapes, want 1", len(got))
	}

	sock.deliver(t, `{"type":"chat","userId":"u2","message":"{\"shape\":{\"type\":\"circle\",\"id\":2,\"centerX\":5,\"centerY\":5,\"radius\":3}}"}`)
	sock.deliver(t, `not json`)
	sock.deliver(t, `{"type":"erase","messageIds":[1]}`)

	got := shapesOf(t, s)
	if len(got) != 1 || got[0].Kind() != shape.KindCircle {
		t.Fatalf("shapes = %+v, want only the remote circle", got)
	}
	if n := len(sock.sent()); n != 0 {
		t.Errorf("remote frames were echoed: %d frames sent", n)
	}
}

func TestSessionEraseSendsOneFrame(t *testing.T) {
	store := &memStore{initial: []shape.Shape{
		&shape.Rect{Meta: shape.Meta{ID: 7}, X: 0, Y: 0, Width: 10, Height: 10},
		&shape.Rect{Meta: shape.Meta{ID: 8}, X: 500, Y: 500, Width: 10, Height: 10},
		&shape.Rect{Meta: shape.Meta{ID: 9}, X: 40, Y: 0, Width: 10, Height: 10},
	}}
	s, sock, _ := startSession(t, store)

	s.Call(func(e *engine.Engine) {
		e.SetTool(engine.ToolEraser)
		e.PointerDown(engine.PointerEvent{X: 5, Y: 5})
		e.PointerMove(engine.PointerEvent{X: 25, Y: 5})
		e.PointerMove(engine.PointerEvent{X: 45, Y: 5})
		e.PointerUp(engine.PointerEvent{X: 45, Y: 5})
	})
	s.Wait()

	frames := sock.sent()
	if len(frames) != 1 || frames[0].Type != roomsync.TypeErase {
		t.Fatalf("frames = %+v, want one erase", frames)
	}
	if len(store.deleted) != 2 {
		t.Errorf("deleted = %v, want 7 and 9", store.deleted)
	}
	if got := shapesOf(t, s); len(got) != 1 || got[0].Ident().ID != 8 {
		t.Errorf("remaining = %+v, want id 8", got)
	}
}

func TestSessionStartFailsWhenFetchFails(t *testing.T) {
	store := &memStore{fetchErr: errors.New("down")}
	s, err := New(context.Background(), Options{
		Config:   config.Client{RoomID: "1"},
		Measurer: fixedMeasurer{},
		Store:    store,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, store.fetchErr) {
		t.Errorf("err = %v, want wrapped fetch error", err)
	}
}

func TestCallAfterStop(t *testing.T) {
	s, _, cancel := startSession(t, &memStore{})
	cancel()
	deadline := time.After(2 * time.Second)
	for {
		if err := s.Call(func(*engine.Engine) {}); errors.Is(err, ErrStopped) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("Call never reported ErrStopped")
		default:
		}
	}
}

func TestNewRequiresMeasurer(t *testing.T) {
	if _, err := New(context.Background(), Options{Store: &memStore{}}); err == nil {
		t.Error("expected error without a measurer")
	}
}

func TestSessionDetachesLostRelay(t *testing.T) {
	store := &memStore{}
	s, sock, _ := startSession(t, store)
	if !s.Connected() {
		t.Fatal("not connected after start")
	}

	sock.drop <- errors.New("message too big")
	deadline := time.Now().Add(2 * time.Second)
	for s.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("lost relay still attached")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Local edits keep persisting but are no longer queued on the dead socket.
	if err := s.Call(func(e *engine.Engine) {
		e.SetTool(engine.ToolRectangle)
		e.PointerDown(engine.PointerEvent{X: 10, Y: 10})
		e.PointerMove(engine.PointerEvent{X: 60, Y: 40})
		e.PointerUp(engine.PointerEvent{X: 60, Y: 40})
	}); err != nil {
		t.Fatal(err)
	}
	s.Wait()
	if n := len(sock.sent()); n != 0 {
		t.Errorf("%d frames sent to the lost relay", n)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.created) != 1 {
		t.Errorf("created %d shapes, want 1", len(store.created))
	}
}
