package shapes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/nisshchayarathi/drawing-app/internal/auth"
	"github.com/nisshchayarathi/drawing-app/internal/db"
	"github.com/nisshchayarathi/drawing-app/internal/roomsync"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

type memStore struct {
	mu     sync.Mutex
	rooms  map[int64]bool
	shapes []db.Shape
	nextID int64
}

func newMemStore(rooms ...int64) *memStore {
	m := &memStore{rooms: make(map[int64]bool)}
	for _, id := range rooms {
		m.rooms[id] = true
	}
	return m
}

func (m *memStore) GetRoomByID(_ context.Context, id int64) (db.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.rooms[id] {
		return db.Room{}, pgx.ErrNoRows
	}
	return db.Room{ID: id}, nil
}

func (m *memStore) ListShapes(_ context.Context, roomID int64) ([]db.Shape, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Shape
	for _, s := range m.shapes {
		if s.RoomID == roomID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) CreateShape(_ context.Context, arg db.CreateShapeParams) (db.Shape, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s := db.Shape{ID: m.nextID, RoomID: arg.RoomID, UserID: arg.UserID, Message: arg.Message}
	m.shapes = append(m.shapes, s)
	return s, nil
}

func (m *memStore) UpdateShape(_ context.Context, id int64, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.shapes {
		if m.shapes[i].ID == id {
			m.shapes[i].Message = message
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memStore) DeleteShape(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.shapes {
		if m.shapes[i].ID == id {
			m.shapes = append(m.shapes[:i], m.shapes[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func withUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next(w, r.WithContext(auth.WithUserID(r.Context(), "user_1")))
	})
}

func newRouter(store Store) *mux.Router {
	h := NewHandler(NewService(store))
	r := mux.NewRouter()
	r.HandleFunc("/rooms/{roomId}/shapes", h.List).Methods(http.MethodGet)
	r.Handle("/rooms/{roomId}/shapes", withUser(h.Create)).Methods(http.MethodPost)
	r.Handle("/shapes/{id}", withUser(h.Update)).Methods(http.MethodPut)
	r.Handle("/shapes/{id}", withUser(h.Delete)).Methods(http.MethodDelete)
	return r
}

const rectMessage = `{"shape":{"type":"rect","x":10,"y":10,"width":100,"height":50}}`

func body(message string) string {
	data, _ := json.Marshal(map[string]string{"message": message})
	return string(data)
}

func TestHandlers(t *testing.T) {
	store := newMemStore(12)
	store.shapes = []db.Shape{{ID: 1, RoomID: 12, UserID: "u", Message: rectMessage}}
	store.nextID = 1
	router := newRouter(store)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"list", http.MethodGet, "/rooms/12/shapes", "", http.StatusOK},
		{"list unknown room", http.MethodGet, "/rooms/99/shapes", "", http.StatusNotFound},
		{"list bad room id", http.MethodGet, "/rooms/abc/shapes", "", http.StatusBadRequest},
		{"create", http.MethodPost, "/rooms/12/shapes", body(rectMessage), http.StatusCreated},
		{"create unknown room", http.MethodPost, "/rooms/99/shapes", body(rectMessage), http.StatusNotFound},
		{"create without shape", http.MethodPost, "/rooms/12/shapes", body(`{"other":1}`), http.StatusBadRequest},
		{"create unknown type", http.MethodPost, "/rooms/12/shapes", body(`{"shape":{"type":"star"}}`), http.StatusBadRequest},
		{"create empty message", http.MethodPost, "/rooms/12/shapes", `{}`, http.StatusBadRequest},
		{"update", http.MethodPut, "/shapes/1", body(`{"shape":{"type":"circle","centerX":1,"centerY":1,"radius":4}}`), http.StatusOK},
		{"update missing", http.MethodPut, "/shapes/42", body(rectMessage), http.StatusNotFound},
		{"update invalid", http.MethodPut, "/shapes/1", body(`not json`), http.StatusBadRequest},
		{"delete", http.MethodDelete, "/shapes/1", "", http.StatusOK},
		{"delete again", http.MethodDelete, "/shapes/1", "", http.StatusNotFound},
		{"delete bad id", http.MethodDelete, "/shapes/-3", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

// The client-side store and the server handlers agree on the wire format.
func TestAPIClientRoundTrip(t *testing.T) {
	store := newMemStore(12)
	srv := httptest.NewServer(newRouter(store))
	defer srv.Close()
	ctx := context.Background()
	c := roomsync.NewAPIClient(srv.URL, "tok", nil, nil)

	id, err := c.CreateShape(ctx, "12", &shape.Rect{Meta: shape.Meta{Key: "k"}, X: 10, Y: 10, Width: 100, Height: 50})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateShape(ctx, "12", &shape.Pencil{Points: []shape.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}}); err != nil {
		t.Fatal(err)
	}

	moved := &shape.Rect{Meta: shape.Meta{ID: id, Key: "k"}, X: 15, Y: 5, Width: 100, Height: 50}
	if err := c.UpdateShape(ctx, moved); err != nil {
		t.Fatal(err)
	}

	got, err := c.FetchShapes(ctx, "12")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("fetched %d shapes, want 2", len(got))
	}
	r, ok := got[0].(*shape.Rect)
	if !ok || r.ID != id || r.X != 15 || r.Key != "k" {
		t.Errorf("first shape = %+v", got[0])
	}
	if got[1].Kind() != shape.KindPencil {
		t.Errorf("second shape = %+v", got[1])
	}

	if err := c.DeleteShape(ctx, id); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.FetchShapes(ctx, "12"); len(got) != 1 {
		t.Errorf("after delete %d shapes, want 1", len(got))
	}
	if store.shapes[0].UserID != "user_1" {
		t.Errorf("user id = %q", store.shapes[0].UserID)
	}
}

func TestDecodedSkipsBadRecords(t *testing.T) {
	store := newMemStore(3)
	store.shapes = []db.Shape{
		{ID: 1, RoomID: 3, Message: rectMessage},
		{ID: 2, RoomID: 3, Message: `garbage`},
	}
	got, err := NewService(store).Decoded(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Ident().ID != 1 {
		t.Errorf("decoded = %+v", got)
	}
}
