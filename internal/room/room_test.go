package room

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nisshchayarathi/drawing-app/internal/auth"
	"github.com/nisshchayarathi/drawing-app/internal/db"
)

type memRooms struct {
	mu    sync.Mutex
	rooms []db.Room
}

func (m *memRooms) CreateRoom(_ context.Context, arg db.CreateRoomParams) (db.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.Slug == arg.Slug {
			return db.Room{}, &pgconn.PgError{Code: "23505"}
		}
	}
	r := db.Room{ID: int64(len(m.rooms) + 1), Slug: arg.Slug, AdminID: arg.AdminID, CreatedAt: time.Unix(0, 0)}
	m.rooms = append(m.rooms, r)
	return r, nil
}

func (m *memRooms) GetRoomBySlug(_ context.Context, slug string) (db.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.Slug == slug {
			return r, nil
		}
	}
	return db.Room{}, pgx.ErrNoRows
}

func newRouter() *mux.Router {
	h := NewHandler(NewService(&memRooms{}))
	r := mux.NewRouter()
	r.Handle("/rooms", withUser(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{slug}", h.Get).Methods(http.MethodGet)
	return r
}

func withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), "user_1")))
	})
}

func TestRoomHandlers(t *testing.T) {
	router := newRouter()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"create", http.MethodPost, "/rooms", `{"name":"standup"}`, http.StatusCreated},
		{"create duplicate", http.MethodPost, "/rooms", `{"name":"standup"}`, http.StatusConflict},
		{"create blank", http.MethodPost, "/rooms", `{"name":"  "}`, http.StatusBadRequest},
		{"create bad json", http.MethodPost, "/rooms", `nope`, http.StatusBadRequest},
		{"get", http.MethodGet, "/rooms/standup", "", http.StatusOK},
		{"get missing", http.MethodGet, "/rooms/retro", "", http.StatusNotFound},
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

func TestCreateReturnsRoomID(t *testing.T) {
	router := newRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(`{"name":"a"}`)))

	var got createResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.RoomID != 1 || got.Room.AdminID != "user_1" || got.Room.Slug != "a" {
		t.Errorf("response = %+v", got)
	}
}
