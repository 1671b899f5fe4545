package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nisshchayarathi/drawing-app/internal/db"
)

var (
	ErrNotFound = errors.New("room not found")
	ErrExists   = errors.New("room already exists")
)

// Store is the room persistence the service needs. *db.Queries implements it.
type Store interface {
	CreateRoom(ctx context.Context, arg db.CreateRoomParams) (db.Room, error)
	GetRoomBySlug(ctx context.Context, slug string) (db.Room, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Room struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	AdminID   string `json:"adminId"`
	CreatedAt string `json:"createdAt"`
}

// Create makes a room named slug administered by adminID.
func (s *Service) Create(ctx context.Context, slug, adminID string) (*Room, error) {
	r, err := s.store.CreateRoom(ctx, db.CreateRoomParams{Slug: slug, AdminID: adminID})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	return dbRoomToRoom(r), nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Room, error) {
	r, err := s.store.GetRoomBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return dbRoomToRoom(r), nil
}

func dbRoomToRoom(r db.Room) *Room {
	return &Room{
		ID:        r.ID,
		Slug:      r.Slug,
		AdminID:   r.AdminID,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
