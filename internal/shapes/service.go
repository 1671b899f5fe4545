package shapes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/nisshchayarathi/drawing-app/internal/db"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidID    = errors.New("invalid id")
	ErrInvalidShape = errors.New("invalid shape message")
)

// Store is the shape persistence the service needs. *db.Queries implements it.
type Store interface {
	GetRoomByID(ctx context.Context, id int64) (db.Room, error)
	ListShapes(ctx context.Context, roomID int64) ([]db.Shape, error)
	CreateShape(ctx context.Context, arg db.CreateShapeParams) (db.Shape, error)
	UpdateShape(ctx context.Context, id int64, message string) error
	DeleteShape(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Record is one persisted shape as served to clients: message is the JSON-encoded
// {"shape": ...} envelope.
type Record struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// ParseID parses a numeric room or shape id from a URL.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

func (s *Service) checkRoom(ctx context.Context, roomID int64) error {
	if _, err := s.store.GetRoomByID(ctx, roomID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get room: %w", err)
	}
	return nil
}

// List returns the room's records in creation order.
func (s *Service) List(ctx context.Context, roomID int64) ([]Record, error) {
	if err := s.checkRoom(ctx, roomID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListShapes(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list shapes: %w", err)
	}
	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = Record{ID: r.ID, Message: r.Message, UserID: r.UserID}
	}
	return records, nil
}

// Decoded returns the room's shapes with their ids attached. Records that no longer
// decode are skipped.
func (s *Service) Decoded(ctx context.Context, roomID int64) ([]shape.Shape, error) {
	records, err := s.List(ctx, roomID)
	if err != nil {
		return nil, err
	}
	out := make([]shape.Shape, 0, len(records))
	for _, r := range records {
		sh, err := shape.DecodeMessage([]byte(r.Message))
		if err != nil {
			slog.Warn("skipping undecodable shape", "id", r.ID, "error", err)
			continue
		}
		sh.Ident().ID = r.ID
		out = append(out, sh)
	}
	return out, nil
}

func validate(message string) error {
	if _, err := shape.DecodeMessage([]byte(message)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, roomID int64, userID, message string) (int64, error) {
	if err := validate(message); err != nil {
		return 0, err
	}
	if err := s.checkRoom(ctx, roomID); err != nil {
		return 0, err
	}
	row, err := s.store.CreateShape(ctx, db.CreateShapeParams{RoomID: roomID, UserID: userID, Message: message})
	if err != nil {
		return 0, fmt.Errorf("create shape: %w", err)
	}
	return row.ID, nil
}

func (s *Service) Update(ctx context.Context, id int64, message string) error {
	if err := validate(message); err != nil {
		return err
	}
	if err := s.store.UpdateShape(ctx, id, message); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update shape: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteShape(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete shape: %w", err)
	}
	return nil
}
