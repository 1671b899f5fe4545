package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type User struct {
	ID        string
	Username  string
	Password  string
	Name      string
	CreatedAt time.Time
}

type Room struct {
	ID        int64
	Slug      string
	AdminID   string
	CreatedAt time.Time
}

type Shape struct {
	ID        int64
	RoomID    int64
	UserID    string
	Message   string
	CreatedAt time.Time
}

type CreateUserParams struct {
	ID       string
	Username string
	Password string
	Name     string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO users (id, username, password, name) VALUES ($1, $2, $3, $4)
		 RETURNING id, username, password, name, created_at`,
		arg.ID, arg.Username, arg.Password, arg.Name)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Name, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, username, password, name, created_at FROM users WHERE username = $1`, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Name, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, username, password, name, created_at FROM users WHERE id = $1`, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Name, &u.CreatedAt)
	return u, err
}

type CreateRoomParams struct {
	Slug    string
	AdminID string
}

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO rooms (slug, admin_id) VALUES ($1, $2) RETURNING id, slug, admin_id, created_at`,
		arg.Slug, arg.AdminID)
	var r Room
	err := row.Scan(&r.ID, &r.Slug, &r.AdminID, &r.CreatedAt)
	return r, err
}

func (q *Queries) GetRoomBySlug(ctx context.Context, slug string) (Room, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, slug, admin_id, created_at FROM rooms WHERE slug = $1`, slug)
	var r Room
	err := row.Scan(&r.ID, &r.Slug, &r.AdminID, &r.CreatedAt)
	return r, err
}

func (q *Queries) GetRoomByID(ctx context.Context, id int64) (Room, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, slug, admin_id, created_at FROM rooms WHERE id = $1`, id)
	var r Room
	err := row.Scan(&r.ID, &r.Slug, &r.AdminID, &r.CreatedAt)
	return r, err
}

// ListShapes returns a room's shapes in creation order.
func (q *Queries) ListShapes(ctx context.Context, roomID int64) ([]Shape, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, room_id, user_id, message, created_at FROM shapes WHERE room_id = $1 ORDER BY id`, roomID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Shape, error) {
		var s Shape
		err := row.Scan(&s.ID, &s.RoomID, &s.UserID, &s.Message, &s.CreatedAt)
		return s, err
	})
}

type CreateShapeParams struct {
	RoomID  int64
	UserID  string
	Message string
}

func (q *Queries) CreateShape(ctx context.Context, arg CreateShapeParams) (Shape, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO shapes (room_id, user_id, message) VALUES ($1, $2, $3)
		 RETURNING id, room_id, user_id, message, created_at`,
		arg.RoomID, arg.UserID, arg.Message)
	var s Shape
	err := row.Scan(&s.ID, &s.RoomID, &s.UserID, &s.Message, &s.CreatedAt)
	return s, err
}

// UpdateShape replaces a shape's message. It returns pgx.ErrNoRows when the id is unknown.
func (q *Queries) UpdateShape(ctx context.Context, id int64, message string) error {
	tag, err := q.db.Exec(ctx, `UPDATE shapes SET message = $2 WHERE id = $1`, id, message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteShape removes a shape. It returns pgx.ErrNoRows when the id is unknown.
func (q *Queries) DeleteShape(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM shapes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
