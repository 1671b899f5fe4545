package roomsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

// ErrNoID is returned when a shape that was never persisted is sent to the store.
var ErrNoID = errors.New("roomsync: shape has no id")

// Store is the persistence collaborator.
type Store interface {
	FetchShapes(ctx context.Context, roomID string) ([]shape.Shape, error)
	CreateShape(ctx context.Context, roomID string, s shape.Shape) (int64, error)
	UpdateShape(ctx context.Context, s shape.Shape) error
	DeleteShape(ctx context.Context, id int64) error
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}

// Record is one persisted shape as the API lists it.
type Record struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
}

type recordList struct {
	Messages []Record `json:"messages"`
}

type messageBody struct {
	Message string `json:"message"`
}

type createdBody struct {
	ID int64 `json:"id"`
}

// APIClient talks to the persistence API over HTTP.
type APIClient struct {
	base  string
	token string
	hc    *http.Client
	log   *slog.Logger
}

// NewAPIClient returns a client for the API at baseURL. token is sent as a bearer
// token on every request when non-empty; hc and log default when nil.
func NewAPIClient(baseURL, token string, hc *http.Client, log *slog.Logger) *APIClient {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &APIClient{base: strings.TrimRight(baseURL, "/"), token: token, hc: hc, log: log}
}

// FetchShapes loads the room's shapes in creation order. Records whose payload cannot be
// decoded are logged and skipped.
func (c *APIClient) FetchShapes(ctx context.Context, roomID string) ([]shape.Shape, error) {
	var list recordList
	if err := c.do(ctx, "fetch shapes", http.MethodGet, "/rooms/"+url.PathEscape(roomID)+"/shapes", nil, &list); err != nil {
		return nil, err
	}

	shapes := make([]shape.Shape, 0, len(list.Messages))
	for _, rec := range list.Messages {
		s, err := shape.DecodeMessage([]byte(rec.Message))
		if err != nil {
			c.log.Warn("skipping stored shape", "error", err, "id", rec.ID)
			continue
		}
		s.Ident().ID = rec.ID
		shapes = append(shapes, s)
	}
	return shapes, nil
}

func (c *APIClient) CreateShape(ctx context.Context, roomID string, s shape.Shape) (int64, error) {
	msg, err := shape.EncodeMessage(s)
	if err != nil {
		return 0, err
	}
	var out createdBody
	if err := c.do(ctx, "create shape", http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/shapes", messageBody{msg}, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *APIClient) UpdateShape(ctx context.Context, s shape.Shape) error {
	id := s.Ident().ID
	if id == 0 {
		return fmt.Errorf("update shape: %w", ErrNoID)
	}
	msg, err := shape.EncodeMessage(s)
	if err != nil {
		return err
	}
	return c.do(ctx, "update shape", http.MethodPut, "/shapes/"+strconv.FormatInt(id, 10), messageBody{msg}, nil)
}

func (c *APIClient) DeleteShape(ctx context.Context, id int64) error {
	return c.do(ctx, "delete shape", http.MethodDelete, "/shapes/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *APIClient) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
