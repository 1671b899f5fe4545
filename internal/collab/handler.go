package collab

import (
	"net/http"
	"net/url"

	"github.com/coder/websocket"

	"github.com/nisshchayarathi/drawing-app/internal/typeid"
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// Handler upgrades authenticated requests to relay connections.
type Handler struct {
	hub     *Hub
	auth    TokenValidator
	origins []string
}

// NewHandler accepts browser connections from allowedOrigins, given as full origins
// such as "http://localhost:5173".
func NewHandler(hub *Hub, auth TokenValidator, allowedOrigins []string) *Handler {
	var patterns []string
	for _, o := range allowedOrigins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return &Handler{hub: hub, auth: auth, origins: patterns}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.hub.log.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, userID, typeid.NewClientID())
	if !h.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
