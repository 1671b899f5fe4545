package collab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

type tokenIsUser struct{}

func (tokenIsUser) ValidateToken(token string) (string, error) {
	if token == "bad" {
		return "", errors.New("invalid")
	}
	return token, nil
}

func newRelay(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)
	srv := httptest.NewServer(NewHandler(hub, tokenIsUser{}, nil))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, token string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url+"?token="+token, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, c *websocket.Conn, frame string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatal(err)
	}
}

func receive(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func waitMembers(t *testing.T, hub *Hub, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(hub.Members(room)) != n {
		if time.Now().After(deadline) {
			t.Fatalf("room %s has %d members, want %d", room, len(hub.Members(room)), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

const chatFrame = `{"type":"chat","roomId":"12","message":"{\"shape\":{\"type\":\"rect\",\"x\":10,\"y\":10,\"width\":100,\"height\":50}}"}`

func TestRelayFansOutToOtherMembers(t *testing.T) {
	hub, url := newRelay(t)
	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")

	send(t, alice, `{"type":"join_room","roomId":"12"}`)
	send(t, bob, `{"type":"join_room","roomId":"12"}`)
	waitMembers(t, hub, "12", 2)

	send(t, alice, chatFrame)
	got := receive(t, bob)
	if got["type"] != "chat" || got["userId"] != "alice" || got["roomId"] != "12" {
		t.Errorf("bob got %v", got)
	}
	if msg, _ := got["message"].(string); !strings.Contains(msg, `"width":100`) {
		t.Errorf("message not forwarded verbatim: %v", got["message"])
	}

	send(t, bob, `{"type":"erase","roomId":"12","messageIds":[7,9]}`)
	got = receive(t, alice)
	if got["type"] != "erase" || got["userId"] != "bob" {
		t.Errorf("alice got %v", got)
	}
	ids, _ := got["messageIds"].([]any)
	if len(ids) != 2 {
		t.Errorf("messageIds = %v", got["messageIds"])
	}
}

func TestRelayRequiresMembership(t *testing.T) {
	_, url := newRelay(t)
	mallory := dial(t, url, "mallory")

	send(t, mallory, chatFrame)
	got := receive(t, mallory)
	if got["type"] != "error" || got["roomId"] != "12" {
		t.Errorf("got %v, want error frame", got)
	}
}

func TestRelayRejectsMalformedFrames(t *testing.T) {
	hub, url := newRelay(t)
	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	send(t, alice, `{"type":"join_room","roomId":"1"}`)
	send(t, bob, `{"type":"join_room","roomId":"1"}`)
	waitMembers(t, hub, "1", 2)

	tests := []struct {
		name  string
		frame string
	}{
		{"not json", `{`},
		{"chat without shape", `{"type":"chat","roomId":"1","message":"{}"}`},
		{"update with unknown shape", `{"type":"update","roomId":"1","shape":{"type":"star"}}`},
		{"erase without ids", `{"type":"erase","roomId":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, alice, tt.frame)
			if got := receive(t, alice); got["type"] != "error" {
				t.Errorf("got %v, want error frame", got)
			}
		})
	}

	// nothing reached bob; the next frame he sees is a valid one
	send(t, alice, `{"type":"update","roomId":"1","shape":{"type":"circle","id":3,"centerX":0,"centerY":0,"radius":2}}`)
	if got := receive(t, bob); got["type"] != "update" {
		t.Errorf("bob got %v, want the update", got)
	}
}

func TestRelayLeaveAndDisconnect(t *testing.T) {
	hub, url := newRelay(t)
	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	send(t, alice, `{"type":"join_room","roomId":"5"}`)
	send(t, bob, `{"type":"join_room","roomId":"5"}`)
	waitMembers(t, hub, "5", 2)

	// older clients spell the room field "room" on leave
	send(t, alice, `{"type":"leave_room","room":"5"}`)
	waitMembers(t, hub, "5", 1)

	bob.Close(websocket.StatusNormalClosure, "")
	waitMembers(t, hub, "5", 0)
}

func TestRelayRejectsBadTokens(t *testing.T) {
	_, url := newRelay(t)
	for _, token := range []string{"", "bad"} {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, resp, err := websocket.Dial(ctx, url+"?token="+token, nil)
		cancel()
		if err == nil {
			t.Fatalf("token %q: dial succeeded", token)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("token %q: response = %v, want 401", token, resp)
		}
	}
}
