package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/command"
	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/gorilla/websocket"
)

// askDispatcher opens a confirmation for "bgm ask" and reports the decision.
type askDispatcher struct {
	mu     sync.Mutex
	lines  []string
	userID int64
}

func (d *askDispatcher) Dispatch(ctx context.Context, s command.Session, line string) bool {
	d.mu.Lock()
	d.lines = append(d.lines, line)
	d.userID = s.UserID
	d.mu.Unlock()

	if strings.HasSuffix(line, "ask") {
		c, _ := interaction.Open(ctx, s.Channel, interaction.Prompt{Summary: "Proceed?", Timeout: 2 * time.Second})
		decision := c.Await(ctx)
		_ = c.Consume(ctx)
		_ = s.Channel.Send(ctx, interaction.Text{Content: decision.String()})
		return true
	}
	_ = s.Channel.Send(ctx, interaction.Text{Content: "echo: " + line})
	return true
}

type frame struct {
	Type    string            `json:"type"`
	Content string            `json:"content"`
	ID      string            `json:"id"`
	Items   []json.RawMessage `json:"items"`
}

func dial(t *testing.T, d Dispatcher, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewServer(context.Background(), d).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return f
}

func TestServer_DispatchesCommands(t *testing.T) {
	d := &askDispatcher{}
	conn := dial(t, d, "?user_id=42")

	if err := conn.WriteJSON(map[string]string{"type": "text", "content": "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("bgm calendar")); err != nil {
		t.Fatalf("write: %v", err)
	}

	f := readFrame(t, conn)
	if f.Type != "text" || f.Content != "echo: bgm calendar" {
		t.Errorf("Unexpected frame %+v", f)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.lines) != 1 || d.userID != 42 {
		t.Errorf("Only the command should be dispatched for user 42, got %q (user %d)", d.lines, d.userID)
	}
}

func TestServer_ConfirmationOverWebsocket(t *testing.T) {
	conn := dial(t, &askDispatcher{}, "")

	if err := conn.WriteJSON(map[string]string{"type": "text", "content": "bgm ask"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if f := readFrame(t, conn); f.Content != "Proceed?" {
		t.Fatalf("Expected the prompt text, got %+v", f)
	}
	group := readFrame(t, conn)
	if group.Type != "consumable-group" || group.ID == "" || len(group.Items) != 4 {
		t.Fatalf("Expected the prompt group, got %+v", group)
	}

	stale := map[string]string{"type": "action", "group_id": "stale", "action_id": "no"}
	answer := map[string]string{"type": "action", "group_id": group.ID, "action_id": "yes"}
	for _, m := range []map[string]string{stale, answer} {
		if err := conn.WriteJSON(m); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if consumed := readFrame(t, conn); consumed.Type != "consumed" || consumed.ID != group.ID {
		t.Errorf("Expected the group to be consumed, got %+v", consumed)
	}
	if result := readFrame(t, conn); result.Content != "accepted" {
		t.Errorf("Expected accepted, got %+v", result)
	}
}

type panicDispatcher struct{}

func (panicDispatcher) Dispatch(context.Context, command.Session, string) bool {
	panic("handler bug")
}

func TestServer_PanicClosesSession(t *testing.T) {
	conn := dial(t, panicDispatcher{}, "")

	if err := conn.WriteJSON(map[string]string{"type": "text", "content": "bgm calendar"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("Expected the connection to be closed after a failing command")
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		t.Fatalf("Session stayed open after a failing command: %v", err)
	}
}

func TestServer_RejectsBadUserID(t *testing.T) {
	srv := httptest.NewServer(NewServer(context.Background(), &askDispatcher{}).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user_id=abc"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %+v", resp)
	}
}

func TestServer_Health(t *testing.T) {
	srv := httptest.NewServer(NewServer(context.Background(), &askDispatcher{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    interaction.Reply
		ok      bool
	}{
		{name: "text frame", payload: `{"type":"text","content":"bgm c"}`, want: interaction.Reply{Kind: interaction.ReplyText, Content: "bgm c"}, ok: true},
		{name: "action frame", payload: `{"type":"action","group_id":"g","action_id":"yes"}`, want: interaction.Reply{Kind: interaction.ReplyAction, GroupID: "g", ActionID: "yes"}, ok: true},
		{name: "action without group", payload: `{"type":"action","action_id":"yes"}`},
		{name: "unknown type", payload: `{"type":"sticker"}`},
		{name: "raw text", payload: " bgm help ", want: interaction.Reply{Kind: interaction.ReplyText, Content: "bgm help"}, ok: true},
		{name: "blank", payload: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeReply([]byte(tt.payload))
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("decodeReply(%q) = %+v, %v; want %+v, %v", tt.payload, got, ok, tt.want, tt.ok)
			}
		})
	}
}
