package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/docuchat/gateway/internal/ai"
	"github.com/docuchat/gateway/internal/chat"
	"github.com/docuchat/gateway/internal/store/redisstore"
)

type scriptedProvider struct {
	reply string
	err   error
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	_ = messages
	return p.reply, p.err
}

func newSocketServer(t *testing.T, provider ai.Provider) (*httptest.Server, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := redisstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0, zerolog.Nop())
	svc := chat.NewService(chat.NewCompleter(store, provider), store, zerolog.Nop())

	srv := httptest.NewServer(NewHandler(svc, "", zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, mr
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	_, raw, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode event %q: %v", raw, err)
	}
	return env.Event, env.Data
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, data any) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		t.Fatalf("write event: %v", err)
	}
}

func TestSocket_WelcomeAndMessageFlow(t *testing.T) {
	srv, mr := newSocketServer(t, &scriptedProvider{reply: "Hi there!"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, srv)

	event, _ := readEvent(t, ctx, conn)
	if event != chat.EventResponse {
		t.Fatalf("expected welcome %q first, got %q", chat.EventResponse, event)
	}

	send(t, ctx, conn, "sendMessage", map[string]any{
		"conversationId": "conv-ws-1",
		"message":        map[string]any{"text": "hello"},
	})

	event, _ = readEvent(t, ctx, conn)
	if event != chat.EventProcessingStart {
		t.Fatalf("expected %q, got %q", chat.EventProcessingStart, event)
	}

	event, data := readEvent(t, ctx, conn)
	if event != chat.EventNewMessage {
		t.Fatalf("expected %q, got %q", chat.EventNewMessage, event)
	}
	var entry chat.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.ConversationID != "conv-ws-1" || entry.Message.Text != "Hi there!" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if !mr.Exists("conv-ws-1") {
		t.Fatalf("history not persisted")
	}
}

func TestSocket_ValidationErrorKeepsConnectionUsable(t *testing.T) {
	srv, _ := newSocketServer(t, &scriptedProvider{reply: "ok"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, srv)
	readEvent(t, ctx, conn) // welcome

	send(t, ctx, conn, "sendMessage", map[string]any{
		"message": map[string]any{"text": "no conversation id"},
	})

	event, data := readEvent(t, ctx, conn)
	if event != chat.EventError {
		t.Fatalf("expected %q, got %q", chat.EventError, event)
	}
	var p chat.ErrorPayload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if p.Error != "Missing conversationId." {
		t.Fatalf("unexpected error message: %q", p.Error)
	}

	// A bad request must not tear the connection down.
	send(t, ctx, conn, "sendMessage", map[string]any{
		"conversationId": "conv-ws-2",
		"message":        map[string]any{"text": "still here"},
	})
	if event, _ := readEvent(t, ctx, conn); event != chat.EventProcessingStart {
		t.Fatalf("connection unusable after validation error, got %q", event)
	}
}

func TestSocket_MalformedEventPayload(t *testing.T) {
	srv, _ := newSocketServer(t, &scriptedProvider{reply: "ok"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, srv)
	readEvent(t, ctx, conn) // welcome

	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	event, _ := readEvent(t, ctx, conn)
	if event != chat.EventError {
		t.Fatalf("expected %q, got %q", chat.EventError, event)
	}
}

func TestSocket_ClearConversation(t *testing.T) {
	srv, mr := newSocketServer(t, &scriptedProvider{reply: "ok"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := mr.Set("conv-ws-3", `[{"role":"user","content":"old"}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	conn := dial(t, ctx, srv)
	readEvent(t, ctx, conn) // welcome

	send(t, ctx, conn, "clearConversation", map[string]any{"conversationId": "conv-ws-3"})

	event, data := readEvent(t, ctx, conn)
	if event != chat.EventConversationReset {
		t.Fatalf("expected %q, got %q", chat.EventConversationReset, event)
	}
	var payload map[string]string
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["conversationId"] != "conv-ws-3" {
		t.Fatalf("unexpected payload: %v", payload)
	}

	if mr.Exists("conv-ws-3") {
		t.Fatalf("history should be gone after clear")
	}
}
