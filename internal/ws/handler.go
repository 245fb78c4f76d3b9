// Package ws serves the persistent chat socket. Each connection gets a read
// loop and a write queue; every inbound event is dispatched to its own
// goroutine so conversations make progress independently, and replies go to
// the originating connection only.
package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/docuchat/gateway/internal/chat"
)

// Inbound event names.
const (
	eventSendMessage       = "sendMessage"
	eventClearConversation = "clearConversation"
)

// envelope is the wire shape of every inbound socket event.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Handler struct {
	chat          *chat.Service
	allowedOrigin string
	log           zerolog.Logger
}

func NewHandler(chatSvc *chat.Service, allowedOrigin string, log zerolog.Logger) *Handler {
	return &Handler{
		chat:          chatSvc,
		allowedOrigin: allowedOrigin,
		log:           log.With().Str("component", "ws").Logger(),
	}
}

// ServeHTTP upgrades the request and runs the connection until the client
// goes away. Handler failures resolve to error events on this connection;
// nothing here tears the connection down mid-conversation.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: []string{"*"}}
	if h.allowedOrigin != "" && h.allowedOrigin != "*" {
		opts.OriginPatterns = []string{h.allowedOrigin}
	}

	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("websocket accept failed")
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			h.log.Debug().Err(closeErr).Msg("websocket close")
		}
	}()

	h.log.Info().Str("remote", r.RemoteAddr).Msg("chat socket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sink := newConnSink(ws, h.log)
	defer sink.Close()

	sink.Emit(chat.EventResponse, map[string]string{"data": "Welcome!"})

	for {
		_, raw, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.log.Debug().Str("remote", r.RemoteAddr).Msg("chat socket closed by client")
			} else {
				h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("chat socket read error")
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			sink.Emit(chat.EventError, chat.ErrorPayload{Error: "Malformed event payload."})
			continue
		}

		switch env.Event {
		case eventSendMessage:
			var req chat.Request
			if err := json.Unmarshal(env.Data, &req); err != nil {
				sink.Emit(chat.EventError, chat.ErrorPayload{Error: "Malformed sendMessage payload."})
				continue
			}
			// Own goroutine per request: a slow completion for one
			// conversation must not delay events for another.
			go h.chat.HandleMessage(ctx, req, sink)

		case eventClearConversation:
			var req struct {
				ConversationID string `json:"conversationId"`
			}
			if err := json.Unmarshal(env.Data, &req); err != nil {
				sink.Emit(chat.EventError, chat.ErrorPayload{Error: "Malformed clearConversation payload."})
				continue
			}
			go h.chat.HandleClear(ctx, req.ConversationID, sink)

		default:
			h.log.Warn().Str("event", env.Event).Msg("unknown socket event")
		}
	}
}
