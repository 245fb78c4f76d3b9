package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/docuchat/gateway/internal/store/redisstore"
)

const (
	// maxMessageChars caps the merged outgoing message; overflow is
	// truncated silently.
	maxMessageChars = 2000

	// placeholderMessage stands in when an attachments-only request carries
	// no extractable text.
	placeholderMessage = "Uploaded files only."

	processingStatus = "Analyzing input..."

	// genericErrorMessage is what clients see for backend and store
	// failures; the full diagnostic stays in the logs.
	genericErrorMessage = "An unexpected error occurred. Please try again later."
)

// Service orchestrates one inbound chat request end to end. It holds no
// per-conversation state between requests; everything durable lives in the
// history store.
type Service struct {
	completer *Completer
	store     *redisstore.Store
	log       zerolog.Logger
}

func NewService(completer *Completer, store *redisstore.Store, log zerolog.Logger) *Service {
	return &Service{
		completer: completer,
		store:     store,
		log:       log.With().Str("component", "chat").Logger(),
	}
}

// HandleMessage runs the full pipeline for one sendMessage event. Every
// failure path resolves to a single error emission on sink; nothing escapes
// to the transport layer, so the connection stays usable for the next
// message.
func (s *Service) HandleMessage(ctx context.Context, req Request, sink EventSink) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("conversation_id", req.ConversationID).Msg("message handling panicked")
			sink.Emit(EventError, ErrorPayload{Error: genericErrorMessage})
		}
	}()

	if strings.TrimSpace(req.ConversationID) == "" {
		sink.Emit(EventError, ErrorPayload{Error: "Missing conversationId."})
		return
	}

	text := strings.TrimSpace(req.Message.Text)
	if text == "" && len(req.Message.Attachments) == 0 {
		sink.Emit(EventError, ErrorPayload{Error: "No message or files provided."})
		return
	}

	mergedText, summaries := NormalizeAttachments(req.Message.Attachments, s.log)

	userMessage := strings.TrimSpace(text + " " + mergedText)
	if userMessage == "" {
		userMessage = placeholderMessage
	}

	// One-way status notification before the backend call; the sink queues
	// it without waiting on the peer.
	sink.Emit(EventProcessingStart, StatusPayload{Status: processingStatus})

	if runes := []rune(userMessage); len(runes) > maxMessageChars {
		userMessage = string(runes[:maxMessageChars])
	}

	reply, err := s.completer.Complete(ctx, req.ConversationID, userMessage, req.Prompt)
	if err != nil {
		s.log.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("completion failed")
		sink.Emit(EventError, ErrorPayload{Error: genericErrorMessage})
		return
	}

	if summaries == nil {
		summaries = []AttachmentSummary{}
	}
	sink.Emit(EventNewMessage, Entry{
		ConversationID: req.ConversationID,
		Message: EntryMessage{
			Type:        "received",
			Text:        reply,
			Time:        time.Now().UTC().Format(time.RFC3339Nano),
			Attachments: summaries,
		},
	})
}

// HandleClear drops the stored history for a conversation.
func (s *Service) HandleClear(ctx context.Context, conversationID string, sink EventSink) {
	if strings.TrimSpace(conversationID) == "" {
		sink.Emit(EventError, ErrorPayload{Error: "Missing conversationId."})
		return
	}
	if err := s.store.Delete(ctx, conversationID); err != nil {
		s.log.Error().Err(err).Str("conversation_id", conversationID).Msg("history delete failed")
		sink.Emit(EventError, ErrorPayload{Error: genericErrorMessage})
		return
	}
	sink.Emit(EventConversationReset, map[string]string{"conversationId": conversationID})
}
