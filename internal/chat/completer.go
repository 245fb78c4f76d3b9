package chat

import (
	"errors"
	"fmt"
	"strings"

	"context"

	"github.com/docuchat/gateway/internal/ai"
	"github.com/docuchat/gateway/internal/store/redisstore"
)

// ErrEmptyReply means the backend answered without message content. History
// is left untouched in that case so empty assistant turns never pollute it.
var ErrEmptyReply = errors.New("completion backend returned no message content")

// Completer runs one completion exchange: read history, add the new turns,
// call the provider, and persist the grown sequence only on success.
type Completer struct {
	store    *redisstore.Store
	provider ai.Provider
}

func NewCompleter(store *redisstore.Store, provider ai.Provider) *Completer {
	return &Completer{store: store, provider: provider}
}

// Complete returns the assistant reply for userMessage in the context of the
// conversation's stored history. On success the stored history grows by
// exactly the system (if any), user, and assistant turns of this exchange;
// on any failure it is left exactly as it was.
func (c *Completer) Complete(ctx context.Context, conversationID, userMessage, systemPrompt string) (string, error) {
	turns := c.store.Get(ctx, conversationID)

	if systemPrompt != "" {
		turns = append(turns, redisstore.Turn{Role: redisstore.RoleSystem, Content: systemPrompt})
	}
	turns = append(turns, redisstore.Turn{Role: redisstore.RoleUser, Content: userMessage})

	messages := make([]ai.Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, ai.Message{Role: t.Role, Content: t.Content})
	}

	reply, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyReply
	}

	turns = append(turns, redisstore.Turn{Role: redisstore.RoleAssistant, Content: reply})
	if err := c.store.Set(ctx, conversationID, turns); err != nil {
		// A reply the client sees as successful must be in history; surface
		// the write failure instead of a false success.
		return "", fmt.Errorf("persist history: %w", err)
	}

	return reply, nil
}
