package ai

import (
	"context"
	"fmt"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider sends one chat-completion request and returns the assistant reply.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// BackendError reports a completion backend failure: a non-2xx status, a
// transport error, or a malformed reply. Status is 0 when the request never
// reached the backend.
type BackendError struct {
	Provider string
	Status   int
	Reason   string
	Err      error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *BackendError) Unwrap() error { return e.Err }
