// Package chat implements the message-orchestration pipeline: it validates
// inbound socket requests, folds attachment text into the user message,
// drives one completion exchange against the configured provider, and emits
// ordered events back to the originating connection.
package chat

// AttachmentRef is a client-declared attachment whose text was already
// extracted by the upload path. ExtractedText may be empty (unsupported type
// or failed extraction) but the field is always present.
type AttachmentRef struct {
	FileID        string   `json:"file_id"`
	FileName      string   `json:"file_name"`
	ExtractedText string   `json:"extracted_text"`
	Summary       string   `json:"summary,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// InboundMessage is the message body of a sendMessage socket event.
type InboundMessage struct {
	Text        string          `json:"text"`
	Attachments []AttachmentRef `json:"attachments"`
}

// Request is one inbound chat request. It lives only for the duration of a
// single orchestration pass and is never persisted.
type Request struct {
	ConversationID string         `json:"conversationId"`
	Message        InboundMessage `json:"message"`
	Prompt         string         `json:"prompt"`
}

// AttachmentSummary is echoed back to the client alongside the assistant
// reply, one per accepted attachment.
type AttachmentSummary struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	FileID  string   `json:"file_id"`
}

// EntryMessage is the assistant message inside a ChatEntry.
type EntryMessage struct {
	Type        string              `json:"type"`
	Text        string              `json:"text"`
	Time        string              `json:"time"`
	Attachments []AttachmentSummary `json:"attachments"`
}

// Entry is the newMessage payload. Constructed fresh per response; only the
// raw text content ends up in conversation history.
type Entry struct {
	ConversationID string       `json:"conversationId"`
	Message        EntryMessage `json:"message"`
}
