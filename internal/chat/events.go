package chat

// Socket event names. Each request produces at most one processingStart and
// exactly one terminal event (newMessage or error), always in that order,
// delivered only to the originating connection.
const (
	EventProcessingStart   = "processingStart"
	EventNewMessage        = "newMessage"
	EventError             = "error"
	EventResponse          = "response"
	EventConversationReset = "conversationCleared"
)

type StatusPayload struct {
	Status string `json:"status"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// EventSink delivers events to a single client connection. Emit must not
// block the caller on peer I/O; implementations queue and write
// asynchronously.
type EventSink interface {
	Emit(event string, payload any)
}
