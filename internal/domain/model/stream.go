package model

// StreamStatus is the lifecycle state of one in-flight model response.
type StreamStatus string

const (
	StreamPending   StreamStatus = "pending"
	StreamStreaming StreamStatus = "streaming"
	StreamDone      StreamStatus = "done"
	StreamFailed    StreamStatus = "failed"
)

// Terminal reports whether no further buffer writes are allowed.
func (s StreamStatus) Terminal() bool {
	return s == StreamDone || s == StreamFailed
}

// StreamHandle tracks one outstanding request: the model message it feeds
// and the accumulation buffer. It lives only for the duration of the
// request and is never persisted. A session has at most one active handle.
type StreamHandle struct {
	SessionID string
	MessageID string
	Buffer    string
	Status    StreamStatus
}

func NewStreamHandle(sessionID, messageID string) *StreamHandle {
	return &StreamHandle{
		SessionID: sessionID,
		MessageID: messageID,
		Status:    StreamPending,
	}
}
