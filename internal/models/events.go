package models

// ExecutionEvent is one message pushed to streaming clients while an
// execution runs, over SSE or the websocket endpoint.
type ExecutionEvent struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
}

// Event types
const (
	EventTypeDelta  = "delta"
	EventTypeResult = "result"
	EventTypeError  = "error"
)

// DeltaData carries one content fragment.
type DeltaData struct {
	Content string `json:"content"`
}

// NewDeltaEvent wraps a content fragment.
func NewDeltaEvent(content string) ExecutionEvent {
	return ExecutionEvent{EventType: EventTypeDelta, Data: DeltaData{Content: content}}
}

// NewResultEvent wraps a finished execution record.
func NewResultEvent(record interface{}) ExecutionEvent {
	return ExecutionEvent{EventType: EventTypeResult, Data: record}
}

// NewErrorEvent wraps a terminal failure.
func NewErrorEvent(resp ErrorResponse) ExecutionEvent {
	return ExecutionEvent{EventType: EventTypeError, Data: resp}
}
