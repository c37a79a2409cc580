// internal/session/types.go
package session

import (
	"context"
	"errors"
	"io"

	"arena/internal/thinking"
)

// StoppedMessage is reported for models that produced nothing before a cancel
const StoppedMessage = "Generation stopped"

var (
	ErrNoModels    = errors.New("no models selected")
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrTransport   = errors.New("stream transport failed")
	ErrDuplicate   = errors.New("model selected twice")
)

// State is the lifecycle position of a session
type State int

const (
	StateIdle State = iota
	StateActive
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has ended
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// ModelStatus tracks one model within a session
type ModelStatus int

const (
	ModelPending ModelStatus = iota
	ModelStreaming
	ModelDone
	ModelErrored
	ModelStopped
)

func (s ModelStatus) String() string {
	switch s {
	case ModelPending:
		return "pending"
	case ModelStreaming:
		return "streaming"
	case ModelDone:
		return "done"
	case ModelErrored:
		return "error"
	case ModelStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EndReason says how a session ended. Err is set for StateFailed.
type EndReason struct {
	State State
	Err   error
}

// Request is one generation request
type Request struct {
	Prompt string   `json:"prompt"`
	Models []string `json:"models"`
}

// Transport opens the raw event stream for a request. Closing the returned
// body, or cancelling ctx, stops delivery.
type Transport interface {
	Open(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Observer receives session output. Calls for one session come from that
// session's reading goroutine, one at a time.
type Observer interface {
	OnUpdate(model string, seg thinking.Segmentation)
	OnError(model, message string)
	OnSessionEnd(reason EndReason)
}

// ModelDoneObserver is implemented by observers that want to know when the
// backend marks a model finished.
type ModelDoneObserver interface {
	OnModelDone(model string)
}

// Binder is implemented by observers that want a separate observer per
// session, for example to tag output with the session ID.
type Binder interface {
	ForSession(id string) Observer
}

// ModelResult is the per-model view of a session
type ModelResult struct {
	Model   string
	Status  ModelStatus
	Text    string
	Error   string
	Segment thinking.Segmentation
}

// Snapshot is a consistent copy of session state
type Snapshot struct {
	ID     string
	Prompt string
	State  State
	Err    error
	Models []ModelResult
}
