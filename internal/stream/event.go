// internal/stream/event.go
package stream

// Kind distinguishes the two record types a model stream can carry
type Kind int

const (
	KindToken Kind = iota
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one routed record from the generate stream
type Event struct {
	Kind    Kind
	Model   string
	Text    string // token text, verbatim
	Message string // error message
	Done    bool   // backend marked this model finished
}

// Token builds a token event
func Token(model, text string) Event {
	return Event{Kind: KindToken, Model: model, Text: text}
}

// Error builds an error event. Errors are terminal for their model.
func Error(model, message string) Event {
	return Event{Kind: KindError, Model: model, Message: message, Done: true}
}
