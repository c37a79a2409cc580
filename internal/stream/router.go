// internal/stream/router.go
package stream

import (
	"io"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

// FieldPrefix starts every record the router accepts
const FieldPrefix = "data:"

// Router turns raw events into typed Events. Anything it cannot use is
// dropped; a bad record never ends the stream.
type Router struct {
	logger *slog.Logger
}

// NewRouter creates a router. A nil logger discards warnings.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Router{logger: logger}
}

// Parse decodes one raw event. The bool is false when the event is discarded.
func (r *Router) Parse(raw string) (Event, bool) {
	if !strings.HasPrefix(raw, FieldPrefix) {
		return Event{}, false
	}
	payload := strings.TrimSpace(raw[len(FieldPrefix):])

	if !gjson.Valid(payload) {
		r.warn("malformed payload", payload)
		return Event{}, false
	}
	doc := gjson.Parse(payload)
	if !doc.IsObject() {
		r.warn("payload is not an object", payload)
		return Event{}, false
	}

	fields := doc.Map()
	model, ok := fields["model"]
	if !ok || model.Type != gjson.String || model.Str == "" {
		r.warn("payload has no model", payload)
		return Event{}, false
	}
	done := fields["done"].Bool()

	if msg, ok := fields["error"]; ok && msg.Type != gjson.Null && msg.String() != "" {
		return Error(model.Str, msg.String()), true
	}

	token, ok := fields["token"]
	switch {
	case !ok || token.Type == gjson.Null:
		r.warn("payload has neither token nor error", payload)
		return Event{}, false
	case token.Type != gjson.String:
		r.warn("token is not a string", payload)
		return Event{}, false
	}
	ev := Token(model.Str, token.Str)
	ev.Done = done
	return ev, true
}

func (r *Router) warn(msg, payload string) {
	r.logger.Warn("stream: discarding event: "+msg, "payload", truncate(payload, 200))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
