// internal/session/accumulator.go
package session

import "strings"

// Accumulator holds the growing text of every model in one session.
// It is append-only and not safe for concurrent use.
type Accumulator struct {
	texts map[string]*strings.Builder
	order []string // selection order, then late arrivals
}

// NewAccumulator creates one empty entry per model
func NewAccumulator(models []string) *Accumulator {
	a := &Accumulator{texts: make(map[string]*strings.Builder, len(models))}
	for _, m := range models {
		a.entry(m)
	}
	return a
}

// Append adds text to model's entry, creating it if needed, and returns the
// model's full text.
func (a *Accumulator) Append(model, text string) string {
	b := a.entry(model)
	b.WriteString(text)
	return b.String()
}

// Text returns the full text for model
func (a *Accumulator) Text(model string) string {
	if b, ok := a.texts[model]; ok {
		return b.String()
	}
	return ""
}

// Has reports whether model has an entry
func (a *Accumulator) Has(model string) bool {
	_, ok := a.texts[model]
	return ok
}

// Empty reports whether model has received no text
func (a *Accumulator) Empty(model string) bool {
	b, ok := a.texts[model]
	return !ok || b.Len() == 0
}

// Models returns model IDs in entry order
func (a *Accumulator) Models() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

func (a *Accumulator) entry(model string) *strings.Builder {
	b, ok := a.texts[model]
	if !ok {
		b = &strings.Builder{}
		a.texts[model] = b
		a.order = append(a.order, model)
	}
	return b
}
