// internal/stream/record.go
package stream

import (
	"bytes"
	"encoding/json"
	"io"
)

// Backend routes. Generate answers with a stream of records.
const (
	GeneratePath = "/api/v1/generate"
	ModelsPath   = "/api/v1/models"
)

// Record is the JSON payload of one wire event
type Record struct {
	Model string `json:"model"`
	Token string `json:"token"`
	Error string `json:"error,omitempty"`
	Done  bool   `json:"done"`
}

// TokenRecord returns the wire record for a token fragment
func TokenRecord(model, token string, done bool) Record {
	return Record{Model: model, Token: token, Done: done}
}

// ErrorRecord returns the wire record for a model failure
func ErrorRecord(model, message string) Record {
	return Record{Model: model, Error: message, Done: true}
}

// Encode renders rec as a complete wire event, separator included
func Encode(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(FieldPrefix)
	buf.WriteByte(' ')

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	// Encoder terminates with a single newline; complete the separator.
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteRecord encodes rec onto w
func WriteRecord(w io.Writer, rec Record) error {
	b, err := Encode(rec)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
