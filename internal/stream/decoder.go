// internal/stream/decoder.go
package stream

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Separator ends every event on the wire
const Separator = "\n\n"

var separator = []byte(Separator)

// Decoder re-frames an arbitrarily chunked byte stream into raw events.
//
// Bytes stay pending until the separator that closes their event arrives, so
// a multi-byte character split across two chunks is decoded only once it is
// whole. Complete events go through a UTF-8 decoder that replaces invalid
// sequences with U+FFFD.
type Decoder struct {
	pending []byte
	scanned int // bytes of pending already searched for a separator
	utf8    *encoding.Decoder
}

func NewDecoder() *Decoder {
	return &Decoder{utf8: unicode.UTF8.NewDecoder()}
}

// Feed appends chunk and returns every event completed by it, in arrival order.
// It returns nil when the chunk does not complete any event.
func (d *Decoder) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	d.pending = append(d.pending, chunk...)

	var events []string
	start := 0
	from := d.scanned
	for {
		i := bytes.Index(d.pending[from:], separator)
		if i < 0 {
			break
		}
		end := from + i
		events = append(events, d.decode(d.pending[start:end]))
		start = end + len(separator)
		from = start
	}

	if start > 0 {
		rest := len(d.pending) - start
		copy(d.pending, d.pending[start:])
		d.pending = d.pending[:rest]
	}
	// The last byte may be the first half of a separator.
	d.scanned = max(len(d.pending)-(len(separator)-1), 0)
	return events
}

// Pending returns the incomplete trailing fragment. At end of stream it marks
// a truncated event and must not be routed.
func (d *Decoder) Pending() string {
	return d.decode(d.pending)
}

// Reset drops any pending fragment.
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
	d.scanned = 0
}

func (d *Decoder) decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, err := d.utf8.Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}
