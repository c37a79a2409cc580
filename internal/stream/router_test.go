package stream

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRouterParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
		ok   bool
	}{
		{
			name: "token",
			raw:  `data: {"model":"m1","token":"Hello"}`,
			want: Token("m1", "Hello"),
			ok:   true,
		},
		{
			name: "token keeps whitespace",
			raw:  `data: {"model":"m1","token":" world \n"}`,
			want: Token("m1", " world \n"),
			ok:   true,
		},
		{
			name: "no space after prefix",
			raw:  `data:{"model":"m1","token":"x"}`,
			want: Token("m1", "x"),
			ok:   true,
		},
		{
			name: "empty token with done",
			raw:  `data: {"model":"m1","token":"","done":true}`,
			want: Event{Kind: KindToken, Model: "m1", Text: "", Done: true},
			ok:   true,
		},
		{
			name: "error",
			raw:  `data: {"model":"m2","error":"boom","done":true}`,
			want: Error("m2", "boom"),
			ok:   true,
		},
		{
			name: "error wins over token",
			raw:  `data: {"model":"m2","token":"x","error":"boom"}`,
			want: Error("m2", "boom"),
			ok:   true,
		},
		{
			name: "empty error falls back to token",
			raw:  `data: {"model":"m2","token":"x","error":""}`,
			want: Token("m2", "x"),
			ok:   true,
		},
		{
			name: "unicode escapes",
			raw:  `data: {"model":"m1","token":"\u003cthink\u003e"}`,
			want: Token("m1", "<think>"),
			ok:   true,
		},
		{name: "wrong prefix", raw: `event: {"model":"m1","token":"x"}`},
		{name: "comment", raw: `: keepalive`},
		{name: "empty", raw: ``},
		{name: "malformed json", raw: `data: {"model":"m1","token":`},
		{name: "not an object", raw: `data: [1,2]`},
		{name: "done marker", raw: `data: [DONE]`},
		{name: "missing model", raw: `data: {"token":"x"}`},
		{name: "missing token and error", raw: `data: {"model":"m1"}`},
		{name: "numeric token", raw: `data: {"model":"m1","token":5}`},
	}

	r := NewRouter(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Parse(tt.raw)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v (event %+v)", tt.ok, ok, got)
			}
			if ok && got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestRouterLogsMalformedPayload(t *testing.T) {
	var buf bytes.Buffer
	r := NewRouter(slog.New(slog.NewTextHandler(&buf, nil)))

	if _, ok := r.Parse(`data: {not json}`); ok {
		t.Fatal("expected malformed payload to be discarded")
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected a warning, got %q", buf.String())
	}

	buf.Reset()
	if _, ok := r.Parse(`retry: 100`); ok {
		t.Fatal("expected non-data event to be discarded")
	}
	if buf.Len() != 0 {
		t.Errorf("expected silent discard for foreign fields, got %q", buf.String())
	}
}

func TestEncodeRoundTripsThroughDecoderAndRouter(t *testing.T) {
	var wire bytes.Buffer
	records := []Record{
		TokenRecord("m1", "<b>Hello</b>", false),
		TokenRecord("m1", " wörld\n\n", false),
		ErrorRecord("m2", "model not found"),
		TokenRecord("m1", "", true),
	}
	for _, rec := range records {
		if err := WriteRecord(&wire, rec); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}

	d := NewDecoder()
	r := NewRouter(nil)
	var got []Event
	for _, raw := range d.Feed(wire.Bytes()) {
		if ev, ok := r.Parse(raw); ok {
			got = append(got, ev)
		}
	}

	want := []Event{
		{Kind: KindToken, Model: "m1", Text: "<b>Hello</b>"},
		{Kind: KindToken, Model: "m1", Text: " wörld\n\n"},
		{Kind: KindError, Model: "m2", Message: "model not found", Done: true},
		{Kind: KindToken, Model: "m1", Text: "", Done: true},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
