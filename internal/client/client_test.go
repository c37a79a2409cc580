// internal/client/client_test.go
package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"arena/internal/session"
	"arena/internal/stream"
)

func fastRetry(attempts int) *RetryableClient {
	return NewRetryableClient(RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}, nil)
}

func TestDoWithRetryRetriesBusyServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("expected body to be resent, got %q", body)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	req, err := NewRequestWithBody(context.Background(), http.MethodPost, srv.URL, []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := fastRetry(3).DoWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("DoWithRetry: %v", err)
	}
	defer resp.Body.Close()

	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestDoWithRetryGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := fastRetry(2).DoWithRetry(context.Background(), req)
	if !errors.Is(err, ErrRateLimit) {
		t.Errorf("expected ErrRateLimit, got %v", err)
	}
}

func TestDoWithRetryDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := fastRetry(3).DoWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("DoWithRetry: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest || calls.Load() != 1 {
		t.Errorf("expected a single 400, got %d after %d calls", resp.StatusCode, calls.Load())
	}
}

func TestShouldRetryStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, false},
		{502, true},
		{503, true},
		{504, true},
	}
	for _, tt := range tests {
		if got := shouldRetryStatus(tt.code); got != tt.want {
			t.Errorf("shouldRetryStatus(%d): expected %v, got %v", tt.code, tt.want, got)
		}
	}
}

func TestTransportOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != stream.GeneratePath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("expected event-stream accept header, got %q", r.Header.Get("Accept"))
		}
		var req session.Request
		json.NewDecoder(r.Body).Decode(&req)
		if req.Prompt != "hi" || !reflect.DeepEqual(req.Models, []string{"m1", "m2"}) {
			t.Errorf("unexpected body %+v", req)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"model\":\"m1\",\"token\":\"x\"}\n\n")
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL+"/", fastRetry(1), nil)
	body, err := tr.Open(context.Background(), session.Request{Prompt: "hi", Models: []string{"m1", "m2"}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if string(data) != "data: {\"model\":\"m1\",\"token\":\"x\"}\n\n" {
		t.Errorf("unexpected stream %q", data)
	}
}

func TestTransportOpenStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"prompt is empty"}`)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, fastRetry(1), nil)
	_, err := tr.Open(context.Background(), session.Request{Models: []string{"m1"}})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusBadRequest || se.Message != "prompt is empty" {
		t.Errorf("unexpected status error %+v", se)
	}
}

func TestTransportDrivesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: {\"model\":\"m1\",\"token\":\"<think>x</think>Hi\"}\n\n")
		io.WriteString(w, "data: {\"model\":\"m1\",\"token\":\"\",\"done\":true}\n\n")
	}))
	defer srv.Close()

	c := session.NewController(NewTransport(srv.URL, fastRetry(1), nil), nil)
	s, err := c.Start(context.Background(), session.Request{Prompt: "p", Models: []string{"m1"}})
	if err != nil {
		t.Fatal(err)
	}
	if reason := s.Wait(); reason.State != session.StateCompleted {
		t.Fatalf("expected completed, got %+v", reason)
	}
	if seg := s.Segmentation("m1"); seg.Thinking != "x" || seg.Response != "Hi" {
		t.Errorf("unexpected segmentation %+v", seg)
	}
}

func TestCheckerStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != stream.ModelsPath {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"models":["qwen3:latest","llama3.2:3b","nomic-embed-text:latest"]}`)
	}))
	defer srv.Close()

	ch := NewChecker(srv.URL, fastRetry(1), time.Second)
	status, err := ch.Status(context.Background(), []string{"qwen3", "llama3.2", "gemma3"})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	want := map[string]bool{"qwen3": true, "llama3.2": true, "gemma3": false}
	if !reflect.DeepEqual(status, want) {
		t.Errorf("expected %v, got %v", want, status)
	}
	if got := DefaultSelection([]string{"gemma3", "llama3.2", "qwen3"}, status); !reflect.DeepEqual(got, []string{"llama3.2", "qwen3"}) {
		t.Errorf("unexpected default selection %v", got)
	}
}

func TestCheckerReportsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":"connection refused"}`)
	}))
	defer srv.Close()

	ch := NewChecker(srv.URL, fastRetry(1), time.Second)
	status, err := ch.Status(context.Background(), []string{"qwen3"})
	if err == nil || err.Error() != "connection refused" {
		t.Errorf("expected backend error, got %v", err)
	}
	if status["qwen3"] {
		t.Error("expected models to be unavailable on error")
	}
}

func TestCheckerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ch := NewChecker(srv.URL, fastRetry(1), 50*time.Millisecond)
	if _, err := ch.Available(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
