// internal/client/transport.go
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"arena/internal/session"
	"arena/internal/stream"
)

// StatusError is a non-2xx reply from the backend
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("backend returned HTTP %d: %s", e.Code, e.Message)
}

// Transport opens generate streams on the backend server
type Transport struct {
	baseURL string
	client  *RetryableClient
	logger  *slog.Logger
}

var _ session.Transport = (*Transport)(nil)

func NewTransport(baseURL string, client *RetryableClient, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = client.logger
	}
	return &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Open posts the request and returns the event stream body
func (t *Transport) Open(ctx context.Context, req session.Request) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := NewRequestWithBody(ctx, http.MethodPost, t.baseURL+stream.GeneratePath, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.DoWithRetry(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readStatusError(resp)
	}

	t.logger.Debug("client: stream opened", "models", strings.Join(req.Models, ","))
	return resp.Body, nil
}

func readStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(data))
	if gjson.Valid(msg) {
		if e := gjson.Get(msg, "error"); e.Exists() {
			msg = e.String()
		}
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}
