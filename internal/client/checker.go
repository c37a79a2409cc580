// internal/client/checker.go
package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"arena/internal/stream"
)

var ErrBadReply = errors.New("unexpected reply from backend")

// Checker asks the backend which models are installed
type Checker struct {
	baseURL string
	client  *RetryableClient
	timeout time.Duration
}

func NewChecker(baseURL string, client *RetryableClient, timeout time.Duration) *Checker {
	return &Checker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

// Available returns the installed model names as the backend reports them,
// e.g. "qwen3:latest".
func (c *Checker) Available(ctx context.Context) ([]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+stream.ModelsPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	// One attempt only: a status check must not stall the UI.
	resp, err := c.client.HTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	doc := string(data)
	if !gjson.Valid(doc) {
		return nil, ErrBadReply
	}
	if e := gjson.Get(doc, "error"); e.Exists() && e.String() != "" {
		return nil, errors.New(e.String())
	}

	var names []string
	for _, m := range gjson.Get(doc, "models").Array() {
		if m.Type == gjson.String {
			names = append(names, m.String())
		}
	}
	return names, nil
}

// Status reports, for each wanted model, whether an installed name matches
// it. Installed names carry tags, so "qwen3" matches "qwen3:latest".
func (c *Checker) Status(ctx context.Context, wanted []string) (map[string]bool, error) {
	installed, err := c.Available(ctx)
	status := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		status[w] = false
	}
	if err != nil {
		return status, err
	}
	for _, w := range wanted {
		status[w] = IsInstalled(w, installed)
	}
	return status, nil
}

// IsInstalled reports whether model appears in installed by substring
func IsInstalled(model string, installed []string) bool {
	for _, name := range installed {
		if name == model || strings.Contains(name, model) {
			return true
		}
	}
	return false
}

// DefaultSelection returns the configured models that are installed, in
// configured order.
func DefaultSelection(configured []string, status map[string]bool) []string {
	var out []string
	for _, m := range configured {
		if status[m] {
			out = append(out, m)
		}
	}
	return out
}
