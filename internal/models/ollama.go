// internal/models/ollama.go
package models

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>\n\n"
)

// NewClient returns an OpenAI-compatible client for an Ollama server.
// Retries are left to the caller.
func NewClient(baseURL, apiKey string, httpClient *http.Client) openai.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return openai.NewClient(opts...)
}

// ListModels returns the IDs of the models installed on the server
func ListModels(ctx context.Context, client openai.Client) ([]string, error) {
	page, err := client.Models.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// OllamaModel streams completions for one model name. It may serve several
// prompts at once.
type OllamaModel struct {
	*BaseModel
	client openai.Client

	mu      sync.Mutex
	cancels map[uint64]context.CancelFunc
	next    uint64
}

func NewOllama(client openai.Client, info ModelInfo) *OllamaModel {
	if info.Name == "" {
		info.Name = info.ID
	}
	return &OllamaModel{
		BaseModel: NewBaseModel(info),
		client:    client,
		cancels:   make(map[uint64]context.CancelFunc),
	}
}

func (m *OllamaModel) Send(ctx context.Context, prompt string) <-chan Chunk {
	ch := make(chan Chunk, 100)

	go func() {
		defer close(ch)
		m.SetStatus(StatusResponding)

		reqCtx, cancel := context.WithCancel(ctx)
		id := m.track(cancel)
		defer m.untrack(id)
		defer cancel()

		emit := func(c Chunk) bool {
			select {
			case ch <- c:
				return true
			case <-reqCtx.Done():
				return false
			}
		}

		stream := m.client.Chat.Completions.NewStreaming(reqCtx, openai.ChatCompletionNewParams{
			Model: m.info.ID,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
		})
		defer stream.Close()

		// Ollama reports reasoning in a separate delta field; fold it back into
		// the text as a think block.
		inThink := false
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta

			var text string
			if r := reasoning(delta.RawJSON()); r != "" {
				if !inThink {
					text, inThink = thinkOpen, true
				}
				text += r
			}
			if delta.Content != "" {
				if inThink {
					text, inThink = text+thinkClose, false
				}
				text += delta.Content
			}
			if text != "" && !emit(Chunk{Text: text}) {
				break
			}
		}

		err := stream.Err()
		if err == nil && reqCtx.Err() != nil {
			err = reqCtx.Err()
		}
		if err != nil {
			timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded)
			if timeout {
				m.SetStatus(StatusTimeout)
			} else {
				m.SetStatus(StatusError)
			}
			// ctx may be done already; the buffered send is best effort
			select {
			case ch <- Chunk{Error: err, IsTimeout: timeout}:
			default:
			}
			return
		}

		if inThink {
			emit(Chunk{Text: thinkClose})
		}
		m.SetStatus(StatusIdle)
		emit(Chunk{Done: true})
	}()

	return ch
}

// Stop cancels every in-flight generation for this model
func (m *OllamaModel) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
	}
}

func (m *OllamaModel) track(cancel context.CancelFunc) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.cancels[m.next] = cancel
	return m.next
}

func (m *OllamaModel) untrack(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cancels, id)
}

// reasoning returns the reasoning text of a raw delta. Ollama uses
// "reasoning"; other OpenAI-compatible servers use "reasoning_content".
func reasoning(raw string) string {
	fields := gjson.GetMany(raw, "reasoning", "reasoning_content")
	if r := fields[0].String(); r != "" {
		return r
	}
	return fields[1].String()
}
