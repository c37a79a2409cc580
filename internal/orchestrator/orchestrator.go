// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"arena/internal/models"
)

// Common error types
var (
	ErrTimeout      = errors.New("model response timed out")
	ErrUnknownModel = errors.New("unknown model")
	ErrNoOutput     = errors.New("model closed its stream without finishing")
)

// Response represents a model's response
type Response struct {
	ModelID   string
	Content   string
	Error     error
	Done      bool
	IsTimeout bool // True if the error was due to timeout
}

// Source resolves model IDs to models
type Source interface {
	Resolve(id string) models.Model
	All() []models.Model
}

// Orchestrator fans one prompt out to several models
type Orchestrator struct {
	source  Source
	timeout time.Duration
}

func New(source Source, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		source:  source,
		timeout: timeout,
	}
}

// Send sends the prompt to every listed model in parallel. Each model ends
// with exactly one Done response, carrying an Error when it failed; the
// channel closes once all of them have ended.
func (o *Orchestrator) Send(ctx context.Context, ids []string, prompt string) <-chan Response {
	responses := make(chan Response, len(ids)*10)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			m := o.source.Resolve(id)
			if m == nil {
				send(ctx, responses, Response{
					ModelID: id,
					Error:   fmt.Errorf("%w: %s", ErrUnknownModel, id),
					Done:    true,
				})
				return
			}
			o.sendWithTimeout(ctx, m, id, prompt, responses)
		}(id)
	}

	// Close responses channel when all models done
	go func() {
		wg.Wait()
		close(responses)
	}()

	return responses
}

// sendWithTimeout sends a prompt to a model with timeout handling
func (o *Orchestrator) sendWithTimeout(ctx context.Context, m models.Model, id, prompt string, responses chan<- Response) {
	timeoutCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	chunks := m.Send(timeoutCtx, prompt)

	for {
		select {
		case <-timeoutCtx.Done():
			if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
				m.SetStatus(models.StatusTimeout)
				send(ctx, responses, Response{
					ModelID:   id,
					Error:     ErrTimeout,
					IsTimeout: true,
					Done:      true,
				})
			}
			// The caller went away; nobody is listening.
			return

		case chunk, ok := <-chunks:
			if !ok {
				r := Response{ModelID: id, Error: ErrNoOutput, Done: true}
				if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
					m.SetStatus(models.StatusTimeout)
					r.Error, r.IsTimeout = ErrTimeout, true
				}
				send(ctx, responses, r)
				return
			}

			if chunk.Error != nil {
				// Check if it's a timeout from the model itself
				if chunk.IsTimeout || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
					m.SetStatus(models.StatusTimeout)
					send(ctx, responses, Response{
						ModelID:   id,
						Error:     ErrTimeout,
						IsTimeout: true,
						Done:      true,
					})
				} else {
					m.SetStatus(models.StatusError)
					send(ctx, responses, Response{
						ModelID: id,
						Error:   chunk.Error,
						Done:    true,
					})
				}
				return
			}

			if chunk.Text != "" {
				if !send(ctx, responses, Response{ModelID: id, Content: chunk.Text}) {
					return
				}
			}

			if chunk.Done {
				m.SetStatus(models.StatusIdle)
				send(ctx, responses, Response{
					ModelID: id,
					Done:    true,
				})
				return
			}
		}
	}
}

func send(ctx context.Context, responses chan<- Response, r Response) bool {
	select {
	case responses <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// StopAll stops all models
func (o *Orchestrator) StopAll() {
	for _, m := range o.source.All() {
		m.Stop()
	}
}
