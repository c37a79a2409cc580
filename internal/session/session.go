// internal/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"arena/internal/stream"
	"arena/internal/thinking"
)

// Session is one prompt sent to a set of models. Its stream is read on a
// single goroutine; Cancel and the accessors are safe from any goroutine.
type Session struct {
	id       string
	req      Request
	observer Observer
	router   *stream.Router
	logger   *slog.Logger
	readSize int

	ctx    context.Context
	cancel context.CancelFunc

	live   atomic.Bool
	silent atomic.Bool // superseded: drop every further notification
	done   chan struct{}

	mu     sync.Mutex
	body   io.ReadCloser
	state  State
	err    error
	acc    *Accumulator
	status map[string]ModelStatus
	errs   map[string]string
}

func (s *Session) ID() string { return s.id }

// Prompt returns the prompt the session was started with
func (s *Session) Prompt() string { return s.req.Prompt }

// Models returns the selected models in selection order
func (s *Session) Models() []string {
	out := make([]string, len(s.req.Models))
	copy(out, s.req.Models)
	return out
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure cause once the session is Failed
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Text returns model's accumulated text so far
func (s *Session) Text(model string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Text(model)
}

// Segmentation classifies model's accumulated text
func (s *Session) Segmentation(model string) thinking.Segmentation {
	return thinking.Classify(s.Text(model))
}

// Snapshot copies the session state for display or export
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:     s.id,
		Prompt: s.req.Prompt,
		State:  s.state,
		Err:    s.err,
	}
	for _, m := range s.acc.Models() {
		snap.Models = append(snap.Models, ModelResult{
			Model:  m,
			Status: s.status[m],
			Text:   s.acc.Text(m),
			Error:  s.errs[m],
		})
	}
	s.mu.Unlock()

	for i := range snap.Models {
		snap.Models[i].Segment = thinking.Classify(snap.Models[i].Text)
	}
	return snap
}

// Done is closed once the session reaches a terminal state
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session ends and reports how
func (s *Session) Wait() EndReason {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return EndReason{State: s.state, Err: s.err}
}

// Cancel stops the session. Safe to call more than once and after the
// session has ended.
func (s *Session) Cancel() {
	if !s.live.CompareAndSwap(true, false) {
		return
	}
	s.cancel()

	s.mu.Lock()
	body := s.body
	s.mu.Unlock()
	if body != nil {
		body.Close()
	}
}

func (s *Session) supersede() {
	s.silent.Store(true)
	s.Cancel()
}

func (s *Session) run(transport Transport) {
	defer close(s.done)
	defer s.cancel()

	body, err := transport.Open(s.ctx, s.req)
	if err != nil {
		if !s.live.CompareAndSwap(true, false) || errors.Is(err, context.Canceled) || s.ctx.Err() != nil {
			s.endCancelled()
			return
		}
		s.endFailed(fmt.Errorf("%w: %w", ErrTransport, err))
		return
	}
	defer body.Close()

	s.mu.Lock()
	s.body = body
	s.mu.Unlock()
	// Cancel may have run before the body was stored.
	if !s.live.Load() {
		body.Close()
		s.endCancelled()
		return
	}

	dec := stream.NewDecoder()
	buf := make([]byte, s.readSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			for _, raw := range dec.Feed(buf[:n]) {
				ev, ok := s.router.Parse(raw)
				if !ok {
					continue
				}
				if !s.live.Load() {
					break
				}
				s.handle(ev)
			}
		}
		if rerr == nil {
			continue
		}

		if !s.live.CompareAndSwap(true, false) || (rerr != io.EOF && s.ctx.Err() != nil) {
			s.endCancelled()
			return
		}
		if rerr == io.EOF {
			if rest := dec.Pending(); rest != "" {
				s.logger.Debug("session: dropping truncated event", "session", s.id, "bytes", len(rest))
			}
			s.end(EndReason{State: StateCompleted})
			return
		}
		s.endFailed(fmt.Errorf("%w: %w", ErrTransport, rerr))
		return
	}
}

func (s *Session) handle(ev stream.Event) {
	switch ev.Kind {
	case stream.KindError:
		s.mu.Lock()
		s.status[ev.Model] = ModelErrored
		s.errs[ev.Model] = ev.Message
		if !s.acc.Has(ev.Model) {
			s.acc.Append(ev.Model, "")
		}
		s.mu.Unlock()

		if s.live.Load() {
			s.observer.OnError(ev.Model, ev.Message)
		}

	case stream.KindToken:
		s.mu.Lock()
		if s.status[ev.Model] == ModelErrored {
			s.mu.Unlock()
			s.logger.Debug("session: token after error ignored", "session", s.id, "model", ev.Model)
			return
		}
		full := s.acc.Append(ev.Model, ev.Text)
		if ev.Done {
			s.status[ev.Model] = ModelDone
		} else if s.status[ev.Model] != ModelDone {
			s.status[ev.Model] = ModelStreaming
		}
		s.mu.Unlock()

		seg := thinking.Classify(full)
		if !s.live.Load() {
			return
		}
		s.observer.OnUpdate(ev.Model, seg)
		if ev.Done {
			if d, ok := s.observer.(ModelDoneObserver); ok {
				d.OnModelDone(ev.Model)
			}
		}
	}
}

// endCancelled marks every model that produced nothing as stopped
func (s *Session) endCancelled() {
	var stopped []string
	s.mu.Lock()
	for _, m := range s.acc.Models() {
		st := s.status[m]
		if st == ModelErrored || st == ModelDone || !s.acc.Empty(m) {
			continue
		}
		s.status[m] = ModelStopped
		s.errs[m] = StoppedMessage
		stopped = append(stopped, m)
	}
	s.mu.Unlock()

	if !s.silent.Load() {
		for _, m := range stopped {
			s.observer.OnError(m, StoppedMessage)
		}
	}
	s.end(EndReason{State: StateCancelled})
}

func (s *Session) endFailed(err error) {
	s.logger.Warn("session: stream failed", "session", s.id, "error", err)
	s.end(EndReason{State: StateFailed, Err: err})
}

func (s *Session) end(reason EndReason) {
	s.mu.Lock()
	s.state = reason.State
	s.err = reason.Err
	s.mu.Unlock()

	s.logger.Debug("session: ended", "session", s.id, "state", reason.State.String())
	if !s.silent.Load() {
		s.observer.OnSessionEnd(reason)
	}
}
