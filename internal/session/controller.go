// internal/session/controller.go
package session

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"arena/internal/stream"
	"arena/internal/thinking"
)

const defaultReadSize = 4096

// Controller runs at most one live session at a time
type Controller struct {
	transport Transport
	observer  Observer
	router    *stream.Router
	logger    *slog.Logger
	readSize  int

	mu      sync.Mutex
	current *Session
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller's logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReadSize sets the size of each read from the transport body
func WithReadSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// NewController creates a controller. A nil observer discards all output.
func NewController(transport Transport, observer Observer, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		observer:  observer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		readSize:  defaultReadSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	c.router = stream.NewRouter(c.logger)
	return c
}

// Start cancels the live session, if any, and begins a new one. The previous
// session is superseded: nothing it still produces reaches the observer.
func (c *Controller) Start(ctx context.Context, req Request) (*Session, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if len(req.Models) == 0 {
		return nil, ErrNoModels
	}
	seen := make(map[string]bool, len(req.Models))
	for _, m := range req.Models {
		if seen[m] {
			return nil, ErrDuplicate
		}
		seen[m] = true
	}

	id := uuid.NewString()
	obs := c.observer
	if b, ok := obs.(Binder); ok {
		obs = b.ForSession(id)
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:       id,
		req:      Request{Prompt: req.Prompt, Models: append([]string(nil), req.Models...)},
		observer: obs,
		router:   c.router,
		logger:   c.logger,
		readSize: c.readSize,
		ctx:      sctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    StateActive,
		acc:      NewAccumulator(req.Models),
		status:   make(map[string]ModelStatus, len(req.Models)),
		errs:     make(map[string]string),
	}
	s.live.Store(true)

	c.mu.Lock()
	prev := c.current
	c.current = s
	c.mu.Unlock()

	if prev != nil {
		prev.supersede()
	}

	c.logger.Info("session: started", "session", s.id, "models", strings.Join(req.Models, ","))
	go s.run(c.transport)
	return s, nil
}

// Current returns the most recently started session, or nil
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Cancel cancels the current session, if it is still live
func (c *Controller) Cancel() {
	if s := c.Current(); s != nil {
		s.Cancel()
	}
}

type nopObserver struct{}

func (nopObserver) OnUpdate(string, thinking.Segmentation) {}
func (nopObserver) OnError(string, string)                 {}
func (nopObserver) OnSessionEnd(EndReason)                 {}
