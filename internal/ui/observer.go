// internal/ui/observer.go
package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"arena/internal/session"
	"arena/internal/thinking"
)

// Messages posted by a session. Each carries the session ID so the model
// can drop output from a session it no longer shows.
type (
	tokenMsg struct {
		session string
		model   string
		seg     thinking.Segmentation
	}

	modelErrorMsg struct {
		session string
		model   string
		message string
	}

	modelDoneMsg struct {
		session string
		model   string
	}

	sessionEndMsg struct {
		session string
		reason  session.EndReason
	}
)

// Observer forwards session output into a running tea.Program
type Observer struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewObserver() *Observer {
	return &Observer{}
}

// Attach routes messages to p. Output produced before Attach is dropped.
func (o *Observer) Attach(p *tea.Program) {
	o.SetSend(p.Send)
}

// SetSend routes messages to fn
func (o *Observer) SetSend(fn func(tea.Msg)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.send = fn
}

func (o *Observer) post(msg tea.Msg) {
	o.mu.Lock()
	send := o.send
	o.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

// ForSession returns an observer that tags everything with id
func (o *Observer) ForSession(id string) session.Observer {
	return &boundObserver{id: id, parent: o}
}

// Unbound output has no session and is never shown.
func (o *Observer) OnUpdate(string, thinking.Segmentation) {}
func (o *Observer) OnError(string, string)                 {}
func (o *Observer) OnSessionEnd(session.EndReason)         {}

type boundObserver struct {
	id     string
	parent *Observer
}

func (b *boundObserver) OnUpdate(model string, seg thinking.Segmentation) {
	b.parent.post(tokenMsg{session: b.id, model: model, seg: seg})
}

func (b *boundObserver) OnError(model, message string) {
	b.parent.post(modelErrorMsg{session: b.id, model: model, message: message})
}

func (b *boundObserver) OnModelDone(model string) {
	b.parent.post(modelDoneMsg{session: b.id, model: model})
}

func (b *boundObserver) OnSessionEnd(reason session.EndReason) {
	b.parent.post(sessionEndMsg{session: b.id, reason: reason})
}
