package character

import (
	"sync"

	"github.com/joeycumines/goblinscript/internal/behavior"
)

// Mailbox holds at most one pending state request. A later Put overwrites an
// earlier one that was not yet taken. Safe for concurrent use.
type Mailbox struct {
	mu      sync.Mutex
	req     behavior.StateRequest
	pending bool
}

// Put stores r, replacing any pending request.
func (m *Mailbox) Put(r behavior.StateRequest) {
	m.mu.Lock()
	m.req, m.pending = r, true
	m.mu.Unlock()
}

// Take removes and returns the pending request.
func (m *Mailbox) Take() (behavior.StateRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pending {
		return behavior.StateRequest{}, false
	}
	r := m.req
	m.req, m.pending = behavior.StateRequest{}, false
	return r, true
}

// Peek returns the pending request without removing it.
func (m *Mailbox) Peek() (behavior.StateRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.req, m.pending
}
