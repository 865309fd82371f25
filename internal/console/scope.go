package console

import (
	"context"
	"sync"
)

// Scope ties resources to a view's lifetime. Everything registered with Defer
// is released exactly once, in reverse order, when the scope closes.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	releases []func()
	closed   bool
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the scope closes; in-flight calls should use it.
func (s *Scope) Context() context.Context { return s.ctx }

// Defer registers fn to run on Close. On an already closed scope fn runs now.
func (s *Scope) Defer(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.releases = append(s.releases, fn)
	s.mu.Unlock()
}

func (s *Scope) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	releases := s.releases
	s.releases = nil
	s.mu.Unlock()

	s.cancel()
	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}
