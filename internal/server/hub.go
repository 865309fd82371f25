package server

import (
	"sync"

	"cloudconsole/internal/model"
)

const clientBuffer = 64

// hub fans change events out to websocket clients. A client that cannot keep
// up is dropped rather than blocking publishers.
type hub struct {
	mu      sync.Mutex
	clients map[chan model.ChangeEvent]struct{}
}

func newHub() *hub {
	return &hub{clients: map[chan model.ChangeEvent]struct{}{}}
}

func (h *hub) subscribe() (<-chan model.ChangeEvent, func()) {
	ch := make(chan model.ChangeEvent, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	}
}

func (h *hub) publish(ev model.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			delete(h.clients, ch)
			close(ch)
		}
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}
