// Package cache holds the client-side entity collections a console session
// observes. Collections are created and owned by the session and passed to
// views explicitly; there is no package-level state.
package cache

import (
	"sync"

	"cloudconsole/internal/model"
)

// Collection is an ordered list of entities with change notification.
//
// Replace is expected to run on the session's UI loop (the single writer);
// the mutex only keeps concurrent readers such as CLI watchers safe.
type Collection[E interface{ EntityID() string }] struct {
	mu      sync.RWMutex
	items   []E
	version uint64
	loaded  bool

	nextSub uint64
	subs    map[uint64]func()
}

func NewCollection[E interface{ EntityID() string }]() *Collection[E] {
	return &Collection[E]{subs: map[uint64]func(){}}
}

// Subscribe registers fn to be called after every Replace. The returned
// function removes the subscription and is safe to call more than once.
func (c *Collection[E]) Subscribe(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Collection[E]) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// Replace swaps in a fresh list and notifies subscribers synchronously.
func (c *Collection[E]) Replace(items []E) {
	cp := make([]E, len(items))
	copy(cp, items)

	c.mu.Lock()
	c.items = cp
	c.version++
	c.loaded = true
	subs := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// List returns a copy of the current list.
func (c *Collection[E]) List() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]E, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[E]) Get(id string) (E, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.EntityID() == id {
			return it, true
		}
	}
	var zero E
	return zero, false
}

func (c *Collection[E]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Version increases on every Replace.
func (c *Collection[E]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Loaded reports whether the collection has seen at least one Replace.
func (c *Collection[E]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Registry is the set of collections one console session owns.
type Registry struct {
	collections map[model.Kind]*Collection[model.Doc]
}

func NewRegistry() *Registry {
	r := &Registry{collections: map[model.Kind]*Collection[model.Doc]{}}
	for _, k := range model.Kinds {
		r.collections[k] = NewCollection[model.Doc]()
	}
	return r
}

// Collection returns the collection for k. Unknown kinds return nil.
func (r *Registry) Collection(k model.Kind) *Collection[model.Doc] {
	return r.collections[k]
}

// SubscribeAll subscribes fn to every kind in kinds and returns one function
// releasing all of them.
func (r *Registry) SubscribeAll(fn func(model.Kind), kinds ...model.Kind) (unsubscribe func()) {
	var unsubs []func()
	for _, k := range kinds {
		c := r.Collection(k)
		if c == nil {
			continue
		}
		k := k
		unsubs = append(unsubs, c.Subscribe(func() { fn(k) }))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Lookup finds the display name of an entity of kind k ("" when unknown).
func (r *Registry) Lookup(k model.Kind, id string) string {
	c := r.Collection(k)
	if c == nil || id == "" {
		return ""
	}
	d, ok := c.Get(id)
	if !ok {
		return ""
	}
	return d.String("name")
}
