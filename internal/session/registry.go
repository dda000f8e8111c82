package session

import (
	"sync"
)

// Registry holds sessions in memory, evicting the least recently used one
// when it grows past its limit.
type Registry struct {
	maxEntries int
	onEvict    func(*Session)

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key   string
	value *Session
	prev  *entry
	next  *entry
}

// NewRegistry creates a registry of at most maxEntries sessions. onEvict,
// if set, is called for every session dropped to make room.
func NewRegistry(maxEntries int, onEvict func(*Session)) *Registry {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Registry{
		maxEntries: maxEntries,
		onEvict:    onEvict,
		entries:    make(map[string]*entry),
	}
}

// Get returns the session and marks it recently used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	r.moveToFront(e)
	return e.value, true
}

// Put adds or replaces s.
func (r *Registry) Put(s *Session) {
	var evicted *Session

	r.mu.Lock()
	if e, ok := r.entries[s.ID]; ok {
		e.value = s
		r.moveToFront(e)
		r.mu.Unlock()
		return
	}

	e := &entry{key: s.ID, value: s}
	r.entries[s.ID] = e
	r.addToFront(e)

	if len(r.entries) > r.maxEntries {
		evicted = r.evictTail()
	}
	r.mu.Unlock()

	if evicted != nil && r.onEvict != nil {
		r.onEvict(evicted)
	}
}

// Delete removes the session. It reports whether it was present.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	delete(r.entries, id)
	r.remove(e)
	return true
}

// Len returns the number of sessions held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) moveToFront(e *entry) {
	if e == r.head {
		return
	}
	r.remove(e)
	r.addToFront(e)
}

func (r *Registry) addToFront(e *entry) {
	e.next = r.head
	e.prev = nil
	if r.head != nil {
		r.head.prev = e
	}
	r.head = e
	if r.tail == nil {
		r.tail = e
	}
}

func (r *Registry) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		r.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		r.tail = e.prev
	}
}

func (r *Registry) evictTail() *Session {
	if r.tail == nil {
		return nil
	}
	e := r.tail
	delete(r.entries, e.key)
	r.remove(e)
	return e.value
}
