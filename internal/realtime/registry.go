package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

// Handler receives one event. It runs on the channel's read goroutine and
// must not block.
type Handler func(ev *types.Event)

// Subscription identifies one On registration. Removing it never touches
// other registrations for the same event name.
type Subscription struct {
	id   uuid.UUID
	name types.EventName
}

func (s Subscription) Name() types.EventName {
	return s.name
}

func (s Subscription) Valid() bool {
	return s.id != uuid.Nil
}

type entry struct {
	fn     Handler
	active atomic.Bool
}

type registry struct {
	mu     sync.RWMutex
	byName map[types.EventName]map[uuid.UUID]*entry
}

func newRegistry() *registry {
	return &registry{byName: make(map[types.EventName]map[uuid.UUID]*entry)}
}

func (r *registry) add(name types.EventName, fn Handler) Subscription {
	sub := Subscription{id: uuid.New(), name: name}
	e := &entry{fn: fn}
	e.active.Store(true)

	r.mu.Lock()
	if r.byName[name] == nil {
		r.byName[name] = make(map[uuid.UUID]*entry)
	}
	r.byName[name][sub.id] = e
	r.mu.Unlock()

	return sub
}

func (r *registry) remove(sub Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.byName[sub.name]
	e, ok := set[sub.id]
	if !ok {
		return false
	}
	e.active.Store(false)
	delete(set, sub.id)
	if len(set) == 0 {
		delete(r.byName, sub.name)
	}
	return true
}

// dispatch calls every handler registered for the event. The set is copied
// first so handlers may call On and Off.
func (r *registry) dispatch(ev *types.Event) int {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.byName[ev.Type]))
	for _, e := range r.byName[ev.Type] {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	n := 0
	for _, e := range entries {
		if !e.active.Load() {
			continue
		}
		e.fn(ev)
		n++
	}
	return n
}

func (r *registry) count(name types.EventName) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName[name])
}

func (r *registry) total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, set := range r.byName {
		n += len(set)
	}
	return n
}
