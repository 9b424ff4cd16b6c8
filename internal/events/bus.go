// Package events carries change notifications from the engine to whoever
// renders its state. The engine publishes; it never subscribes itself.
package events

import (
	"sync"
	"time"
)

type Kind string

const (
	QuestionsChanged Kind = "questions.changed"
	SettingsChanged  Kind = "settings.changed"
)

type Event struct {
	Kind   Kind      `json:"kind"`
	Source string    `json:"source"` // admin, sync, import
	At     time.Time `json:"at"`
}

type Listener func(Event)

// Bus delivers every published event synchronously to all listeners, in
// subscription order, on the publisher's goroutine.
type Bus struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]Listener
	order     []int
}

func NewBus() *Bus {
	return &Bus{listeners: map[int]Listener{}}
}

// Subscribe registers l and returns a function that removes it.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.listeners[id] = l
	b.order = append(b.order, id)
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	ls := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		ls = append(ls, b.listeners[id])
	}
	b.mu.RUnlock()
	for _, l := range ls {
		l(e)
	}
}
