package engine

import (
	"sync"

	"yqhp/automation-engine/pkg/types"
)

// defaultEventBuffer is the per-subscriber channel capacity.
const defaultEventBuffer = 64

type subscriber struct {
	ch   chan types.RunEvent
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// EventBus fans run events out to per-run subscribers. Publishing never
// blocks: a subscriber that cannot keep up has events dropped on the floor.
type EventBus struct {
	mu   sync.RWMutex
	subs map[string][]*subscriber // run id -> subscribers
}

// NewEventBus creates an EventBus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[string][]*subscriber)}
}

// Publish implements types.EventSink.
func (b *EventBus) Publish(event types.RunEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs[event.RunID] {
		select {
		case s.ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel of events for one run and a cancel function.
// The channel is closed by cancel or when the run finishes, whichever comes
// first.
func (b *EventBus) Subscribe(runID string) (<-chan types.RunEvent, func()) {
	s := &subscriber{ch: make(chan types.RunEvent, defaultEventBuffer)}
	b.mu.Lock()
	b.subs[runID] = append(b.subs[runID], s)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		subs := b.subs[runID]
		for i, c := range subs {
			if c == s {
				b.subs[runID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(b.subs[runID]) == 0 {
			delete(b.subs, runID)
		}
		b.mu.Unlock()
		s.close()
	}
	return s.ch, cancel
}

// CloseRun closes every subscriber for a run. Called when the run reaches a
// terminal state.
func (b *EventBus) CloseRun(runID string) {
	b.mu.Lock()
	subs := b.subs[runID]
	delete(b.subs, runID)
	b.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
}
