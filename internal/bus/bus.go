package bus

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Bus fans events out to in-process subscribers filtered by kind prefix.
// Publish never blocks; a subscriber with a full buffer misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

type subscription struct {
	prefix  string
	ch      chan Event
	dropped atomic.Int64
}

func New() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !strings.HasPrefix(evt.Kind, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscription is the receiving side of Subscribe.
type Subscription struct {
	C     <-chan Event
	sub   *subscription
	close func()
}

// Dropped reports how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() int64 { return s.sub.dropped.Load() }

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() { s.close() }

// Subscribe delivers every event whose kind starts with prefix.
// An empty prefix receives everything.
func (b *Bus) Subscribe(prefix string, bufSize int) *Subscription {
	if bufSize < 1 {
		bufSize = 1
	}
	sub := &subscription{prefix: prefix, ch: make(chan Event, bufSize)}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return &Subscription{
		C:   sub.ch,
		sub: sub,
		close: func() {
			once.Do(func() {
				b.mu.Lock()
				delete(b.subs, id)
				b.mu.Unlock()
			})
		},
	}
}
