// Package events fans ledger events out to watchers. Delivery is
// asynchronous; a slow watcher loses events instead of stalling the ledger.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/google/uuid"
)

// DefaultQueueSize is the per-subscription buffer.
const DefaultQueueSize = 256

// Handler receives events on the subscription's own goroutine.
type Handler func(token.Event)

// Subscription is a watch handle returned by Notifier.Subscribe.
type Subscription struct {
	ID uuid.UUID

	n       *Notifier
	queue   chan token.Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// Stop detaches the subscription and waits for in-flight delivery to finish.
// Safe to call more than once.
func (s *Subscription) Stop() {
	s.n.Unsubscribe(s.ID)
	<-s.done
}

// Dropped reports how many events were discarded because the queue was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

func (s *Subscription) close() {
	s.once.Do(func() { close(s.queue) })
}

func (s *Subscription) run(h Handler) {
	defer close(s.done)
	for ev := range s.queue {
		h(ev)
	}
}

// Notifier implements token.Emitter.
type Notifier struct {
	queueSize int

	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithQueueSize sets the per-subscription buffer length.
func WithQueueSize(n int) Option {
	return func(nt *Notifier) {
		if n > 0 {
			nt.queueSize = n
		}
	}
}

// NewNotifier creates an empty notifier.
func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{
		queueSize: DefaultQueueSize,
		subs:      make(map[uuid.UUID]*Subscription),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ token.Emitter = (*Notifier)(nil)

// Subscribe attaches h. Events emitted after Subscribe returns are delivered
// in emission order.
func (n *Notifier) Subscribe(h Handler) *Subscription {
	s := &Subscription{
		ID:    uuid.New(),
		n:     n,
		queue: make(chan token.Event, n.queueSize),
		done:  make(chan struct{}),
	}
	n.mu.Lock()
	n.subs[s.ID] = s
	n.mu.Unlock()

	go s.run(h)
	return s
}

// Unsubscribe detaches the subscription with the given id. Unknown ids are ignored.
func (n *Notifier) Unsubscribe(id uuid.UUID) {
	n.mu.Lock()
	s, ok := n.subs[id]
	delete(n.subs, id)
	n.mu.Unlock()
	if ok {
		s.close()
	}
}

// Len returns the number of attached subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Emit queues ev for every subscriber without blocking.
func (n *Notifier) Emit(ev token.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, s := range n.subs {
		select {
		case s.queue <- ev:
		default:
			s.dropped.Add(1)
		}
	}
}

// Close detaches every subscription.
func (n *Notifier) Close() {
	n.mu.Lock()
	subs := n.subs
	n.subs = make(map[uuid.UUID]*Subscription)
	n.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
}
