package eventbus

import "sync"

// QueueBus is a fan-out bus that never drops events. Each subscriber owns an
// unbounded queue drained into its channel by a forwarding goroutine, so
// Publish never blocks and a slow subscriber only grows its own backlog.
type QueueBus[T any] struct {
	mu     sync.Mutex
	subs   []*queue[T]
	closed bool
}

type queue[T any] struct {
	mu      sync.Mutex
	pending []T
	wake    chan struct{}
	quit    chan struct{}
	out     chan T
}

// NewQueue creates an empty QueueBus.
func NewQueue[T any]() *QueueBus[T] { return &QueueBus[T]{} }

// Publish appends the event to every subscriber queue and returns the number
// of subscribers it was queued for.
func (b *QueueBus[T]) Publish(e T) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}
	for _, q := range b.subs {
		q.push(e)
	}
	return len(b.subs)
}

// Subscribe registers a subscriber. Events published from now on are
// delivered in order on the returned channel.
func (b *QueueBus[T]) Subscribe() <-chan T {
	q := &queue[T]{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		out:  make(chan T),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(q.out)
		return q.out
	}
	b.subs = append(b.subs, q)
	go q.forward()
	return q.out
}

// Backlog returns the number of events queued but not yet received, summed
// over all subscribers.
func (b *QueueBus[T]) Backlog() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, q := range b.subs {
		q.mu.Lock()
		n += len(q.pending)
		q.mu.Unlock()
	}
	return n
}

// Len returns the number of active subscribers.
func (b *QueueBus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close stops every forwarder and closes the subscriber channels. Events
// still queued are discarded.
func (b *QueueBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, q := range b.subs {
		close(q.quit)
	}
	b.subs = nil
}

func (q *queue[T]) push(e T) {
	q.mu.Lock()
	q.pending = append(q.pending, e)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue[T]) forward() {
	defer close(q.out)
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			select {
			case <-q.wake:
				continue
			case <-q.quit:
				return
			}
		}
		e := q.pending[0]
		var zero T
		q.pending[0] = zero
		q.pending = q.pending[1:]
		q.mu.Unlock()
		select {
		case q.out <- e:
		case <-q.quit:
			return
		}
	}
}
