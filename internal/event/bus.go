package event

import "sync"

// Bus is an in-process fan-out publisher of [StatusEvent] values.
//
// Every subscription owns an independent unbounded delivery queue: a slow
// consumer delays only itself, never the publisher or other subscribers.
// Events published while there are zero subscribers are dropped; the bus
// keeps no replay buffer for future subscribers.
//
// All methods are safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	subs []*Subscription
}

// NewBus creates an empty [Bus]. The bus requires no cleanup; individual
// subscriptions must be closed by their owners.
func NewBus() *Bus {
	return &Bus{}
}

// Publish delivers ev to every currently registered subscription, in
// registration order. Publish never blocks on a slow consumer: each
// subscription's queue grows as needed.
func (b *Bus) Publish(ev StatusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		sub.push(ev)
	}
}

// Subscribe registers a new subscription and returns its handle.
//
// The caller owns the returned [Subscription] and must call
// [Subscription.Close] when done, or the registry entry and its pump
// goroutine leak for the life of the process.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		bus:  b,
		wake: make(chan struct{}, 1),
		out:  make(chan StatusEvent),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go sub.pump()
	return sub
}

// Size returns the number of active subscriptions.
func (b *Bus) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// remove unregisters sub. Further publishes no longer reach it.
func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Subscription is one subscriber's view of the bus.
//
// Events are read from [Subscription.Events] in publish order. The internal
// queue is unbounded; events accumulate until read or until the
// subscription is closed.
type Subscription struct {
	bus *Bus

	mu    sync.Mutex
	queue []StatusEvent

	wake chan struct{} // signalled (cap 1) when the queue becomes non-empty
	out  chan StatusEvent
	done chan struct{}

	closeOnce sync.Once
}

// Events returns the channel on which this subscription's events are
// delivered. The channel is closed after [Subscription.Close]; events still
// queued at that point are discarded.
func (s *Subscription) Events() <-chan StatusEvent {
	return s.out
}

// Close unregisters the subscription and ends the event stream. Close is
// idempotent and safe to call from any goroutine, including the consumer
// draining [Subscription.Events].
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.remove(s)
		close(s.done)
	})
}

// push appends ev to the queue and wakes the pump. Called by the bus with
// the registry lock held, so push must not block.
func (s *Subscription) push(ev StatusEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump moves events from the internal queue to the outward channel,
// blocking when the queue is empty. It exits, closing the outward channel,
// once Close is called.
func (s *Subscription) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}
