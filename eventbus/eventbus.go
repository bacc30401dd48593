// Package eventbus broadcasts wallet lifecycle events to any number of subscribers.
//
// Each subscriber owns a bounded queue. Emit never blocks: when a queue is full its oldest
// event is dropped and the subscriber observes a *LaggedError on its next Recv before
// receiving the retained events in emission order.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

var log = logging.Logger("event_bus")

const DefaultCapacity = 5

var ErrClosed = errors.New("event subscription closed")

// LaggedError reports how many events a subscriber missed because its queue was full.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("subscriber lagged, %d events skipped", e.Skipped)
}

type Bus struct {
	lk       sync.Mutex
	capacity int
	nextID   uint64
	subs     map[uint64]*Subscription
	closed   bool
}

// New creates a bus whose subscribers buffer capacity events. capacity <= 0 uses DefaultCapacity.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		capacity: capacity,
		subs:     make(map[uint64]*Subscription),
	}
}

func (b *Bus) Capacity() int {
	return b.capacity
}

// Subscribe returns a subscription receiving every event emitted after this call.
func (b *Bus) Subscribe() *Subscription {
	b.lk.Lock()
	defer b.lk.Unlock()

	sub := &Subscription{
		bus:    b,
		id:     b.nextID,
		queue:  make([]*types.WalletEvent, 0, b.capacity),
		notify: make(chan struct{}, 1),
	}
	b.nextID++
	if b.closed {
		sub.closed = true
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

// Emit appends ev to every subscriber queue without blocking.
func (b *Bus) Emit(ev *types.WalletEvent) {
	b.lk.Lock()
	defer b.lk.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		sub.push(ev, b.capacity)
	}
}

// Len is the number of live subscriptions.
func (b *Bus) Len() int {
	b.lk.Lock()
	defer b.lk.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Queued events can still be drained.
func (b *Bus) Close() {
	b.lk.Lock()
	defer b.lk.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		sub.markClosed()
		delete(b.subs, id)
	}
}

func (b *Bus) unsubscribe(id uint64) {
	b.lk.Lock()
	defer b.lk.Unlock()
	delete(b.subs, id)
}

type Subscription struct {
	bus *Bus
	id  uint64

	lk     sync.Mutex
	queue  []*types.WalletEvent
	lagged uint64
	closed bool
	notify chan struct{}
}

func (s *Subscription) push(ev *types.WalletEvent, capacity int) {
	s.lk.Lock()
	if s.closed {
		s.lk.Unlock()
		return
	}
	if len(s.queue) >= capacity {
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.lagged++
		log.Debugf("subscriber %d lagged, dropped oldest event", s.id)
	}
	s.queue = append(s.queue, ev)
	s.lk.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) markClosed() {
	s.lk.Lock()
	s.closed = true
	s.lk.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// TryRecv returns the next event without waiting. ok is false when nothing is queued.
func (s *Subscription) TryRecv() (ev *types.WalletEvent, ok bool, err error) {
	s.lk.Lock()
	defer s.lk.Unlock()

	if s.lagged > 0 {
		skipped := s.lagged
		s.lagged = 0
		return nil, false, &LaggedError{Skipped: skipped}
	}
	if len(s.queue) > 0 {
		ev = s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		return ev, true, nil
	}
	if s.closed {
		return nil, false, ErrClosed
	}
	return nil, false, nil
}

// Recv waits for the next event. It returns a *LaggedError once after events were dropped,
// ErrClosed once the subscription is closed and drained, or the context error.
func (s *Subscription) Recv(ctx context.Context) (*types.WalletEvent, error) {
	for {
		ev, ok, err := s.TryRecv()
		if err != nil {
			return nil, err
		}
		if ok {
			return ev, nil
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close unsubscribes. Pending events stay readable.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.id)
	s.markClosed()
}
