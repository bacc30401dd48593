package walletevent

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

// signalHub fans discovery signals out to every active Listen call. Publishing never waits on
// a listener: each one owns an unbounded queue drained by its own goroutine.
type signalHub struct {
	lk        deadlock.Mutex
	next      uint64
	listeners map[uint64]*signalQueue
}

func (h *signalHub) listen(ctx context.Context) <-chan *types.DiscoverySignal {
	h.lk.Lock()
	if h.listeners == nil {
		h.listeners = make(map[uint64]*signalQueue)
	}
	id := h.next
	h.next++
	q := &signalQueue{wake: make(chan struct{}, 1)}
	h.listeners[id] = q
	h.lk.Unlock()

	out := make(chan *types.DiscoverySignal)
	go func() {
		defer func() {
			h.lk.Lock()
			delete(h.listeners, id)
			h.lk.Unlock()
			close(out)
		}()
		q.drain(ctx, out)
	}()
	return out
}

// publish returns the number of listeners the signal was queued for.
func (h *signalHub) publish(sig *types.DiscoverySignal) int {
	h.lk.Lock()
	defer h.lk.Unlock()
	for _, q := range h.listeners {
		q.push(sig)
	}
	return len(h.listeners)
}

func (h *signalHub) count() int {
	h.lk.Lock()
	defer h.lk.Unlock()
	return len(h.listeners)
}

type signalQueue struct {
	lk    deadlock.Mutex
	items []*types.DiscoverySignal
	wake  chan struct{}
}

func (q *signalQueue) push(sig *types.DiscoverySignal) {
	q.lk.Lock()
	q.items = append(q.items, sig)
	q.lk.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *signalQueue) pop() (*types.DiscoverySignal, bool) {
	q.lk.Lock()
	defer q.lk.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	sig := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return sig, true
}

func (q *signalQueue) drain(ctx context.Context, out chan<- *types.DiscoverySignal) {
	for {
		sig, ok := q.pop()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case out <- sig:
		case <-ctx.Done():
			return
		}
	}
}
