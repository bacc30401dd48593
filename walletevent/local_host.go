package walletevent

import (
	"context"
	"strings"

	"github.com/sasha-s/go-deadlock"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

var _ types.Host = (*LocalHost)(nil)

// LocalHost is an in-process host. Wallets announcing before the application is ready are
// held back and delivered when app-ready is dispatched, the way browser wallets re-register
// on the app-ready event.
type LocalHost struct {
	hub signalHub

	lk         deadlock.Mutex
	ready      bool
	readyCount int
	pending    []*types.DiscoverySignal
}

func NewLocalHost() *LocalHost {
	return &LocalHost{}
}

func (h *LocalHost) Listen(ctx context.Context) (<-chan *types.DiscoverySignal, error) {
	return h.hub.listen(ctx), nil
}

func (h *LocalHost) DispatchAppReady(ctx context.Context) error {
	h.lk.Lock()
	defer h.lk.Unlock()
	h.ready = true
	h.readyCount++
	for _, sig := range h.pending {
		h.hub.publish(sig)
	}
	h.pending = nil
	return nil
}

// Announce registers a wallet. It may be called any number of times, at any time.
func (h *LocalHost) Announce(ann *types.WalletAnnouncement) {
	h.send(types.RegisterSignal(ann))
}

func (h *LocalHost) Unregister(name string) {
	h.lk.Lock()
	if !h.ready {
		// drop queued announcements of that wallet
		kept := h.pending[:0]
		for _, sig := range h.pending {
			if sig.Announcement == nil || !strings.EqualFold(strings.TrimSpace(sig.Announcement.Name), strings.TrimSpace(name)) {
				kept = append(kept, sig)
			}
		}
		h.pending = kept
		h.lk.Unlock()
		return
	}
	h.lk.Unlock()
	h.send(types.UnregisterSignal(name))
}

func (h *LocalHost) send(sig *types.DiscoverySignal) {
	h.lk.Lock()
	defer h.lk.Unlock()
	if !h.ready {
		h.pending = append(h.pending, sig)
		return
	}
	h.hub.publish(sig)
}

// ReadyCount is how many times app-ready was dispatched.
func (h *LocalHost) ReadyCount() int {
	h.lk.Lock()
	defer h.lk.Unlock()
	return h.readyCount
}
