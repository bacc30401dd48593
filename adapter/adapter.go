// Package adapter is the consumer handle of the wallet adapter. It discovers wallets through a
// host, keeps a single connection session and dispatches signing requests to the connected
// wallet.
package adapter

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/ipfs-force-community/wallet-adapter/eventbus"
	"github.com/ipfs-force-community/wallet-adapter/metrics"
	"github.com/ipfs-force-community/wallet-adapter/types"
	"github.com/ipfs-force-community/wallet-adapter/walletevent"
)

var log = logging.Logger("adapter")

type options struct {
	eventCapacity int
}

type Option func(*options)

// WithEventCapacity sets how many events each subscriber buffers before lagging.
func WithEventCapacity(n int) Option {
	return func(o *options) {
		o.eventCapacity = n
	}
}

type Adapter struct {
	bus       *eventbus.Bus
	registry  *walletevent.Registry
	discovery *walletevent.Discovery
	conn      *connection

	cancel context.CancelFunc
}

// New starts discovery on host and returns the adapter. Wallets announce asynchronously, so
// Wallets may be empty right after New returns.
func New(ctx context.Context, host types.Host, opts ...Option) (*Adapter, error) {
	o := &options{eventCapacity: eventbus.DefaultCapacity}
	for _, opt := range opts {
		opt(o)
	}

	ctx, cancel := context.WithCancel(ctx)
	bus := eventbus.New(o.eventCapacity)
	registry := walletevent.NewRegistry()
	discovery := walletevent.NewDiscovery(host, registry, bus)
	conn := newConnection(ctx, registry, bus)
	discovery.OnRegister(conn.walletRegistered)
	discovery.OnUnregister(conn.walletUnregistered)

	if err := discovery.Start(ctx); err != nil {
		cancel()
		bus.Close()
		return nil, errors.Wrap(err, "start wallet discovery")
	}
	go conn.processInbox(ctx)

	log.Infow("adapter started", "eventCapacity", bus.Capacity())
	return &Adapter{
		bus:       bus,
		registry:  registry,
		discovery: discovery,
		conn:      conn,
		cancel:    cancel,
	}, nil
}

// Events subscribes to lifecycle events emitted from now on. Close the subscription when done.
func (a *Adapter) Events(ctx context.Context) *eventbus.Subscription {
	sub := a.bus.Subscribe()
	metrics.EventSubscribers.Set(ctx, int64(a.bus.Len()))
	return sub
}

// Wallets returns the registered wallets ordered by name.
func (a *Adapter) Wallets() []*types.WalletDescriptor {
	return a.registry.List()
}

func (a *Adapter) Wallet(name string) (*types.WalletDescriptor, error) {
	return a.registry.Get(name)
}

func (a *Adapter) Connect(ctx context.Context, desc *types.WalletDescriptor) (*types.Account, error) {
	return a.conn.connect(ctx, desc)
}

func (a *Adapter) ConnectByName(ctx context.Context, name string) (*types.Account, error) {
	desc, err := a.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return a.conn.connect(ctx, desc)
}

// Disconnect ends the session. It succeeds without effect when nothing is connected.
func (a *Adapter) Disconnect(ctx context.Context) error {
	return a.conn.disconnect(ctx)
}

func (a *Adapter) ConnectionInfo() *types.ConnectionInfo {
	return a.conn.snapshot()
}

// Close stops discovery and ends every event subscription. The session is dropped without
// contacting the wallet.
func (a *Adapter) Close() {
	a.cancel()
	a.conn.release()
	a.bus.Close()
	<-a.discovery.Done()
	log.Info("adapter closed")
}
