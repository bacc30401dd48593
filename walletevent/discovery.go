package walletevent

import (
	"context"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/wallet-adapter/eventbus"
	"github.com/ipfs-force-community/wallet-adapter/metrics"
	"github.com/ipfs-force-community/wallet-adapter/types"
)

var discoveryLog = logging.Logger("wallet_discovery")

var ErrAlreadyStarted = errors.New("discovery already started")

// RegisterHook runs on the discovery goroutine after a wallet was added to or replaced in the
// registry.
type RegisterHook func(desc *types.WalletDescriptor)

// UnregisterHook runs on the discovery goroutine after a wallet was removed from the registry.
type UnregisterHook func(desc *types.WalletDescriptor)

// Discovery turns host signals into registry updates and bus events.
type Discovery struct {
	host     types.Host
	registry *Registry
	bus      *eventbus.Bus

	startOnce sync.Once
	done      chan struct{}

	hookLk       deadlock.Mutex
	onRegister   []RegisterHook
	onUnregister []UnregisterHook
}

func NewDiscovery(host types.Host, registry *Registry, bus *eventbus.Bus) *Discovery {
	return &Discovery{
		host:     host,
		registry: registry,
		bus:      bus,
		done:     make(chan struct{}),
	}
}

func (d *Discovery) OnRegister(hook RegisterHook) {
	d.hookLk.Lock()
	defer d.hookLk.Unlock()
	d.onRegister = append(d.onRegister, hook)
}

func (d *Discovery) OnUnregister(hook UnregisterHook) {
	d.hookLk.Lock()
	defer d.hookLk.Unlock()
	d.onUnregister = append(d.onUnregister, hook)
}

// Start subscribes to the host and then dispatches app-ready. It can only be called once.
func (d *Discovery) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	d.startOnce.Do(func() {
		err = d.start(ctx)
		if err != nil {
			close(d.done)
		}
	})
	return err
}

func (d *Discovery) start(ctx context.Context) error {
	signals, err := d.host.Listen(ctx)
	if err != nil {
		return errors.Wrap(err, "listen for wallet announcements")
	}
	if err := d.host.DispatchAppReady(ctx); err != nil {
		return errors.Wrap(err, "dispatch app ready")
	}
	discoveryLog.Info("app ready dispatched, waiting for wallets")

	go func() {
		defer close(d.done)
		for sig := range signals {
			d.handle(ctx, sig)
		}
		discoveryLog.Debug("discovery signal stream closed")
	}()
	return nil
}

// Done is closed when the signal stream ends.
func (d *Discovery) Done() <-chan struct{} {
	return d.done
}

func (d *Discovery) handle(ctx context.Context, sig *types.DiscoverySignal) {
	if sig == nil {
		return
	}
	switch sig.Kind {
	case types.SignalRegister:
		d.register(ctx, sig.Announcement)
	case types.SignalUnregister:
		d.unregister(ctx, sig.Name)
	default:
		err := types.NewError(types.KindMalformedDiscoverySignal, "unknown signal kind %d", sig.Kind)
		discoveryLog.Warn(err)
		d.bus.Emit(types.ErrorEvent(err))
	}
}

func (d *Discovery) register(ctx context.Context, ann *types.WalletAnnouncement) {
	desc, err := types.NewWalletDescriptor(ann)
	if err != nil {
		discoveryLog.Warnw("drop wallet announcement", "err", err)
		stats.Record(ctx, metrics.MalformedDiscovery.M(1))
		d.bus.Emit(types.ErrorEvent(err))
		return
	}

	replaced := d.registry.upsert(desc)
	discoveryLog.Infow("wallet registered", "name", desc.Name(), "chains", desc.Clusters(),
		"features", desc.Features(), "replaced", replaced)
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.WalletNameKey, desc.Name())},
		metrics.WalletRegister.M(1))
	metrics.WalletNum.Set(ctx, int64(d.registry.Len()))
	d.bus.Emit(types.RegisteredEvent(desc))

	d.hookLk.Lock()
	hooks := append([]RegisterHook(nil), d.onRegister...)
	d.hookLk.Unlock()
	for _, hook := range hooks {
		hook(desc)
	}
}

func (d *Discovery) unregister(ctx context.Context, name string) {
	desc, ok := d.registry.remove(name)
	if !ok {
		discoveryLog.Debugf("unregister unknown wallet %s", name)
		return
	}

	discoveryLog.Infow("wallet unregistered", "name", desc.Name())
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.WalletNameKey, desc.Name())},
		metrics.WalletUnregister.M(1))
	metrics.WalletNum.Set(ctx, int64(d.registry.Len()))
	d.bus.Emit(types.UnregisteredEvent(desc.Name()))

	d.hookLk.Lock()
	hooks := append([]UnregisterHook(nil), d.onUnregister...)
	d.hookLk.Unlock()
	for _, hook := range hooks {
		hook(desc)
	}
}
