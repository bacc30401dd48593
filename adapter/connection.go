package adapter

import (
	"context"
	"encoding/json"

	"github.com/sasha-s/go-deadlock"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/wallet-adapter/eventbus"
	"github.com/ipfs-force-community/wallet-adapter/metrics"
	"github.com/ipfs-force-community/wallet-adapter/types"
	"github.com/ipfs-force-community/wallet-adapter/walletevent"
)

const (
	reasonExplicit     = "explicit"
	reasonUnregistered = "unregistered"
	reasonRevoked      = "accounts_revoked"
)

// connection is the single writer of the session. Every transition happens under lk; provider
// calls happen outside it on a context the caller cannot cancel, so an abandoned call still
// resolves its transition.
type connection struct {
	ctx      context.Context
	registry *walletevent.Registry
	bus      *eventbus.Bus

	lk      deadlock.Mutex
	status  types.ConnectionStatus
	wallet  *types.WalletDescriptor
	account *types.Account
	// gen identifies the session; it changes on every transition out of Connecting or Connected
	gen uint64
	// listening is the descriptor whose provider feeds change events to the session
	listening *types.WalletDescriptor
	off       func()

	inboxLk     deadlock.Mutex
	unregisters []unregistration
	changes     []accountChange
	wake        chan struct{}
}

type unregistration struct {
	gen  uint64
	desc *types.WalletDescriptor
}

type accountChange struct {
	gen    uint64
	change *types.ChangeEvent
}

func newConnection(ctx context.Context, registry *walletevent.Registry, bus *eventbus.Bus) *connection {
	return &connection{
		ctx:      ctx,
		registry: registry,
		bus:      bus,
		wake:     make(chan struct{}, 1),
	}
}

func (c *connection) snapshot() *types.ConnectionInfo {
	c.lk.Lock()
	defer c.lk.Unlock()
	return &types.ConnectionInfo{
		Status:  c.status,
		Wallet:  c.wallet,
		Account: c.account,
	}
}

// session returns the connected wallet and account.
func (c *connection) session() (*types.WalletDescriptor, *types.Account, error) {
	c.lk.Lock()
	defer c.lk.Unlock()
	if c.status != types.Connected {
		return nil, nil, types.NewError(types.KindNotConnected, "no wallet connected")
	}
	return c.wallet, c.account, nil
}

func (c *connection) setStatus(status types.ConnectionStatus) {
	c.status = status
	metrics.ConnectionStatus.Set(c.ctx, int64(status))
}

// reset returns to Disconnected. Callers hold lk and run the returned listener removal after
// unlocking.
func (c *connection) reset() func() {
	off := c.off
	c.off = nil
	c.listening = nil
	c.wallet = nil
	c.account = nil
	c.gen++
	c.setStatus(types.Disconnected)
	return off
}

func (c *connection) connect(ctx context.Context, desc *types.WalletDescriptor) (*types.Account, error) {
	if desc == nil {
		return nil, types.NewError(types.KindWalletNotFound, "no wallet given")
	}

	c.lk.Lock()
	switch c.status {
	case types.Connecting, types.Disconnecting:
		c.lk.Unlock()
		return nil, types.NewError(types.KindAlreadyConnecting, "a connection transition is in flight")
	case types.Connected:
		name := c.wallet.Name()
		c.lk.Unlock()
		return nil, types.NewError(types.KindAlreadyConnected, "already connected to %s", name)
	}
	current, ok := c.registry.GetByKey(desc.Key())
	if !ok {
		c.lk.Unlock()
		return nil, types.NewError(types.KindWalletNotFound, "wallet %s is not registered", desc.Name())
	}
	if !current.HasFeature(types.StandardConnect) {
		c.lk.Unlock()
		return nil, types.NewError(types.KindFeatureNotSupported, "wallet %s does not support %s", current.Name(), types.StandardConnect)
	}
	c.wallet = current
	c.gen++
	gen := c.gen
	c.setStatus(types.Connecting)
	c.lk.Unlock()

	log.Infow("connecting", "wallet", current.Name())
	type result struct {
		acc *types.Account
		err error
	}
	done := make(chan result, 1)
	go func() {
		payload, _ := json.Marshal(types.ConnectInput{Silent: false})
		out, err := current.Provider().Invoke(context.WithoutCancel(ctx), types.StandardConnect, payload)
		acc, err := c.finishConnect(gen, current, out, err)
		done <- result{acc: acc, err: err}
	}()

	select {
	case r := <-done:
		return r.acc, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *connection) finishConnect(gen uint64, desc *types.WalletDescriptor, out []byte, invokeErr error) (acc *types.Account, err error) {
	defer func() {
		_ = stats.RecordWithTags(c.ctx, []tag.Mutator{
			tag.Upsert(metrics.WalletNameKey, desc.Name()),
			tag.Upsert(metrics.ResultKey, metrics.ResultOf(err)),
		}, metrics.Connect.M(1))
	}()

	if invokeErr == nil {
		acc, err = decodeConnectOutput(desc, out)
	} else {
		err = types.WrapError(types.KindWalletConnectError, invokeErr, "wallet "+desc.Name()+" rejected the connection")
	}

	c.lk.Lock()
	if c.gen != gen || c.status != types.Connecting {
		c.lk.Unlock()
		log.Warnw("connect attempt was cancelled", "wallet", desc.Name())
		return nil, types.NewError(types.KindWalletConnectError, "wallet %s went away while connecting", desc.Name())
	}
	if err != nil {
		off := c.reset()
		c.lk.Unlock()
		if off != nil {
			off()
		}
		log.Warnw("connect failed", "wallet", desc.Name(), "err", err)
		return nil, err
	}

	c.account = acc
	c.setStatus(types.Connected)
	source := desc
	if current, ok := c.registry.GetByKey(desc.Key()); ok {
		source = current
	}
	prev := c.listen(source)
	c.bus.Emit(types.ConnectedEvent(desc, acc))
	c.lk.Unlock()

	if prev != nil {
		prev()
	}
	log.Infow("connected", "wallet", desc.Name(), "account", acc.Address())
	return acc, nil
}

// listen subscribes the current session to change events of desc's provider. Callers hold lk
// and run the returned removal of the previous listener after unlocking.
func (c *connection) listen(desc *types.WalletDescriptor) func() {
	prev := c.off
	c.off = nil
	c.listening = desc
	gen := c.gen
	if emitter, ok := desc.Provider().(types.EventEmitter); ok {
		c.off = emitter.OnChange(func(change *types.ChangeEvent) {
			c.enqueueChange(gen, change)
		})
	}
	return prev
}

func decodeConnectOutput(desc *types.WalletDescriptor, out []byte) (*types.Account, error) {
	var resp types.ConnectOutput
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, types.WrapError(types.KindWalletConnectError, err, "decode connect response")
	}
	if len(resp.Accounts) == 0 {
		return nil, types.NewError(types.KindWalletConnectError, "wallet %s returned no accounts", desc.Name())
	}
	return types.DecodeAccount(&resp.Accounts[0], desc)
}

func (c *connection) disconnect(ctx context.Context) error {
	c.lk.Lock()
	switch c.status {
	case types.Disconnected:
		c.lk.Unlock()
		return nil
	case types.Connecting, types.Disconnecting:
		c.lk.Unlock()
		return types.NewError(types.KindAlreadyConnecting, "a connection transition is in flight")
	}
	desc := c.wallet
	off := c.off
	c.off = nil
	c.listening = nil
	c.setStatus(types.Disconnecting)
	c.lk.Unlock()

	if off != nil {
		off()
	}
	log.Infow("disconnecting", "wallet", desc.Name())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if current, ok := c.registry.GetByKey(desc.Key()); ok {
			desc = current
		}
		if desc.HasFeature(types.StandardDisconnect) {
			if _, err := desc.Provider().Invoke(context.WithoutCancel(ctx), types.StandardDisconnect, nil); err != nil {
				werr := types.WrapError(types.KindProviderInvocationError, err, types.StandardDisconnect)
				log.Warnw("wallet disconnect failed, session ended anyway", "wallet", desc.Name(), "err", err)
				c.bus.Emit(types.ErrorEvent(werr))
			}
		}

		c.lk.Lock()
		c.reset()
		c.bus.Emit(types.DisconnectedEvent(desc.Name()))
		c.lk.Unlock()
		c.recordDisconnect(desc.Name(), reasonExplicit)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forceDisconnect ends session gen with wallet key without contacting the provider. A
// connection attempt to that wallet resolves to WalletConnectError.
func (c *connection) forceDisconnect(gen uint64, key types.WalletKey, reason string) {
	c.lk.Lock()
	if c.gen != gen || c.wallet == nil || c.wallet.Key() != key {
		c.lk.Unlock()
		return
	}
	name := c.wallet.Name()
	status := c.status
	var off func()
	switch status {
	case types.Connecting:
		off = c.reset()
	case types.Connected:
		off = c.reset()
		c.bus.Emit(types.DisconnectedEvent(name))
	default:
		// Disconnecting ends on its own and emits the event
		c.lk.Unlock()
		return
	}
	c.lk.Unlock()

	if off != nil {
		off()
	}
	log.Infow("session ended by wallet", "wallet", name, "status", status, "reason", reason)
	if status == types.Connected {
		c.recordDisconnect(name, reason)
	}
}

func (c *connection) recordDisconnect(name, reason string) {
	_ = stats.RecordWithTags(c.ctx, []tag.Mutator{
		tag.Upsert(metrics.WalletNameKey, name),
		tag.Upsert(metrics.ReasonKey, reason),
	}, metrics.Disconnect.M(1))
}

// release drops the session on shutdown.
func (c *connection) release() {
	c.lk.Lock()
	off := c.off
	c.off = nil
	c.listening = nil
	c.lk.Unlock()
	if off != nil {
		off()
	}
}

// walletRegistered runs on the discovery goroutine. A re-announcement of the connected wallet
// moves the change listener to the new provider; the session keeps its descriptor.
func (c *connection) walletRegistered(desc *types.WalletDescriptor) {
	c.lk.Lock()
	if c.status != types.Connected || c.wallet.Key() != desc.Key() || c.listening == desc {
		c.lk.Unlock()
		return
	}
	prev := c.listen(desc)
	c.lk.Unlock()

	if prev != nil {
		prev()
	}
	log.Debugw("change listener moved to the new announcement", "wallet", desc.Name())
}

// walletUnregistered runs on the discovery goroutine. It only ends the session that is current
// when the wallet goes away.
func (c *connection) walletUnregistered(desc *types.WalletDescriptor) {
	c.lk.Lock()
	gen := c.gen
	c.lk.Unlock()

	c.inboxLk.Lock()
	c.unregisters = append(c.unregisters, unregistration{gen: gen, desc: desc})
	c.inboxLk.Unlock()
	c.notify()
}

func (c *connection) enqueueChange(gen uint64, change *types.ChangeEvent) {
	if change == nil || change.Accounts == nil {
		return
	}
	c.inboxLk.Lock()
	c.changes = append(c.changes, accountChange{gen: gen, change: change})
	c.inboxLk.Unlock()
	c.notify()
}

func (c *connection) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *connection) processInbox(ctx context.Context) {
	for {
		select {
		case <-c.wake:
		case <-ctx.Done():
			return
		}
		for c.drainInbox() {
		}
	}
}

// drainInbox applies one batch of queued signals, unregistrations first.
func (c *connection) drainInbox() bool {
	c.inboxLk.Lock()
	unregisters, changes := c.unregisters, c.changes
	c.unregisters, c.changes = nil, nil
	c.inboxLk.Unlock()

	if len(unregisters) == 0 && len(changes) == 0 {
		return false
	}
	for _, u := range unregisters {
		c.forceDisconnect(u.gen, u.desc.Key(), reasonUnregistered)
	}
	for _, ch := range changes {
		c.applyChange(ch)
	}
	return true
}

func (c *connection) applyChange(ch accountChange) {
	c.lk.Lock()
	if c.gen != ch.gen || c.status != types.Connected {
		c.lk.Unlock()
		log.Debugw("ignore account change of an ended session", "gen", ch.gen)
		return
	}
	accounts := *ch.change.Accounts
	desc := c.wallet
	if len(accounts) == 0 {
		off := c.reset()
		c.bus.Emit(types.DisconnectedEvent(desc.Name()))
		c.lk.Unlock()
		if off != nil {
			off()
		}
		log.Infow("wallet revoked all accounts", "wallet", desc.Name())
		c.recordDisconnect(desc.Name(), reasonRevoked)
		return
	}
	if current, ok := c.registry.GetByKey(desc.Key()); ok {
		desc = current
	}

	acc, err := types.DecodeAccount(&accounts[0], desc)
	if err != nil {
		c.bus.Emit(types.ErrorEvent(err))
		c.lk.Unlock()
		log.Warnw("drop invalid account change", "wallet", desc.Name(), "err", err)
		return
	}
	if acc.Equal(c.account) {
		c.lk.Unlock()
		return
	}
	c.account = acc
	c.bus.Emit(types.AccountChangedEvent(c.wallet, acc))
	c.lk.Unlock()

	log.Infow("account changed", "wallet", desc.Name(), "account", acc.Address())
	_ = stats.RecordWithTags(c.ctx, []tag.Mutator{tag.Upsert(metrics.WalletNameKey, desc.Name())},
		metrics.AccountChanged.M(1))
}
