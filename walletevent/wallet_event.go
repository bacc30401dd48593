package walletevent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/wallet-adapter/metrics"
	"github.com/ipfs-force-community/wallet-adapter/types"
	"github.com/ipfs-force-community/wallet-adapter/utils"
)

var log = logging.Logger("wallet_gateway")

var (
	_ types.Host      = (*WalletGateway)(nil)
	_ IWalletEventAPI = (*WalletGateway)(nil)
)

// WalletGateway is a host for wallets living in other processes. A wallet opens a request
// stream with ListenWalletEvent; feature invocations are pushed down that stream and answered
// with ResponseWalletEvent.
type WalletGateway struct {
	*types.BaseEventStream
	cfg     *types.RequestConfig
	connMgr *walletConnMgr
	hub     signalHub

	readyLk  deadlock.Mutex
	appReady bool
}

func NewWalletGateway(ctx context.Context, cfg *types.RequestConfig) *WalletGateway {
	if cfg.RequestQueueSize < 1 {
		cfg.RequestQueueSize = 1
	}
	return &WalletGateway{
		BaseEventStream: types.NewBaseEventStream(ctx, cfg),
		cfg:             cfg,
		connMgr:         newWalletConnMgr(),
	}
}

func (w *WalletGateway) Listen(ctx context.Context) (<-chan *types.DiscoverySignal, error) {
	return w.hub.listen(ctx), nil
}

// DispatchAppReady tells every connected wallet the application listens. Wallets connecting
// later learn it from InitConnect.
func (w *WalletGateway) DispatchAppReady(ctx context.Context) error {
	w.readyLk.Lock()
	w.appReady = true
	w.readyLk.Unlock()

	for _, conn := range w.connMgr.currentChannels() {
		if err := pushNotice(conn.ChannelInfo, types.MethodAppReady, nil); err != nil {
			log.Warnf("notify app ready to %s failed %v", conn.name, err)
		}
	}
	return nil
}

func (w *WalletGateway) ListenWalletEvent(ctx context.Context, ann *types.WalletAnnouncement) (<-chan *types.RequestEvent, error) {
	if _, err := types.NewWalletDescriptor(ann); err != nil {
		// still reported to discovery so the application sees the error event
		w.hub.publish(types.RegisterSignal(ann))
		return nil, err
	}

	source, _ := utils.CtxGetRemote(ctx)
	out := make(chan *types.RequestEvent, w.cfg.RequestQueueSize)
	walletLog := log.With("wallet", ann.Name).With("source", source)
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.WalletNameKey, ann.Name), tag.Upsert(metrics.SourceKey, source))

	channel := types.NewChannelInfo(ctx, source, out)
	announced := *ann
	walletChannel := newWalletChannelInfo(channel, &announced)
	announced.Provider = &channelProvider{gateway: w, channel: walletChannel}

	// readyLk is held until the channel is listed, so DispatchAppReady either reaches the
	// channel or is reported in InitConnect
	w.readyLk.Lock()
	initBytes, err := json.Marshal(types.InitConnect{
		ChannelID: channel.ChannelID,
		AppReady:  w.appReady,
	})
	if err != nil {
		w.readyLk.Unlock()
		return nil, errors.Wrap(err, "marshal init connect")
	}
	// out is empty here, so this never blocks
	out <- &types.RequestEvent{
		ID:         uuid.New(),
		Method:     types.MethodInitConnect,
		CreateTime: time.Now(),
		Payload:    initBytes,
	}
	w.connMgr.addNewConn(walletChannel)
	w.readyLk.Unlock()

	w.hub.publish(types.RegisterSignal(&announced))
	walletLog.Infof("add new connections %s", channel.ChannelID)

	go func() {
		<-ctx.Done()
		wasCurrent, promoted := w.connMgr.removeConn(walletChannel)
		switch {
		case !wasCurrent:
			walletLog.Infof("stale channel %s closed", channel.ChannelID)
		case promoted != nil:
			walletLog.Infof("channel %s closed, fall back to %s", channel.ChannelID, promoted.ChannelID)
			w.hub.publish(types.RegisterSignal(promoted.announcement))
		default:
			walletLog.Infof("channel %s closed, unregister wallet", channel.ChannelID)
			w.hub.publish(types.UnregisterSignal(ann.Name))
		}
		closeOutbound(out)
	}()
	return out, nil
}

func (w *WalletGateway) ResponseWalletEvent(ctx context.Context, resp *types.ResponseEvent) error {
	return w.ResponseEvent(ctx, resp)
}

// NotifyWalletChange forwards a standard:events change emitted by the wallet behind channelID.
func (w *WalletGateway) NotifyWalletChange(ctx context.Context, channelID uuid.UUID, change *types.ChangeEvent) error {
	conn, err := w.connMgr.getConn(channelID)
	if err != nil {
		return err
	}
	n := conn.notify(change)
	log.Debugf("wallet %s change delivered to %d listeners", conn.name, n)
	return nil
}

func (w *WalletGateway) ListWalletConnections(ctx context.Context) ([]*types.WalletConnection, error) {
	return w.connMgr.listConnections(), nil
}

// pushNotice queues a request that expects no response.
func pushNotice(channel *types.ChannelInfo, method string, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = types.ErrCloseChannel
		}
	}()
	select {
	case channel.OutBound <- &types.RequestEvent{
		ID:         uuid.New(),
		Method:     method,
		CreateTime: time.Now(),
		Payload:    payload,
	}:
		return nil
	default:
		return errors.Errorf("request queue of %s is full", channel.ChannelID)
	}
}

func closeOutbound(out chan *types.RequestEvent) {
	defer func() {
		_ = recover()
	}()
	close(out)
}

// channelProvider invokes features over a remote wallet channel.
type channelProvider struct {
	gateway *WalletGateway
	channel *walletChannelInfo
}

var (
	_ types.Provider     = (*channelProvider)(nil)
	_ types.EventEmitter = (*channelProvider)(nil)
)

func (p *channelProvider) Invoke(ctx context.Context, feature string, payload []byte) ([]byte, error) {
	var result json.RawMessage
	err := p.gateway.SendRequest(ctx, []*types.ChannelInfo{p.channel.ChannelInfo}, feature, payload, &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *channelProvider) OnChange(listener func(*types.ChangeEvent)) func() {
	return p.channel.addListener(listener)
}
