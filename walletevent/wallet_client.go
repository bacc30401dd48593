package walletevent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

// WalletEventClient runs on the wallet side. It announces the wallet to the daemon, serves
// feature requests with the local provider and forwards the provider's change events.
type WalletEventClient struct {
	provider     types.Provider
	announcement *types.WalletAnnouncement
	client       IWalletEventAPI
	log          *zap.SugaredLogger
	readyCh      chan struct{}

	lk       deadlock.Mutex
	channel  uuid.UUID
	appReady bool
}

func NewWalletEventClient(ctx context.Context, provider types.Provider, ann *types.WalletAnnouncement, client IWalletEventAPI, log *zap.SugaredLogger) *WalletEventClient {
	return &WalletEventClient{
		provider:     provider,
		announcement: ann,
		client:       client,
		log:          log,
		readyCh:      make(chan struct{}, 1),
	}
}

func (e *WalletEventClient) ListenWalletRequest(ctx context.Context) {
	for {
		if err := e.listenWalletRequestOnce(ctx); err != nil {
			e.log.Errorf("listen wallet event errored: %s", err)
		} else {
			e.log.Warn("listenWalletRequestOnce quit, try again")
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			e.log.Warnf("not restarting listenWalletRequestOnce: context error: %s", ctx.Err())
			return
		}
		e.log.Info("restarting listenWalletRequestOnce")
		// try clear ready channel
		select {
		case <-e.readyCh:
		default:
		}
	}
}

func (e *WalletEventClient) WaitReady(ctx context.Context) {
	select {
	case <-e.readyCh:
	case <-ctx.Done():
	}
}

// ChannelID is the channel assigned by the daemon on the current connection.
func (e *WalletEventClient) ChannelID() uuid.UUID {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.channel
}

func (e *WalletEventClient) AppReady() bool {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.appReady
}

func (e *WalletEventClient) listenWalletRequestOnce(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.log.Infow("announce wallet", "name", e.announcement.Name, "chains", e.announcement.Chains,
		"features", e.announcement.Features)
	walletEventCh, err := e.client.ListenWalletEvent(ctx, e.announcement)
	if err != nil {
		// Retry is handled by caller
		return fmt.Errorf("listenWalletRequestOnce ListenWalletEvent call failed: %w", err)
	}

	for event := range walletEventCh {
		switch event.Method {
		case types.MethodInitConnect:
			req := types.InitConnect{}
			if err := json.Unmarshal(event.Payload, &req); err != nil {
				e.log.Errorf("init connect error %s", err)
				continue
			}
			e.lk.Lock()
			e.channel = req.ChannelID
			e.appReady = e.appReady || req.AppReady
			e.lk.Unlock()
			if emitter, ok := e.provider.(types.EventEmitter); ok {
				off := emitter.OnChange(func(change *types.ChangeEvent) {
					e.forwardChange(ctx, req.ChannelID, change)
				})
				defer off()
			}
			e.log.Infof("connect to server success %v", req.ChannelID)
			select {
			case e.readyCh <- struct{}{}:
			default:
			}
			// do not response
		case types.MethodAppReady:
			e.lk.Lock()
			e.appReady = true
			e.lk.Unlock()
			e.log.Info("application is ready")
		default:
			go e.invoke(ctx, event)
		}
	}

	return nil
}

func (e *WalletEventClient) forwardChange(ctx context.Context, channel uuid.UUID, change *types.ChangeEvent) {
	// listeners must not block the provider
	go func() {
		if err := e.client.NotifyWalletChange(ctx, channel, change); err != nil {
			e.log.Errorf("notify wallet change error %s", err)
		}
	}()
}

func (e *WalletEventClient) invoke(ctx context.Context, event *types.RequestEvent) {
	e.log.Debugf("receive %s event", event.Method)
	result, err := e.provider.Invoke(ctx, event.Method, event.Payload)
	if err != nil {
		e.log.Errorf("%s error %s", event.Method, err)
		e.error(ctx, event.ID, err)
		return
	}
	e.value(ctx, event.ID, result)
}

func (e *WalletEventClient) value(ctx context.Context, id uuid.UUID, payload []byte) {
	err := e.client.ResponseWalletEvent(ctx, &types.ResponseEvent{
		ID:      id,
		Payload: payload,
		Error:   "",
	})
	if err != nil {
		e.log.Errorf("response error %v", err)
	}
}

func (e *WalletEventClient) error(ctx context.Context, id uuid.UUID, err error) {
	err = e.client.ResponseWalletEvent(ctx, &types.ResponseEvent{
		ID:      id,
		Payload: nil,
		Error:   err.Error(),
	})
	if err != nil {
		e.log.Errorf("response error %v", err)
	}
}
