package walletevent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ipfs-force-community/wallet-adapter/eventbus"
	"github.com/ipfs-force-community/wallet-adapter/types"
)

type echoProvider struct {
	lk        deadlock.Mutex
	listeners []func(*types.ChangeEvent)
}

func (p *echoProvider) Invoke(ctx context.Context, feature string, payload []byte) ([]byte, error) {
	if feature == types.SolanaSignMessage {
		return nil, errors.New("user rejected the request")
	}
	return json.Marshal(map[string]string{"feature": feature, "payload": string(payload)})
}

func (p *echoProvider) OnChange(listener func(*types.ChangeEvent)) func() {
	p.lk.Lock()
	defer p.lk.Unlock()
	p.listeners = append(p.listeners, listener)
	return func() {}
}

func (p *echoProvider) emit(change *types.ChangeEvent) {
	p.lk.Lock()
	defer p.lk.Unlock()
	for _, fn := range p.listeners {
		fn(change)
	}
}

func setupGateway(t *testing.T, ctx context.Context) (*WalletGateway, *Registry, *eventbus.Subscription) {
	gateway := NewWalletGateway(ctx, types.DefaultConfig())
	reg := NewRegistry()
	bus := eventbus.New(16)
	t.Cleanup(bus.Close)
	sub := bus.Subscribe()
	require.NoError(t, NewDiscovery(gateway, reg, bus).Start(ctx))
	return gateway, reg, sub
}

func startWallet(t *testing.T, ctx context.Context, gateway *WalletGateway, provider types.Provider, ann *types.WalletAnnouncement) *WalletEventClient {
	client := NewWalletEventClient(ctx, provider, ann, gateway, zap.NewNop().Sugar())
	go client.ListenWalletRequest(ctx)
	waitCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	client.WaitReady(waitCtx)
	require.NoError(t, waitCtx.Err())
	return client
}

func TestWalletGateway(t *testing.T) {
	t.Run("register and invoke", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gateway, reg, sub := setupGateway(t, ctx)

		walletCtx, walletCancel := context.WithCancel(ctx)
		client := startWallet(t, walletCtx, gateway, &echoProvider{}, phantom(""))
		require.True(t, client.AppReady())

		ev := recvEvent(t, sub)
		require.Equal(t, types.EventRegistered, ev.Kind)
		desc, err := reg.Get("Phantom")
		require.NoError(t, err)

		out, err := desc.Provider().Invoke(ctx, types.StandardConnect, []byte(`{"silent":false}`))
		require.NoError(t, err)
		var result map[string]string
		require.NoError(t, json.Unmarshal(out, &result))
		require.Equal(t, types.StandardConnect, result["feature"])
		require.Equal(t, `{"silent":false}`, result["payload"])

		_, err = desc.Provider().Invoke(ctx, types.SolanaSignMessage, nil)
		require.EqualError(t, err, "user rejected the request")

		conns, err := gateway.ListWalletConnections(ctx)
		require.NoError(t, err)
		require.Len(t, conns, 1)
		require.Equal(t, client.ChannelID(), conns[0].ChannelID)

		walletCancel()
		ev = recvEvent(t, sub)
		require.Equal(t, types.EventUnregistered, ev.Kind)
		require.Equal(t, 0, reg.Len())
	})

	t.Run("malformed announcement", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gateway, reg, sub := setupGateway(t, ctx)

		_, err := gateway.ListenWalletEvent(ctx, &types.WalletAnnouncement{Name: "Broken"})
		require.ErrorIs(t, err, types.ErrMalformedDiscoverySignal)
		ev := recvEvent(t, sub)
		require.Equal(t, types.EventError, ev.Kind)
		require.Equal(t, 0, reg.Len())
	})

	t.Run("newest channel wins", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gateway, reg, sub := setupGateway(t, ctx)

		firstCtx, firstCancel := context.WithCancel(ctx)
		startWallet(t, firstCtx, gateway, &echoProvider{}, phantom("first"))
		require.Equal(t, types.EventRegistered, recvEvent(t, sub).Kind)

		secondCtx, secondCancel := context.WithCancel(ctx)
		startWallet(t, secondCtx, gateway, &echoProvider{}, phantom("second"))
		require.Equal(t, types.EventRegistered, recvEvent(t, sub).Kind)

		desc, err := reg.Get("Phantom")
		require.NoError(t, err)
		require.Equal(t, "second", desc.Icon())

		// closing the stale channel leaves the registration alone
		firstCancel()
		requireNoEvent(t, sub)
		desc, err = reg.Get("Phantom")
		require.NoError(t, err)
		require.Equal(t, "second", desc.Icon())

		secondCancel()
		require.Equal(t, types.EventUnregistered, recvEvent(t, sub).Kind)
	})

	t.Run("forward change events", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gateway, reg, sub := setupGateway(t, ctx)

		provider := &echoProvider{}
		startWallet(t, ctx, gateway, provider, phantom(""))
		require.Equal(t, types.EventRegistered, recvEvent(t, sub).Kind)
		desc, err := reg.Get("Phantom")
		require.NoError(t, err)

		emitter, ok := desc.Provider().(types.EventEmitter)
		require.True(t, ok)
		changes := make(chan *types.ChangeEvent, 1)
		off := emitter.OnChange(func(change *types.ChangeEvent) {
			changes <- change
		})
		defer off()

		provider.emit(&types.ChangeEvent{Chains: []string{"solana:devnet"}})
		select {
		case change := <-changes:
			require.Equal(t, []string{"solana:devnet"}, change.Chains)
			require.Nil(t, change.Accounts)
		case <-time.After(time.Second * 5):
			t.Fatal("change event not forwarded")
		}
	})
	t.Run("app ready reaches channels opened concurrently", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gateway := NewWalletGateway(ctx, types.DefaultConfig())

		const wallets = 32
		outs := make([]<-chan *types.RequestEvent, wallets)
		errs := make([]error, wallets)
		var wg sync.WaitGroup
		for i := 0; i < wallets; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ann := phantom("")
				ann.Name = fmt.Sprintf("Wallet%d", i)
				outs[i], errs[i] = gateway.ListenWalletEvent(ctx, ann)
			}(i)
		}
		require.NoError(t, gateway.DispatchAppReady(ctx))
		wg.Wait()

		for i, out := range outs {
			require.NoError(t, errs[i])
			first := <-out
			require.Equal(t, types.MethodInitConnect, first.Method)
			var req types.InitConnect
			require.NoError(t, json.Unmarshal(first.Payload, &req))
			if req.AppReady {
				continue
			}
			select {
			case ev := <-out:
				require.Equal(t, types.MethodAppReady, ev.Method, "wallet %d", i)
			default:
				t.Fatalf("wallet %d never learned the app is ready", i)
			}
		}
	})
}
