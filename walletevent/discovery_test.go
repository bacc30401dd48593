package walletevent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/wallet-adapter/eventbus"
	"github.com/ipfs-force-community/wallet-adapter/types"
)

func recvEvent(t *testing.T, sub *eventbus.Subscription) *types.WalletEvent {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	ev, err := sub.Recv(ctx)
	require.NoError(t, err)
	return ev
}

func requireNoEvent(t *testing.T, sub *eventbus.Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()
	ev, err := sub.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded, "unexpected event %v", ev)
}

func phantom(icon string) *types.WalletAnnouncement {
	return &types.WalletAnnouncement{
		Name:     "Phantom",
		Icon:     icon,
		Chains:   []string{"solana:mainnet", "solana:devnet"},
		Features: []string{types.StandardConnect, types.SolanaSignMessage},
	}
}

func setupDiscovery(t *testing.T) (*LocalHost, *Registry, *Discovery, *eventbus.Subscription) {
	host := NewLocalHost()
	reg := NewRegistry()
	bus := eventbus.New(16)
	sub := bus.Subscribe()
	t.Cleanup(bus.Close)
	return host, reg, NewDiscovery(host, reg, bus), sub
}

func TestDiscovery(t *testing.T) {
	t.Run("announce before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		host, reg, discovery, sub := setupDiscovery(t)

		host.Announce(phantom("early"))
		require.Equal(t, 0, reg.Len())

		require.NoError(t, discovery.Start(ctx))
		ev := recvEvent(t, sub)
		require.Equal(t, types.EventRegistered, ev.Kind)
		require.Equal(t, "Phantom", ev.Wallet.Name())
		require.Equal(t, 1, host.ReadyCount())

		require.ErrorIs(t, discovery.Start(ctx), ErrAlreadyStarted)
		require.Equal(t, 1, host.ReadyCount())
	})

	t.Run("last announcement wins", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		host, reg, discovery, sub := setupDiscovery(t)
		require.NoError(t, discovery.Start(ctx))

		for _, icon := range []string{"a", "b", "c"} {
			host.Announce(phantom(icon))
			ev := recvEvent(t, sub)
			require.Equal(t, types.EventRegistered, ev.Kind)
		}
		require.Equal(t, 1, reg.Len())
		desc, err := reg.Get("phantom")
		require.NoError(t, err)
		require.Equal(t, "c", desc.Icon())
	})

	t.Run("malformed announcement", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		host, reg, discovery, sub := setupDiscovery(t)
		require.NoError(t, discovery.Start(ctx))

		host.Announce(&types.WalletAnnouncement{Name: "NoFeatures"})
		host.Announce(&types.WalletAnnouncement{Features: []string{types.StandardConnect}})

		for i := 0; i < 2; i++ {
			ev := recvEvent(t, sub)
			require.Equal(t, types.EventError, ev.Kind)
			require.Equal(t, types.KindMalformedDiscoverySignal, ev.Err.Kind)
		}
		require.Equal(t, 0, reg.Len())

		// discovery keeps running
		host.Announce(phantom(""))
		require.Equal(t, types.EventRegistered, recvEvent(t, sub).Kind)
	})

	t.Run("unregister", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		host, reg, discovery, sub := setupDiscovery(t)

		removed := make(chan string, 1)
		discovery.OnUnregister(func(desc *types.WalletDescriptor) {
			removed <- desc.Name()
		})
		require.NoError(t, discovery.Start(ctx))

		host.Unregister("Unknown")
		requireNoEvent(t, sub)

		host.Announce(phantom(""))
		require.Equal(t, types.EventRegistered, recvEvent(t, sub).Kind)

		host.Unregister("PHANTOM")
		ev := recvEvent(t, sub)
		require.Equal(t, types.EventUnregistered, ev.Kind)
		require.Equal(t, "Phantom", ev.Name)
		require.Equal(t, "Phantom", <-removed)
		require.Equal(t, 0, reg.Len())
	})

	t.Run("unregister before ready drops announcement", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		host, reg, discovery, sub := setupDiscovery(t)

		host.Announce(phantom(""))
		host.Unregister("Phantom")
		require.NoError(t, discovery.Start(ctx))
		requireNoEvent(t, sub)
		require.Equal(t, 0, reg.Len())
	})

	t.Run("stops with context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		_, _, discovery, _ := setupDiscovery(t)
		require.NoError(t, discovery.Start(ctx))
		cancel()
		select {
		case <-discovery.Done():
		case <-time.After(time.Second * 5):
			t.Fatal("discovery did not stop")
		}
	})
}
