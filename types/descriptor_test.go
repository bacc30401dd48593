package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWalletDescriptor(t *testing.T) {
	t.Run("normalizes", func(t *testing.T) {
		desc, err := NewWalletDescriptor(&WalletAnnouncement{
			Name:     " Phantom ",
			Icon:     "data:image/svg+xml;base64,",
			Chains:   []string{"solana:localnet", "devnet", "solana:mainnet", "solana:devnet"},
			Features: []string{SolanaSignMessage, StandardConnect, StandardConnect},
		})
		require.NoError(t, err)
		require.Equal(t, "Phantom", desc.Name())
		require.Equal(t, []Cluster{Mainnet, Devnet, Localnet}, desc.Clusters())
		require.Equal(t, []string{SolanaSignMessage, StandardConnect}, desc.Features())
		require.True(t, desc.HasFeature(StandardConnect))
		require.False(t, desc.HasFeature(SolanaSignTransaction))
		require.True(t, desc.SupportsCluster(Localnet))
		require.False(t, desc.SupportsCluster(Testnet))
		require.Equal(t, KeyOf("phantom"), desc.Key())
	})

	t.Run("malformed", func(t *testing.T) {
		for name, ann := range map[string]*WalletAnnouncement{
			"nil":         nil,
			"empty name":  {Name: "  ", Features: []string{StandardConnect}},
			"no features": {Name: "Phantom"},
			"bad chain":   {Name: "Phantom", Chains: []string{"ethereum:1"}, Features: []string{StandardConnect}},
		} {
			_, err := NewWalletDescriptor(ann)
			require.ErrorIs(t, err, ErrMalformedDiscoverySignal, name)
		}
	})

	t.Run("info", func(t *testing.T) {
		desc, err := NewWalletDescriptor(&WalletAnnouncement{
			Name:     "Solflare",
			Version:  WalletStandardVersion,
			Chains:   []string{"solana:devnet"},
			Features: []string{StandardConnect},
		})
		require.NoError(t, err)
		info := desc.Info()
		require.Equal(t, "Solflare", info.Name)
		require.Equal(t, []string{"solana:devnet"}, info.Chains)
		require.Equal(t, []string{StandardConnect}, info.Features)
	})
}

func TestParseCluster(t *testing.T) {
	for in, expect := range map[string]Cluster{
		"solana:mainnet": Mainnet,
		"mainnet-beta":   Mainnet,
		"Devnet":         Devnet,
		"solana:testnet": Testnet,
		"localhost":      Localnet,
	} {
		c, err := ParseCluster(in)
		require.NoError(t, err)
		require.Equal(t, expect, c)
	}
	_, err := ParseCluster("solana:unknown")
	require.Error(t, err)
	require.Equal(t, "devnet", Devnet.Short())
	require.Equal(t, "http://127.0.0.1:8899", Localnet.Endpoint())
}

func TestWalletError(t *testing.T) {
	err := NewError(KindWalletConnectError, "user rejected")
	require.ErrorIs(t, err, ErrWalletConnect)
	require.NotErrorIs(t, err, ErrNotConnected)
	require.Equal(t, "WalletConnectError: user rejected", err.Error())

	wrapped := WrapError(KindProviderInvocationError, err, "sign message")
	require.Equal(t, KindProviderInvocationError, KindOf(wrapped))
	require.ErrorIs(t, wrapped, ErrWalletConnect)
	require.Same(t, err, WrapError(KindWalletConnectError, err, "again"))
	require.Equal(t, KindUnknown, KindOf(nil))
}
