package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/wallet-adapter/eventbus"
	"github.com/ipfs-force-community/wallet-adapter/types"
)

// AllFeatures is every feature a full wallet announces.
var AllFeatures = []string{
	types.StandardConnect,
	types.StandardDisconnect,
	types.StandardEvents,
	types.SolanaSignMessage,
	types.SolanaSignTransaction,
	types.SolanaSignAndSendTransaction,
	types.SolanaSignIn,
}

// WaitEvent receives the next event and requires it to be of kind.
func WaitEvent(t *testing.T, sub *eventbus.Subscription, kind types.EventKind) *types.WalletEvent {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	ev, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, kind, ev.Kind, "got %s", ev)
	return ev
}

// NoEvent requires nothing to arrive on sub for a short while.
func NoEvent(t *testing.T, sub *eventbus.Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*200)
	defer cancel()
	ev, err := sub.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded, "unexpected event %v", ev)
}

// SigninInput builds a valid sign-in request for address on devnet.
func SigninInput(t *testing.T, address string) *types.SigninInput {
	nonce, err := types.NewNonce()
	require.NoError(t, err)
	return &types.SigninInput{
		Domain:    "example.com",
		Statement: "Sign in to Example",
		ChainID:   types.Devnet.String(),
		Address:   address,
		Nonce:     nonce,
		IssuedAt:  time.Now().UTC().Truncate(time.Second),
	}
}
