package api

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs-force-community/wallet-adapter/adapter"
	"github.com/ipfs-force-community/wallet-adapter/eventbus"
	"github.com/ipfs-force-community/wallet-adapter/metrics"
	"github.com/ipfs-force-community/wallet-adapter/proxy"
	"github.com/ipfs-force-community/wallet-adapter/types"
	"github.com/ipfs-force-community/wallet-adapter/version"
	"github.com/ipfs-force-community/wallet-adapter/walletevent"
)

var log = logging.Logger("api")

const eventLagged = "Lagged"

var (
	_ IAdapterAPI         = (*AdapterAPIImpl)(nil)
	_ metrics.StateSource = (*AdapterAPIImpl)(nil)
)

type AdapterAPIImpl struct {
	walletevent.IWalletEventAPI
	adapter *adapter.Adapter
	relay   proxy.IProxy
}

func NewAdapterAPIImpl(a *adapter.Adapter, gateway walletevent.IWalletEventAPI, relay proxy.IProxy) *AdapterAPIImpl {
	return &AdapterAPIImpl{
		IWalletEventAPI: gateway,
		adapter:         a,
		relay:           relay,
	}
}

func (impl *AdapterAPIImpl) ListWallets(ctx context.Context) ([]*types.WalletInfo, error) {
	wallets := impl.adapter.Wallets()
	out := make([]*types.WalletInfo, 0, len(wallets))
	for _, desc := range wallets {
		out = append(out, desc.Info())
	}
	return out, nil
}

func (impl *AdapterAPIImpl) Connect(ctx context.Context, name string) (*types.AccountInfo, error) {
	acc, err := impl.adapter.ConnectByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return acc.Info(), nil
}

func (impl *AdapterAPIImpl) Disconnect(ctx context.Context) error {
	return impl.adapter.Disconnect(ctx)
}

func (impl *AdapterAPIImpl) ConnectionInfo(ctx context.Context) (*types.ConnectionState, error) {
	return impl.adapter.ConnectionInfo().State(), nil
}

func (impl *AdapterAPIImpl) Supports(ctx context.Context, capability string) (bool, error) {
	return impl.adapter.Supports(capability)
}

func (impl *AdapterAPIImpl) SignMessage(ctx context.Context, message []byte) (*types.SignMessageOutput, error) {
	return impl.adapter.SignMessage(ctx, message)
}

func (impl *AdapterAPIImpl) SignTransaction(ctx context.Context, tx []byte, chain string) ([]byte, error) {
	if chain == "" {
		return impl.adapter.SignTransaction(ctx, tx, nil)
	}
	cluster, err := types.ParseCluster(chain)
	if err != nil {
		return nil, types.WrapError(types.KindInvalidInput, err, "")
	}
	return impl.adapter.SignTransaction(ctx, tx, &cluster)
}

func (impl *AdapterAPIImpl) SignAndSendTransaction(ctx context.Context, tx []byte, chain string, opts *types.SendOptions) (string, error) {
	cluster, err := types.ParseCluster(chain)
	if err != nil {
		return "", types.WrapError(types.KindInvalidInput, err, "")
	}
	sig, err := impl.adapter.SignAndSendTransaction(ctx, tx, cluster, opts)
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (impl *AdapterAPIImpl) SignIn(ctx context.Context, input *types.SigninInput, publicKey string) (*types.SigninOutput, error) {
	var key solana.PublicKey
	if publicKey != "" {
		raw, err := types.DecodeAddress(publicKey)
		if err != nil {
			return nil, types.WrapError(types.KindInvalidInput, err, "public key")
		}
		key = solana.PublicKeyFromBytes(raw)
	}
	return impl.adapter.SignIn(ctx, input, key)
}

// WalletEvents streams lifecycle events until ctx is done. Skipped events are reported as one
// event of kind Lagged.
func (impl *AdapterAPIImpl) WalletEvents(ctx context.Context) (<-chan *types.EventInfo, error) {
	sub := impl.adapter.Events(ctx)
	out := make(chan *types.EventInfo)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			var info *types.EventInfo
			ev, err := sub.Recv(ctx)
			var lagged *eventbus.LaggedError
			switch {
			case err == nil:
				info = ev.Info()
			case errors.As(err, &lagged):
				info = &types.EventInfo{Kind: eventLagged, Lagged: lagged.Skipped}
			default:
				log.Debugf("stop streaming wallet events: %v", err)
				return
			}
			select {
			case out <- info:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (impl *AdapterAPIImpl) Version(ctx context.Context) (string, error) {
	return version.UserVersion, nil
}

func (impl *AdapterAPIImpl) RegisterReverse(ctx context.Context, chain, address string) error {
	cluster, err := types.ParseCluster(chain)
	if err != nil {
		return types.WrapError(types.KindInvalidInput, err, "proxy chain")
	}
	return impl.relay.RegisterReverseByAddr(cluster, address)
}
