package walletevent

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/google/uuid"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

// IWalletEventAPI is the surface remote wallets talk to.
type IWalletEventAPI interface {
	ListenWalletEvent(ctx context.Context, ann *types.WalletAnnouncement) (<-chan *types.RequestEvent, error)
	ResponseWalletEvent(ctx context.Context, resp *types.ResponseEvent) error
	NotifyWalletChange(ctx context.Context, channelID uuid.UUID, change *types.ChangeEvent) error
	ListWalletConnections(ctx context.Context) ([]*types.WalletConnection, error)
}

type WalletEventStruct struct {
	Internal struct {
		ListenWalletEvent     func(ctx context.Context, ann *types.WalletAnnouncement) (<-chan *types.RequestEvent, error) `perm:"sign"`
		ResponseWalletEvent   func(ctx context.Context, resp *types.ResponseEvent) error                                   `perm:"sign"`
		NotifyWalletChange    func(ctx context.Context, channelID uuid.UUID, change *types.ChangeEvent) error              `perm:"sign"`
		ListWalletConnections func(ctx context.Context) ([]*types.WalletConnection, error)                                 `perm:"admin"`
	}
}

var _ IWalletEventAPI = (*WalletEventStruct)(nil)

func (s *WalletEventStruct) ListenWalletEvent(ctx context.Context, ann *types.WalletAnnouncement) (<-chan *types.RequestEvent, error) {
	return s.Internal.ListenWalletEvent(ctx, ann)
}

func (s *WalletEventStruct) ResponseWalletEvent(ctx context.Context, resp *types.ResponseEvent) error {
	return s.Internal.ResponseWalletEvent(ctx, resp)
}

func (s *WalletEventStruct) NotifyWalletChange(ctx context.Context, channelID uuid.UUID, change *types.ChangeEvent) error {
	return s.Internal.NotifyWalletChange(ctx, channelID, change)
}

func (s *WalletEventStruct) ListWalletConnections(ctx context.Context) ([]*types.WalletConnection, error) {
	return s.Internal.ListWalletConnections(ctx)
}

// RPCNamespace is the JSON-RPC namespace the daemon registers its handlers under.
const RPCNamespace = "Adapter"

// NewWalletRegisterClient dials the daemon websocket endpoint for a remote wallet.
func NewWalletRegisterClient(ctx context.Context, url, token string) (IWalletEventAPI, jsonrpc.ClientCloser, error) {
	headers := http.Header{}
	headers.Add("Authorization", "Bearer "+token)
	var client WalletEventStruct
	closer, err := jsonrpc.NewMergeClient(ctx, url, RPCNamespace, []interface{}{&client.Internal}, headers)
	if err != nil {
		return nil, nil, err
	}
	return &client, closer, nil
}
