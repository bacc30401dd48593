package api

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/google/uuid"

	"github.com/ipfs-force-community/wallet-adapter/types"
	"github.com/ipfs-force-community/wallet-adapter/walletevent"
)

// IConsumerAPI is what applications use to drive the adapter.
type IConsumerAPI interface {
	ListWallets(ctx context.Context) ([]*types.WalletInfo, error)
	Connect(ctx context.Context, name string) (*types.AccountInfo, error)
	Disconnect(ctx context.Context) error
	ConnectionInfo(ctx context.Context) (*types.ConnectionState, error)
	Supports(ctx context.Context, capability string) (bool, error)

	SignMessage(ctx context.Context, message []byte) (*types.SignMessageOutput, error)
	SignTransaction(ctx context.Context, tx []byte, chain string) ([]byte, error)
	// SignAndSendTransaction returns the base58 transaction signature.
	SignAndSendTransaction(ctx context.Context, tx []byte, chain string, opts *types.SendOptions) (string, error)
	// SignIn verifies against publicKey, or the active account when publicKey is empty.
	SignIn(ctx context.Context, input *types.SigninInput, publicKey string) (*types.SigninOutput, error)

	WalletEvents(ctx context.Context) (<-chan *types.EventInfo, error)
	Version(ctx context.Context) (string, error)
}

// IProxyAPI manages the cluster rpc relay.
type IProxyAPI interface {
	// RegisterReverse points the relay of chain at address, an empty address unsets it.
	RegisterReverse(ctx context.Context, chain, address string) error
}

type IAdapterAPI interface {
	IConsumerAPI
	IProxyAPI
	walletevent.IWalletEventAPI
}

type FullStruct struct {
	Internal struct {
		ListWallets    func(ctx context.Context) ([]*types.WalletInfo, error)                      `perm:"read"`
		Connect        func(ctx context.Context, name string) (*types.AccountInfo, error)          `perm:"sign"`
		Disconnect     func(ctx context.Context) error                                             `perm:"sign"`
		ConnectionInfo func(ctx context.Context) (*types.ConnectionState, error)                   `perm:"read"`
		Supports       func(ctx context.Context, capability string) (bool, error)                  `perm:"read"`
		SignMessage    func(ctx context.Context, message []byte) (*types.SignMessageOutput, error) `perm:"sign"`

		SignTransaction        func(ctx context.Context, tx []byte, chain string) ([]byte, error)                                 `perm:"sign"`
		SignAndSendTransaction func(ctx context.Context, tx []byte, chain string, opts *types.SendOptions) (string, error)        `perm:"sign"`
		SignIn                 func(ctx context.Context, input *types.SigninInput, publicKey string) (*types.SigninOutput, error) `perm:"sign"`

		WalletEvents func(ctx context.Context) (<-chan *types.EventInfo, error) `perm:"read"`
		Version      func(ctx context.Context) (string, error)                  `perm:"read"`

		ListenWalletEvent     func(ctx context.Context, ann *types.WalletAnnouncement) (<-chan *types.RequestEvent, error) `perm:"sign"`
		ResponseWalletEvent   func(ctx context.Context, resp *types.ResponseEvent) error                                   `perm:"sign"`
		NotifyWalletChange    func(ctx context.Context, channelID uuid.UUID, change *types.ChangeEvent) error              `perm:"sign"`
		ListWalletConnections func(ctx context.Context) ([]*types.WalletConnection, error)                                 `perm:"admin"`

		RegisterReverse func(ctx context.Context, chain, address string) error `perm:"admin"`
	}
}

var _ IAdapterAPI = (*FullStruct)(nil)

func (s *FullStruct) ListWallets(ctx context.Context) ([]*types.WalletInfo, error) {
	return s.Internal.ListWallets(ctx)
}

func (s *FullStruct) Connect(ctx context.Context, name string) (*types.AccountInfo, error) {
	return s.Internal.Connect(ctx, name)
}

func (s *FullStruct) Disconnect(ctx context.Context) error {
	return s.Internal.Disconnect(ctx)
}

func (s *FullStruct) ConnectionInfo(ctx context.Context) (*types.ConnectionState, error) {
	return s.Internal.ConnectionInfo(ctx)
}

func (s *FullStruct) Supports(ctx context.Context, capability string) (bool, error) {
	return s.Internal.Supports(ctx, capability)
}

func (s *FullStruct) SignMessage(ctx context.Context, message []byte) (*types.SignMessageOutput, error) {
	return s.Internal.SignMessage(ctx, message)
}

func (s *FullStruct) SignTransaction(ctx context.Context, tx []byte, chain string) ([]byte, error) {
	return s.Internal.SignTransaction(ctx, tx, chain)
}

func (s *FullStruct) SignAndSendTransaction(ctx context.Context, tx []byte, chain string, opts *types.SendOptions) (string, error) {
	return s.Internal.SignAndSendTransaction(ctx, tx, chain, opts)
}

func (s *FullStruct) SignIn(ctx context.Context, input *types.SigninInput, publicKey string) (*types.SigninOutput, error) {
	return s.Internal.SignIn(ctx, input, publicKey)
}

func (s *FullStruct) WalletEvents(ctx context.Context) (<-chan *types.EventInfo, error) {
	return s.Internal.WalletEvents(ctx)
}

func (s *FullStruct) Version(ctx context.Context) (string, error) {
	return s.Internal.Version(ctx)
}

func (s *FullStruct) ListenWalletEvent(ctx context.Context, ann *types.WalletAnnouncement) (<-chan *types.RequestEvent, error) {
	return s.Internal.ListenWalletEvent(ctx, ann)
}

func (s *FullStruct) ResponseWalletEvent(ctx context.Context, resp *types.ResponseEvent) error {
	return s.Internal.ResponseWalletEvent(ctx, resp)
}

func (s *FullStruct) NotifyWalletChange(ctx context.Context, channelID uuid.UUID, change *types.ChangeEvent) error {
	return s.Internal.NotifyWalletChange(ctx, channelID, change)
}

func (s *FullStruct) ListWalletConnections(ctx context.Context) ([]*types.WalletConnection, error) {
	return s.Internal.ListWalletConnections(ctx)
}

func (s *FullStruct) RegisterReverse(ctx context.Context, chain, address string) error {
	return s.Internal.RegisterReverse(ctx, chain, address)
}

// NewAdapterClient dials a daemon. url is a ws:// or http:// rpc endpoint.
func NewAdapterClient(ctx context.Context, url, token string) (IAdapterAPI, jsonrpc.ClientCloser, error) {
	headers := http.Header{}
	if token != "" {
		headers.Add("Authorization", "Bearer "+token)
	}
	var client FullStruct
	closer, err := jsonrpc.NewMergeClient(ctx, url, walletevent.RPCNamespace, []interface{}{&client.Internal}, headers)
	if err != nil {
		return nil, nil, err
	}
	return &client, closer, nil
}
