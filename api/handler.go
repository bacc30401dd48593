package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/etherlabsio/healthcheck/v2"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gorilla/mux"

	"github.com/ipfs-force-community/wallet-adapter/proxy"
	"github.com/ipfs-force-community/wallet-adapter/utils"
	"github.com/ipfs-force-community/wallet-adapter/walletevent"
)

var errNoWallets = errors.New("no wallet registered")

// NewRPCHandler serves the adapter API at /rpc/v0 behind token auth, plus an unauthenticated
// /healthcheck. Requests to /rpc/v0 carrying the cluster header are relayed to that cluster.
func NewRPCHandler(impl IAdapterAPI, localJwt *utils.LocalJwtClient, relay proxy.IProxy) http.Handler {
	fullAPI := PermissionedFullAPI(impl)

	router := mux.NewRouter()
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register(walletevent.RPCNamespace, fullAPI)
	router.Handle("/rpc/v0", &AuthHandler{
		Verify: localJwt.Verify,
		Next:   relay.ProxyMiddleware(utils.RemoteAddrHandler(rpcServer)).ServeHTTP,
	})

	router.Handle("/healthcheck", healthcheck.Handler(
		healthcheck.WithTimeout(5*time.Second),
		healthcheck.WithChecker("adapter", healthcheck.CheckerFunc(func(ctx context.Context) error {
			_, err := impl.ConnectionInfo(ctx)
			return err
		})),
		healthcheck.WithObserver("discovery", healthcheck.CheckerFunc(func(ctx context.Context) error {
			wallets, err := impl.ListWallets(ctx)
			if err != nil {
				return err
			}
			if len(wallets) == 0 {
				return errNoWallets
			}
			return nil
		})),
	))
	router.PathPrefix("/").Handler(http.DefaultServeMux)
	return router
}
