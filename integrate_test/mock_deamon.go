package integrate

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs-force-community/wallet-adapter/adapter"
	"github.com/ipfs-force-community/wallet-adapter/api"
	"github.com/ipfs-force-community/wallet-adapter/proxy"
	"github.com/ipfs-force-community/wallet-adapter/types"
	"github.com/ipfs-force-community/wallet-adapter/utils"
	"github.com/ipfs-force-community/wallet-adapter/version"
	"github.com/ipfs-force-community/wallet-adapter/walletevent"
)

var log = logging.Logger("mock main")

type testConfig struct {
	requestTimeout time.Duration
	clearInterval  time.Duration
}

func defaultTestConfig() testConfig {
	return testConfig{
		requestTimeout: time.Minute * 5,
		clearInterval:  time.Minute * 5,
	}
}

type mockDaemon struct {
	url      string
	baseURL  string
	token    string
	localJwt *utils.LocalJwtClient
}

// MockMain wires the daemon the way the run command does and serves it on a local httptest
// server until ctx is done.
func MockMain(ctx context.Context, repoPath string, tcfg testConfig) (*mockDaemon, error) {
	requestCfg := &types.RequestConfig{
		RequestQueueSize: 30,
		RequestTimeout:   tcfg.requestTimeout,
		ClearInterval:    tcfg.clearInterval,
	}

	gateway := walletevent.NewWalletGateway(ctx, requestCfg)
	walletAdapter, err := adapter.New(ctx, gateway)
	if err != nil {
		return nil, err
	}
	relay := proxy.NewProxy()
	impl := api.NewAdapterAPIImpl(walletAdapter, gateway, relay)
	log.Infof("wallet-adapter current version %s", version.UserVersion)

	localJwt, err := utils.NewLocalJwtClient(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to generate local jwt client: %v", err)
	}
	if err := localJwt.SaveToken(); err != nil {
		return nil, err
	}

	srv := httptest.NewServer(api.NewRPCHandler(impl, localJwt, relay))
	go func() {
		<-ctx.Done()
		srv.Close()
		walletAdapter.Close()
	}()

	return &mockDaemon{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/rpc/v0",
		baseURL:  srv.URL,
		token:    string(localJwt.Token),
		localJwt: localJwt,
	}, nil
}
