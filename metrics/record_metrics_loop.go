package metrics

import (
	"context"
	"time"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

// StateSource is what the recorder samples.
type StateSource interface {
	ListWallets(ctx context.Context) ([]*types.WalletInfo, error)
	ConnectionInfo(ctx context.Context) (*types.ConnectionState, error)
	ListWalletConnections(ctx context.Context) ([]*types.WalletConnection, error)
}

func recordMetricsLoop(ctx context.Context, api StateSource) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			recordState(ctx, api)
		case <-ctx.Done():
			log.Infof("context done, stop record metrics")
			return
		}
	}
}

func recordState(ctx context.Context, api StateSource) {
	wallets, err := api.ListWallets(ctx)
	if err != nil {
		log.Warnf("failed to list wallets %v", err)
	} else {
		WalletNum.Set(ctx, int64(len(wallets)))
	}

	conns, err := api.ListWalletConnections(ctx)
	if err != nil {
		log.Warnf("failed to list wallet connections %v", err)
	} else {
		WalletConnNum.Set(ctx, int64(len(conns)))
	}

	state, err := api.ConnectionInfo(ctx)
	if err != nil {
		log.Warnf("failed to get connection info %v", err)
		return
	}
	ConnectionStatus.Set(ctx, statusValue(state.Status))
}

func statusValue(status string) int64 {
	switch status {
	case types.Connecting.String():
		return 1
	case types.Connected.String():
		return 2
	case types.Disconnecting.String():
		return 3
	}
	return 0
}
