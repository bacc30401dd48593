package metrics

import (
	"time"

	rpcMetrics "github.com/filecoin-project/go-jsonrpc/metrics"
	"github.com/ipfs-force-community/metrics"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Global Tags
var (
	WalletNameKey, _ = tag.NewKey("wallet")
	FeatureKey, _    = tag.NewKey("feature")
	ResultKey, _     = tag.NewKey("result")
	ReasonKey, _     = tag.NewKey("reason")
	SourceKey, _     = tag.NewKey("source")
)

// Distribution
var defaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 3000, 4000, 5000, 7500, 10000, 20000, 50000, 100000)

var (
	// discovery
	WalletNum          = metrics.NewInt64("wallet/num", "Registered wallet count", stats.UnitDimensionless)
	WalletConnNum      = metrics.NewInt64("wallet/conn_num", "Remote wallet connection count", stats.UnitDimensionless)
	WalletRegister     = stats.Int64("wallet/register", "Wallet announced", stats.UnitDimensionless)
	WalletUnregister   = stats.Int64("wallet/unregister", "Wallet unregistered", stats.UnitDimensionless)
	MalformedDiscovery = stats.Int64("wallet/malformed", "Malformed discovery signal dropped", stats.UnitDimensionless)

	// connection
	ConnectionStatus = metrics.NewInt64("connection/status", "connection status. 0: disconnected, 1: connecting, 2: connected, 3: disconnecting", "")
	Connect          = stats.Int64("connection/connect", "Connect attempt", stats.UnitDimensionless)
	Disconnect       = stats.Int64("connection/disconnect", "Session ended", stats.UnitDimensionless)
	AccountChanged   = stats.Int64("connection/account_changed", "Active account changed", stats.UnitDimensionless)

	// event bus
	EventSubscribers = metrics.NewInt64("events/subscribers", "Event subscriber count", stats.UnitDimensionless)

	// method call
	SignLatency = stats.Float64("sign", "Signing request spent time", stats.UnitMilliseconds)

	ApiState = metrics.NewInt64("api/state", "api service state. 0: down, 1: up", "")
)

var (
	walletRegisterView = &view.View{
		Measure:     WalletRegister,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletNameKey, SourceKey},
	}
	walletUnregisterView = &view.View{
		Measure:     WalletUnregister,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletNameKey, SourceKey},
	}
	malformedDiscoveryView = &view.View{
		Measure:     MalformedDiscovery,
		Aggregation: view.Count(),
	}
	connectView = &view.View{
		Measure:     Connect,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletNameKey, ResultKey},
	}
	disconnectView = &view.View{
		Measure:     Disconnect,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletNameKey, ReasonKey},
	}
	accountChangedView = &view.View{
		Measure:     AccountChanged,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletNameKey},
	}

	// method call
	signView = &view.View{
		Measure:     SignLatency,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{WalletNameKey, FeatureKey, ResultKey},
	}
)

var views = append([]*view.View{
	walletRegisterView,
	walletUnregisterView,
	malformedDiscoveryView,
	connectView,
	disconnectView,
	accountChangedView,
	signView,
}, rpcMetrics.DefaultViews...)

// SinceInMilliseconds returns the duration of time since the provide time as a float64.
func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}

// ResultOf maps an error to the value of ResultKey.
func ResultOf(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

func init() {
	// register metrics
	_ = view.Register(views...)
}
