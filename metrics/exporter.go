package metrics

import (
	"context"

	"github.com/ipfs-force-community/metrics"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"go.opencensus.io/stats/view"
)

var log = logging.Logger("metrics")

// SetupMetrics registers the views, starts the configured exporter and samples src every minute
// until ctx is done. Nothing happens when metrics are disabled.
func SetupMetrics(ctx context.Context, metricsConfig *metrics.MetricsConfig, src StateSource) error {
	if metricsConfig == nil || !metricsConfig.Enabled {
		log.Info("metrics disabled")
		return nil
	}
	log.Infow("setup metrics", "exporter", metricsConfig.Exporter.Type)

	if err := view.Register(views...); err != nil {
		return errors.Wrap(err, "register views")
	}

	switch metricsConfig.Exporter.Type {
	case metrics.ETPrometheus:
		go func() {
			if err := metrics.RegisterPrometheusExporter(ctx, metricsConfig.Exporter.Prometheus); err != nil {
				log.Errorf("failed to register prometheus exporter err: %v", err)
			}
			log.Infof("prometheus exporter server graceful shutdown successful")
		}()
	case metrics.ETGraphite:
		if err := metrics.RegisterGraphiteExporter(ctx, metricsConfig.Exporter.Graphite); err != nil {
			log.Errorf("failed to register graphite exporter: %v", err)
		}
	default:
		log.Warnf("invalid exporter type: %s", metricsConfig.Exporter.Type)
	}

	ApiState.Set(ctx, 1)
	recordState(ctx, src)
	go recordMetricsLoop(ctx, src)

	return nil
}
