package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ipfs-force-community/metrics"
	logging "github.com/ipfs/go-log/v2"
	multiaddr "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.opencensus.io/plugin/ochttp"

	"github.com/ipfs-force-community/wallet-adapter/adapter"
	"github.com/ipfs-force-community/wallet-adapter/api"
	"github.com/ipfs-force-community/wallet-adapter/cmds"
	"github.com/ipfs-force-community/wallet-adapter/config"
	adapterMetrics "github.com/ipfs-force-community/wallet-adapter/metrics"
	"github.com/ipfs-force-community/wallet-adapter/proxy"
	"github.com/ipfs-force-community/wallet-adapter/utils"
	"github.com/ipfs-force-community/wallet-adapter/version"
	"github.com/ipfs-force-community/wallet-adapter/walletevent"
)

var log = logging.Logger("main")

func main() {
	_ = logging.SetLogLevel("*", "INFO")

	app := &cli.App{
		Name:  "wallet-adapter",
		Usage: "discover solana wallets, keep one connection and sign through it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "repo",
				Usage:   "repo directory holding config.toml and the api token",
				EnvVars: []string{"WALLET_ADAPTER_REPO"},
				Value:   config.DefaultRepo,
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "host address and port the api listens on, overrides the config",
			},
		},
		Commands: []*cli.Command{
			runCmd, cmds.WalletCmds, cmds.SignCmds, cmds.EventsCmd, cmds.ProxyCmds,
		},
	}
	app.Version = version.UserVersion
	if err := app.Run(os.Args); err != nil {
		log.Warn(err)
		os.Exit(1)
	}
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start wallet-adapter daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.IntFlag{Name: "event-capacity", Usage: "events buffered per subscriber"},
		&cli.StringFlag{Name: "jaeger-proxy", EnvVars: []string{"WALLET_ADAPTER_JAEGER_PROXY"}},
		&cli.Float64Flag{Name: "trace-sampler", EnvVars: []string{"WALLET_ADAPTER_TRACE_SAMPLER"}, Value: 1.0},
		&cli.StringFlag{Name: "trace-node-name", Value: "wallet-adapter"},
	},
	Action: func(cctx *cli.Context) error {
		repo, err := config.ExpandRepo(cctx.String("repo"))
		if err != nil {
			return err
		}
		cfg, err := config.LoadOrInit(repo)
		if err != nil {
			return err
		}
		if cctx.IsSet("listen") {
			cfg.API.ListenAddress = cctx.String("listen")
		}
		if cctx.IsSet("log-level") {
			cfg.Log.Level = cctx.String("log-level")
		}
		if cctx.IsSet("event-capacity") {
			cfg.Adapter.EventCapacity = cctx.Int("event-capacity")
		}
		if proxy := strings.TrimSpace(cctx.String("jaeger-proxy")); len(proxy) != 0 {
			cfg.Trace.JaegerTracingEnabled = true
			cfg.Trace.JaegerEndpoint = proxy
			cfg.Trace.ProbabilitySampler = cctx.Float64("trace-sampler")
			cfg.Trace.ServerName = strings.TrimSpace(cctx.String("trace-node-name"))
		}
		return RunMain(cctx.Context, repo, cfg)
	},
}

func RunMain(ctx context.Context, repo string, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := logging.SetLogLevel("*", cfg.Log.Level); err != nil {
		return errors.Wrapf(err, "set log level %s", cfg.Log.Level)
	}
	log.Infof("wallet-adapter current version %s, listen %s", version.UserVersion, cfg.API.ListenAddress)

	gateway := walletevent.NewWalletGateway(ctx, cfg.RequestConfig())
	walletAdapter, err := adapter.New(ctx, gateway, adapter.WithEventCapacity(cfg.Adapter.EventCapacity))
	if err != nil {
		return err
	}
	defer walletAdapter.Close()

	endpoints, err := cfg.Proxy.ClusterEndpoints()
	if err != nil {
		return err
	}
	relay, err := proxy.NewDefaultProxy(endpoints)
	if err != nil {
		return err
	}

	impl := api.NewAdapterAPIImpl(walletAdapter, gateway, relay)
	if err := adapterMetrics.SetupMetrics(ctx, cfg.Metrics, impl); err != nil {
		return err
	}

	localJwt, err := utils.NewLocalJwtClient(repo)
	if err != nil {
		return fmt.Errorf("make token failed:%s", err.Error())
	}
	if err = localJwt.SaveToken(); err != nil {
		return err
	}

	handler := api.NewRPCHandler(impl, localJwt, relay)
	if repoter, err := metrics.RegisterJaeger(cfg.Trace.ServerName, cfg.Trace); err != nil {
		return errors.Wrapf(err, "register %s JaegerRepoter to %s", cfg.Trace.ServerName, cfg.Trace.JaegerEndpoint)
	} else if repoter != nil {
		log.Infof("register jaeger-tracing exporter to %s, with node-name:%s", cfg.Trace.JaegerEndpoint, cfg.Trace.ServerName)
		defer metrics.UnregisterJaeger(repoter)
		handler = &ochttp.Handler{Handler: handler}
	}
	srv := &http.Server{Handler: handler}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warnw("received shutdown", "signal", sig)
		case <-ctx.Done():
			log.Warn("received shutdown")
		}

		log.Info("Shutting down...")
		if err := srv.Shutdown(context.TODO()); err != nil {
			log.Errorf("shutting down RPC server failed: %s", err)
		}
	}()

	addr, err := multiaddr.NewMultiaddr(cfg.API.ListenAddress)
	if err != nil {
		return err
	}
	nl, err := manet.Listen(addr)
	if err != nil {
		return err
	}

	log.Infof("start to rpc listen %s", nl.Addr())
	if err = srv.Serve(manet.NetListener(nl)); err != nil && err != http.ErrServerClosed {
		return err
	}

	log.Info("Graceful shutdown successful")
	return nil
}
