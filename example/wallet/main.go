package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs-force-community/wallet-adapter/testhelper"
	"github.com/ipfs-force-community/wallet-adapter/walletevent"
)

var log = logging.Logger("wallet")

// An in-memory wallet announcing itself to a running daemon. It rotates its active account
// every -rotate interval so that consumers see AccountChanged events.
func main() {
	url := flag.String("url", "ws://127.0.0.1:45142/rpc/v0", "daemon rpc endpoint")
	token := flag.String("token", "", "token with sign permission")
	name := flag.String("name", "Memory", "wallet name")
	rotate := flag.Duration("rotate", 0, "switch active account periodically, zero disables")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	wallet, err := testhelper.NewMemWallet(*name, nil, testhelper.AllFeatures...)
	if err != nil {
		log.Fatal(err)
	}
	second, err := wallet.AddKey()
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("accounts: %s %s", wallet.PublicKey(), second)

	client, closer, err := walletevent.NewWalletRegisterClient(ctx, *url, *token)
	if err != nil {
		log.Errorf("dial %s: %s", *url, err)
		os.Exit(1)
	}
	defer closer()

	eventClient := walletevent.NewWalletEventClient(ctx, wallet, wallet.Announcement(), client, logging.Logger("wallet").With())
	go eventClient.ListenWalletRequest(ctx)
	eventClient.WaitReady(ctx)
	log.Infow("wallet announced", "channel", eventClient.ChannelID())

	if *rotate > 0 {
		go func() {
			ticker := time.NewTicker(*rotate)
			defer ticker.Stop()
			active := 0
			for {
				select {
				case <-ticker.C:
					active = (active + 1) % 2
					if err := wallet.SwitchAccount(active); err != nil {
						log.Warnf("switch account: %s", err)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	<-ctx.Done()
	log.Info("wallet quit")
}
