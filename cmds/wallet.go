package cmds

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var WalletCmds = &cli.Command{
	Name:  "wallet",
	Usage: "wallet cmds",
	Subcommands: []*cli.Command{
		listWalletCmds,
		connectWalletCmd,
		disconnectWalletCmd,
		statusCmd,
		supportsCmd,
		listConnectionsCmd,
	},
}

var listWalletCmds = &cli.Command{
	Name:  "list",
	Usage: "list registered wallets",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		wallets, err := api.ListWallets(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(wallets)
	},
}

var connectWalletCmd = &cli.Command{
	Name:      "connect",
	Usage:     "connect to a registered wallet",
	ArgsUsage: "<wallet name>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expect wallet name")
		}
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		account, err := api.Connect(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}
		return printJSON(account)
	},
}

var disconnectWalletCmd = &cli.Command{
	Name:  "disconnect",
	Usage: "disconnect the current wallet",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		return api.Disconnect(cctx.Context)
	},
}

var statusCmd = &cli.Command{
	Name:  "status",
	Usage: "show the connection state",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		state, err := api.ConnectionInfo(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(state)
	},
}

var supportsCmd = &cli.Command{
	Name:      "supports",
	Usage:     "probe a cluster or feature of the active wallet, eg. devnet, solana_sign_in, solana:signMessage",
	ArgsUsage: "<capability>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expect capability")
		}
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		ok, err := api.Supports(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}
		fmt.Println(ok)
		return nil
	},
}

var listConnectionsCmd = &cli.Command{
	Name:  "connections",
	Usage: "list the wallet processes attached to the daemon",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		conns, err := api.ListWalletConnections(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(conns)
	},
}
