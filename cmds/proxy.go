package cmds

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

var ProxyCmds = &cli.Command{
	Name:        "proxy",
	Usage:       "manipulate cluster rpc relays registered in the adapter",
	Subcommands: []*cli.Command{setProxyCmd},
}

var setProxyCmd = &cli.Command{
	Name:  "set",
	Usage: "set proxy (or unset proxy by setting a empty url)",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "cluster",
			Usage:    fmt.Sprintf("which cluster to relay, e.g. %s, %s, %s, %s", types.Mainnet.Short(), types.Devnet.Short(), types.Testnet.Short(), types.Localnet.Short()),
			Required: true,
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "rpc node url or multiaddr the cluster is relayed to",
		},
	},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		u := cctx.String("url")
		c, err := types.ParseCluster(cctx.String("cluster"))
		if err != nil {
			return err
		}

		err = api.RegisterReverse(cctx.Context, c.String(), u)
		if err != nil {
			return err
		}

		if u == "" {
			fmt.Printf("unset %s success \n", c)
			return nil
		}

		fmt.Printf("set %s to %s success \n", c, u)
		return nil
	},
}
