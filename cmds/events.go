package cmds

import (
	"github.com/urfave/cli/v2"
)

var EventsCmd = &cli.Command{
	Name:  "events",
	Usage: "follow adapter events until interrupted",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		events, err := api.WalletEvents(cctx.Context)
		if err != nil {
			return err
		}
		for ev := range events {
			if err := printJSON(ev); err != nil {
				return err
			}
		}
		return nil
	},
}
