package cmds

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

var SignCmds = &cli.Command{
	Name:  "sign",
	Usage: "sign with the connected wallet",
	Subcommands: []*cli.Command{
		signMessageCmd,
		signTxCmd,
		signAndSendTxCmd,
		signInCmd,
	},
}

var encodingFlag = &cli.StringFlag{
	Name:  "encoding",
	Usage: "input encoding: text, hex or base64",
	Value: "base64",
}

func decodeInput(enc, in string) ([]byte, error) {
	switch enc {
	case "text":
		return []byte(in), nil
	case "hex":
		return hex.DecodeString(in)
	case "base64":
		return base64.StdEncoding.DecodeString(in)
	}
	return nil, fmt.Errorf("unknown encoding %s", enc)
}

var signMessageCmd = &cli.Command{
	Name:      "message",
	Usage:     "sign an arbitrary message",
	ArgsUsage: "<message>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "encoding", Usage: "input encoding: text, hex or base64", Value: "text"},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expect message")
		}
		msg, err := decodeInput(cctx.String("encoding"), cctx.Args().First())
		if err != nil {
			return err
		}
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		out, err := api.SignMessage(cctx.Context, msg)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(out.Signature))
		return nil
	},
}

var signTxCmd = &cli.Command{
	Name:      "tx",
	Usage:     "sign a serialized transaction",
	ArgsUsage: "<transaction>",
	Flags: []cli.Flag{
		encodingFlag,
		&cli.StringFlag{Name: "chain", Usage: "cluster the transaction targets, eg. devnet"},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expect transaction")
		}
		tx, err := decodeInput(cctx.String("encoding"), cctx.Args().First())
		if err != nil {
			return err
		}
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		signed, err := api.SignTransaction(cctx.Context, tx, cctx.String("chain"))
		if err != nil {
			return err
		}
		fmt.Println(base64.StdEncoding.EncodeToString(signed))
		return nil
	},
}

var signAndSendTxCmd = &cli.Command{
	Name:      "send-tx",
	Usage:     "sign a serialized transaction and let the wallet submit it",
	ArgsUsage: "<transaction>",
	Flags: []cli.Flag{
		encodingFlag,
		&cli.StringFlag{Name: "chain", Usage: "cluster the transaction targets", Value: string(types.Mainnet)},
		&cli.BoolFlag{Name: "skip-preflight"},
		&cli.StringFlag{Name: "preflight-commitment", Value: string(rpc.CommitmentFinalized)},
		&cli.UintFlag{Name: "max-retries"},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expect transaction")
		}
		tx, err := decodeInput(cctx.String("encoding"), cctx.Args().First())
		if err != nil {
			return err
		}
		opts := &types.SendOptions{
			SkipPreflight:       cctx.Bool("skip-preflight"),
			PreflightCommitment: rpc.CommitmentType(cctx.String("preflight-commitment")),
			MaxRetries:          cctx.Uint("max-retries"),
		}
		if err := opts.Validate(); err != nil {
			return err
		}
		api, closer, err := NewAdapterClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		sig, err := api.SignAndSendTransaction(cctx.Context, tx, cctx.String("chain"), opts)
		if err != nil {
			return err
		}
		fmt.Println(sig)
		return nil
	},
}

var signInCmd = &cli.Command{
	Name:  "in",
	Usage: "sign in with the connected account",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "domain", Required: true},
		&cli.StringFlag{Name: "statement"},
		&cli.StringFlag{Name: "chain", Value: string(types.Mainnet)},
		&cli.StringFlag{Name: "uri"},
		&cli.DurationFlag{Name: "expire", Usage: "expiration relative to now, zero for none"},
		&cli.StringSliceFlag{Name: "resource"},
	},
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
		if state.Account == nil {
			return types.ErrNotConnected
		}
		nonce, err := types.NewNonce()
		if err != nil {
			return err
		}
		now := time.Now().UTC().Truncate(time.Second)
		in := &types.SigninInput{
			Domain:    cctx.String("domain"),
			Statement: cctx.String("statement"),
			ChainID:   cctx.String("chain"),
			Address:   state.Account.Address,
			Nonce:     nonce,
			IssuedAt:  now,
			Resources: cctx.StringSlice("resource"),
			URI:       cctx.String("uri"),
			Version:   "1",
		}
		if d := cctx.Duration("expire"); d > 0 {
			expire := now.Add(d)
			in.ExpirationTime = &expire
		}
		if err := in.Validate(); err != nil {
			return err
		}

		out, err := api.SignIn(cctx.Context, in, "")
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}
