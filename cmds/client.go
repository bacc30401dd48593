package cmds

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/wallet-adapter/api"
	"github.com/ipfs-force-community/wallet-adapter/config"
	"github.com/ipfs-force-community/wallet-adapter/utils"
)

// NewAdapterClient dials the daemon owning the repo. The listen flag wins over the repo config.
func NewAdapterClient(cctx *cli.Context) (api.IAdapterAPI, jsonrpc.ClientCloser, error) {
	repo, err := config.ExpandRepo(cctx.String("repo"))
	if err != nil {
		return nil, nil, err
	}

	listen := cctx.String("listen")
	if len(listen) == 0 {
		cfg, err := config.ReadConfig(filepath.Join(repo, config.ConfigFile))
		if err != nil {
			return nil, nil, errors.Wrap(err, "read config, is the daemon initialized")
		}
		listen = cfg.API.ListenAddress
	}
	addr, err := DialArgs(listen)
	if err != nil {
		return nil, nil, err
	}

	token, err := os.ReadFile(filepath.Join(repo, utils.TokenFile))
	if err != nil {
		return nil, nil, errors.Wrap(err, "read token")
	}

	return api.NewAdapterClient(cctx.Context, addr, strings.TrimSpace(string(token)))
}

func DialArgs(addr string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err == nil {
		_, addr, err := manet.DialArgs(ma)
		if err != nil {
			return "", err
		}

		return "ws://" + addr + "/rpc/v0", nil
	}

	_, err = url.Parse(addr)
	if err != nil {
		return "", err
	}
	return addr + "/rpc/v0", nil
}
