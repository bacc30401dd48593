package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()

	cfgPath := filepath.Join(t.TempDir(), ConfigFile)
	assert.NoError(t, WriteConfig(cfgPath, cfg))

	res, err := ReadConfig(cfgPath)
	assert.NoError(t, err)
	assert.Equal(t, cfg, res)
	assert.Equal(t, 5, res.Adapter.EventCapacity)
	assert.Equal(t, time.Minute*5, res.RequestConfig().RequestTimeout)
}

func TestLoadOrInit(t *testing.T) {
	repo := filepath.Join(t.TempDir(), "repo")

	cfg, err := LoadOrInit(repo)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	_, err = os.Stat(filepath.Join(repo, ConfigFile))
	require.NoError(t, err)

	cfg.Adapter.EventCapacity = 16
	cfg.Request.Timeout = 0
	require.NoError(t, WriteConfig(filepath.Join(repo, ConfigFile), cfg))

	loaded, err := LoadOrInit(repo)
	require.NoError(t, err)
	assert.Equal(t, 16, loaded.Adapter.EventCapacity)
	assert.Equal(t, time.Duration(0), loaded.Request.Timeout)
}

func TestExpandRepo(t *testing.T) {
	path, err := ExpandRepo("~/.wallet-adapter")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.NotContains(t, path, "~")
}

func TestProxyEndpoints(t *testing.T) {
	endpoints, err := DefaultConfig().Proxy.ClusterEndpoints()
	require.NoError(t, err)
	assert.Equal(t, map[types.Cluster]string{types.Localnet: "/ip4/127.0.0.1/tcp/8899"}, endpoints)

	cfg := &ProxyConfig{Endpoints: map[string]string{"mainnet-beta": "", "solana:devnet": "http://10.0.0.1:8899"}}
	endpoints, err = cfg.ClusterEndpoints()
	require.NoError(t, err)
	assert.Equal(t, map[types.Cluster]string{types.Mainnet: "", types.Devnet: "http://10.0.0.1:8899"}, endpoints)

	_, err = (&ProxyConfig{Endpoints: map[string]string{"bitcoin": ""}}).ClusterEndpoints()
	assert.Error(t, err)

	endpoints, err = (*ProxyConfig)(nil).ClusterEndpoints()
	require.NoError(t, err)
	assert.Empty(t, endpoints)
}
