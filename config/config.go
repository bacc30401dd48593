package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ipfs-force-community/metrics"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/ipfs-force-community/wallet-adapter/eventbus"
	"github.com/ipfs-force-community/wallet-adapter/types"
)

const (
	// Configuration file name
	ConfigFile = "config.toml"

	DefaultRepo = "~/.wallet-adapter"
)

type Config struct {
	API     *APIConfig
	Adapter *AdapterConfig
	Request *RequestConfig
	Proxy   *ProxyConfig
	Metrics *metrics.MetricsConfig
	Trace   *metrics.TraceConfig
	Log     *LogConfig
}

type APIConfig struct {
	ListenAddress string
}

type AdapterConfig struct {
	// EventCapacity is the per-subscriber event queue length.
	EventCapacity int
}

// RequestConfig bounds requests pushed to remote wallets.
type RequestConfig struct {
	QueueSize     int
	Timeout       time.Duration
	ClearInterval time.Duration
}

// ProxyConfig overrides the rpc node a cluster is relayed to, keyed by cluster name. An empty
// value disables the relay for that cluster.
type ProxyConfig struct {
	Endpoints map[string]string
}

// ClusterEndpoints parses the configured overrides.
func (c *ProxyConfig) ClusterEndpoints() (map[types.Cluster]string, error) {
	out := make(map[types.Cluster]string)
	if c == nil {
		return out, nil
	}
	for name, addr := range c.Endpoints {
		cluster, err := types.ParseCluster(name)
		if err != nil {
			return nil, errors.Wrap(err, "proxy endpoints")
		}
		out[cluster] = addr
	}
	return out, nil
}

type LogConfig struct {
	Level string
}

func DefaultConfig() *Config {
	requestCfg := types.DefaultConfig()
	cfg := &Config{
		API:     &APIConfig{ListenAddress: "/ip4/127.0.0.1/tcp/45142"},
		Adapter: &AdapterConfig{EventCapacity: eventbus.DefaultCapacity},
		Request: &RequestConfig{
			QueueSize:     requestCfg.RequestQueueSize,
			Timeout:       requestCfg.RequestTimeout,
			ClearInterval: requestCfg.ClearInterval,
		},
		Proxy:   &ProxyConfig{Endpoints: map[string]string{"localnet": "/ip4/127.0.0.1/tcp/8899"}},
		Metrics: metrics.DefaultMetricsConfig(),
		Trace:   metrics.DefaultTraceConfig(),
		Log:     &LogConfig{Level: "info"},
	}
	namespace := "wallet_adapter"
	cfg.Metrics.Exporter.Prometheus.Namespace = namespace
	cfg.Metrics.Exporter.Graphite.Namespace = namespace
	cfg.Metrics.Exporter.Prometheus.EndPoint = "/ip4/0.0.0.0/tcp/4579"
	cfg.Metrics.Exporter.Graphite.Port = 4579
	cfg.Trace.ServerName = "wallet-adapter"
	cfg.Trace.JaegerEndpoint = ""

	return cfg
}

// RequestConfig converts the file section to the transport config.
func (c *Config) RequestConfig() *types.RequestConfig {
	return &types.RequestConfig{
		RequestQueueSize: c.Request.QueueSize,
		RequestTimeout:   c.Request.Timeout,
		ClearInterval:    c.Request.ClearInterval,
	}
}

func ReadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = toml.Unmarshal(data, cfg)

	return cfg, err
}

func WriteConfig(filePath string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}

// ExpandRepo resolves "~" and makes the repo path absolute.
func ExpandRepo(repo string) (string, error) {
	path, err := homedir.Expand(repo)
	if err != nil {
		return "", errors.Wrapf(err, "expand repo %s", repo)
	}
	return filepath.Abs(path)
}

// LoadOrInit reads the config in repo, writing the defaults first when the file is missing.
func LoadOrInit(repo string) (*Config, error) {
	if err := os.MkdirAll(repo, 0755); err != nil {
		return nil, errors.Wrapf(err, "create repo %s", repo)
	}
	cfgPath := filepath.Join(repo, ConfigFile)
	_, err := os.Stat(cfgPath)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := WriteConfig(cfgPath, cfg); err != nil {
			return nil, errors.Wrap(err, "write default config")
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	cfg, err := ReadConfig(cfgPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", cfgPath)
	}
	return cfg, nil
}
