package types

import (
	"fmt"
	"strings"
)

// Cluster identifies a Solana network environment by its wallet-standard chain id.
type Cluster string

const (
	Mainnet  Cluster = "solana:mainnet"
	Devnet   Cluster = "solana:devnet"
	Testnet  Cluster = "solana:testnet"
	Localnet Cluster = "solana:localnet"
)

// Clusters lists every known cluster in canonical order.
var Clusters = []Cluster{Mainnet, Devnet, Testnet, Localnet}

const solanaChainPrefix = "solana:"

// ParseCluster accepts a full chain id ("solana:devnet") or a short name ("devnet",
// "mainnet-beta").
func ParseCluster(s string) (Cluster, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, solanaChainPrefix)
	switch name {
	case "mainnet", "mainnet-beta":
		return Mainnet, nil
	case "devnet":
		return Devnet, nil
	case "testnet":
		return Testnet, nil
	case "localnet", "localhost":
		return Localnet, nil
	}
	return "", fmt.Errorf("unsupported chain %q", s)
}

func (c Cluster) String() string {
	return string(c)
}

// Short returns the chain id without the "solana:" namespace.
func (c Cluster) Short() string {
	return strings.TrimPrefix(string(c), solanaChainPrefix)
}

// Endpoint returns the public JSON-RPC endpoint of the cluster.
func (c Cluster) Endpoint() string {
	switch c {
	case Mainnet:
		return "https://api.mainnet-beta.solana.com"
	case Devnet:
		return "https://api.devnet.solana.com"
	case Testnet:
		return "https://api.testnet.solana.com"
	case Localnet:
		return "http://127.0.0.1:8899"
	}
	return ""
}

// order is the position of the cluster in Clusters, -1 for unknown values.
func (c Cluster) order() int {
	for i, cluster := range Clusters {
		if cluster == c {
			return i
		}
	}
	return -1
}
