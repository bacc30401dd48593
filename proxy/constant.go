package proxy

import (
	"fmt"
)

// ClusterHeader selects the cluster a request is relayed to. Requests without it are served by
// the adapter itself.
const ClusterHeader = "X-Solana-Cluster"

var (
	ErrorInvalidHeader            = fmt.Errorf("invalid cluster proxy header %s", ClusterHeader)
	ErrorNoReverseProxyRegistered = fmt.Errorf("no reverse proxy registered")
)
