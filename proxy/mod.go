package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-multiaddr"
	maNet "github.com/multiformats/go-multiaddr/net"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

var log = logging.Logger("proxy")

type IProxy interface {
	RegisterReverseHandler(cluster types.Cluster, server http.Handler)
	RegisterReverseByAddr(cluster types.Cluster, address string) error
	ProxyMiddleware(next http.Handler) http.Handler
}

// Proxy relays JSON-RPC and pubsub traffic to the RPC node of a cluster, so applications can
// reach the chain through the same endpoint they sign with.
type Proxy struct {
	lk      sync.RWMutex
	handler map[types.Cluster]http.Handler
}

var _ IProxy = (*Proxy)(nil)

func NewProxy() *Proxy {
	return &Proxy{
		handler: make(map[types.Cluster]http.Handler),
	}
}

// NewDefaultProxy registers the public endpoint of every cluster, overridden by endpoints.
// An empty override leaves the cluster unproxied.
func NewDefaultProxy(endpoints map[types.Cluster]string) (*Proxy, error) {
	p := NewProxy()
	for _, c := range types.Clusters {
		addr := c.Endpoint()
		if override, ok := endpoints[c]; ok {
			addr = override
		}
		if err := p.RegisterReverseByAddr(c, addr); err != nil {
			return nil, fmt.Errorf("cluster %s: %w", c, err)
		}
	}
	return p, nil
}

func (p *Proxy) ProxyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clusterHeader := r.Header.Get(ClusterHeader)
		if clusterHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		ser, err := p.getReverseHandler(clusterHeader)
		if err != nil {
			log.Errorf("get reverse handler fail: %s", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ser.ServeHTTP(w, r)
	})
}

func (p *Proxy) getReverseHandler(header string) (http.Handler, error) {
	cluster, err := types.ParseCluster(header)
	if err != nil {
		return nil, fmt.Errorf("header(%s): %w", header, ErrorInvalidHeader)
	}
	p.lk.RLock()
	defer p.lk.RUnlock()
	server, ok := p.handler[cluster]
	if !ok {
		return nil, fmt.Errorf("cluster(%s) : %w", cluster, ErrorNoReverseProxyRegistered)
	}
	return server, nil
}

func (p *Proxy) RegisterReverseHandler(cluster types.Cluster, server http.Handler) {
	p.lk.Lock()
	defer p.lk.Unlock()
	if server == nil {
		delete(p.handler, cluster)
		log.Info("unregister reverse proxy for ", cluster)
		return
	}
	log.Infof("register reverse proxy for %s", cluster)
	p.handler[cluster] = server
}

func (p *Proxy) RegisterReverseByAddr(cluster types.Cluster, address string) error {
	// unregister handler if address is empty
	if address == "" {
		p.RegisterReverseHandler(cluster, nil)
		return nil
	}
	u, err := parseAddr(address)
	if err != nil {
		return err
	}

	log.Infof("register reverse proxy for %s: %s", cluster, u.String())
	p.RegisterReverseHandler(cluster, NewReverseServer(u))
	return nil
}

// Clusters lists the clusters with a registered relay.
func (p *Proxy) Clusters() []types.Cluster {
	p.lk.RLock()
	defer p.lk.RUnlock()
	out := make([]types.Cluster, 0, len(p.handler))
	for _, c := range types.Clusters {
		if _, ok := p.handler[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// parseAddr parse a multiaddr or normal url string into url.Url
func parseAddr(address string) (*url.URL, error) {
	ma, err := multiaddr.NewMultiaddr(address)
	if err == nil {
		_, addr, err := maNet.DialArgs(ma)
		if err != nil {
			return nil, fmt.Errorf("parser libp2p url fail %w", err)
		}

		hasTLS := false

		_, err = ma.ValueForProtocol(multiaddr.P_WSS)
		if err == nil {
			hasTLS = true
		} else if err != multiaddr.ErrProtocolNotFound {
			return nil, err
		}

		_, err = ma.ValueForProtocol(multiaddr.P_HTTPS)
		if err == nil {
			hasTLS = true
		} else if err != multiaddr.ErrProtocolNotFound {
			return nil, err
		}

		if hasTLS {
			address = "https://" + addr
		} else {
			address = "http://" + addr
		}
	}

	u, err := url.Parse(address)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("address %s is neither a multiaddr nor an absolute url", address)
	}
	return u, nil
}
