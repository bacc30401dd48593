package proxy

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
)

// hop-local headers never sent upstream
var strippedHeaders = []string{ClusterHeader, "Authorization"}

// NewReverseServer relays plain requests to the rpc url u and websocket upgrades to its pubsub
// endpoint.
func NewReverseServer(u *url.URL) http.Handler {
	target := *u
	proxy := &httputil.ReverseProxy{
		Director: func(r *http.Request) {
			r.URL.Scheme = target.Scheme
			r.URL.Host = target.Host
			r.URL.Path = target.Path
			r.URL.RawPath = target.RawPath
			r.Host = target.Host
			for _, h := range strippedHeaders {
				r.Header.Del(h)
			}
		},
	}
	wsTarget := pubsubURL(&target)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "websocket" {
			proxy.ServeHTTP(w, r)
			return
		}

		// clear up header
		header := http.Header{}
		for k, v := range r.Header {
			header[k] = v
		}
		for _, h := range append([]string{"Upgrade", "Connection", "Sec-Websocket-Key", "Sec-Websocket-Version", "Sec-Websocket-Extensions"}, strippedHeaders...) {
			header.Del(h)
		}

		proxyConn, resp, err := websocket.DefaultDialer.Dial(wsTarget.String(), header)
		if err != nil {
			err = fmt.Errorf("dial proxy websocket: %w", err)
			log.Error(err)
			if resp != nil {
				log.Errorf("proxy websocket response status %s", resp.Status)
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer proxyConn.Close() // nolint

		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		clientConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("upgrade websocket: %s", err)
			return
		}
		defer clientConn.Close() // nolint

		done := make(chan struct{}, 2)
		go forwardMessages(done, proxyConn, clientConn)
		go forwardMessages(done, clientConn, proxyConn)
		<-done
	})
}

// pubsubURL maps an rpc url to the websocket endpoint of the same node. A validator with an
// explicit port serves pubsub on the next port.
func pubsubURL(u *url.URL) *url.URL {
	ws := *u
	switch u.Scheme {
	case "https":
		ws.Scheme = "wss"
	default:
		ws.Scheme = "ws"
	}
	if host, port, err := net.SplitHostPort(u.Host); err == nil {
		if p, err := strconv.Atoi(port); err == nil {
			ws.Host = net.JoinHostPort(host, strconv.Itoa(p+1))
		}
	}
	return &ws
}

func forwardMessages(done chan<- struct{}, src *websocket.Conn, dst *websocket.Conn) {
	defer func() {
		done <- struct{}{}
	}()
	for {
		messageType, message, err := src.ReadMessage()
		if err != nil {
			log.Debugf("read message from %s: %s", src.RemoteAddr(), err)
			return
		}

		if err = dst.WriteMessage(messageType, message); err != nil {
			log.Debugf("write message to %s: %s", dst.RemoteAddr(), err)
			return
		}
	}
}
