package utils

import (
	"context"
	"net/http"
)

type remoteKey struct{}

func CtxWithRemote(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteKey{}, addr)
}

func CtxGetRemote(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(remoteKey{}).(string)
	return addr, ok
}

// RemoteAddrHandler records the peer address of each request in its context.
func RemoteAddrHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := r.Header.Get("X-Forwarded-For")
		if addr == "" {
			addr = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(CtxWithRemote(r.Context(), addr)))
	})
}
