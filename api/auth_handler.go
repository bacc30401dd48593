package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"go.opencensus.io/trace"

	"github.com/ipfs-force-community/wallet-adapter/utils"
)

// AuthHandler verifies the bearer token of a request and attaches its permissions to the
// request context. Loopback callers without a token get read permission.
type AuthHandler struct {
	Verify func(ctx context.Context, token string) ([]auth.Permission, error)
	Next   http.HandlerFunc
}

func jwtNameFromToken(token string) (string, error) {
	sks := strings.Split(token, ".")
	if len(sks) != 3 {
		return "", fmt.Errorf("invalid token")
	}

	payload := utils.JWTPayload{}
	dec, err := base64.RawURLEncoding.DecodeString(sks[1])
	if err != nil {
		return "", err
	}
	err = json.Unmarshal(dec, &payload)
	return payload.Name, err
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "AuthHandler.ServeHTTP")
	defer span.End()

	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.FormValue("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	span.AddAttributes(trace.StringAttribute("X-Real-IP", r.RemoteAddr),
		trace.StringAttribute("preHost", r.Host))

	if len(token) == 0 {
		if !isLoopback(r.RemoteAddr) {
			message := "JWT verification failed, empty token"
			span.SetStatus(trace.Status{Code: trace.StatusCodeUnauthenticated, Message: message})
			log.Warn(message)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx = auth.WithPerm(ctx, []auth.Permission{utils.PermRead})
		h.Next(w, r.WithContext(ctx))
		return
	}

	if !strings.HasPrefix(token, "Bearer ") {
		log.Warn("missing Bearer prefix in auth header")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	token = strings.TrimPrefix(token, "Bearer ")

	if name, _ := jwtNameFromToken(token); len(name) != 0 {
		span.AddAttributes(trace.StringAttribute("Account-Unverified", name))
	}

	perms, err := h.Verify(ctx, token)
	if err != nil {
		message := fmt.Sprintf("JWT Verification failed (originating from %s): %s", r.RemoteAddr, err.Error())
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnauthenticated, Message: message})
		log.Warn(message)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ctx = auth.WithPerm(ctx, perms)
	h.Next(w, r.WithContext(ctx))
}
