package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/wallet-adapter/utils"
)

func TestAuthHandler(t *testing.T) {
	localJwt, err := utils.NewLocalJwtClient(t.TempDir())
	require.NoError(t, err)

	var got []auth.Permission
	handler := &AuthHandler{
		Verify: localJwt.Verify,
		Next: func(w http.ResponseWriter, r *http.Request) {
			for _, perm := range utils.AllPermissions {
				if auth.HasPerm(r.Context(), nil, perm) {
					got = append(got, perm)
				}
			}
			w.WriteHeader(http.StatusOK)
		},
	}
	serve := func(remote, token string) int {
		got = nil
		req := httptest.NewRequest(http.MethodPost, "/rpc/v0", nil)
		req.RemoteAddr = remote
		if token != "" {
			req.Header.Set("Authorization", token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("loopback without token", func(t *testing.T) {
		require.Equal(t, http.StatusOK, serve("127.0.0.1:5678", ""))
		require.Equal(t, []auth.Permission{utils.PermRead}, got)
		require.Equal(t, http.StatusOK, serve("[::1]:5678", ""))
	})

	t.Run("remote without token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, serve("10.0.0.2:5678", ""))
	})

	t.Run("bad tokens", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, serve("10.0.0.2:5678", "Bearer bad"))
		require.Equal(t, http.StatusUnauthorized, serve("10.0.0.2:5678", string(localJwt.Token)))
	})

	t.Run("sign token", func(t *testing.T) {
		token, err := localJwt.NewToken("signer", utils.PermSign)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, serve("10.0.0.2:5678", "Bearer "+string(token)))
		require.Equal(t, []auth.Permission{utils.PermRead, utils.PermSign}, got)

		name, err := jwtNameFromToken(string(token))
		require.NoError(t, err)
		require.Equal(t, "signer", name)
	})
}
