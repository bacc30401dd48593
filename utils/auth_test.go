package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/require"
)

func TestLocalJwtCreateAndVerify(t *testing.T) {
	ctx := context.Background()
	jwt, err := NewLocalJwtClient(t.TempDir())
	require.NoError(t, err)
	perm, err := jwt.Verify(ctx, string(jwt.Token))
	require.NoError(t, err)
	require.Equal(t, []auth.Permission{"admin", "sign", "read"}, perm)

	signToken, err := jwt.NewToken("wallet", PermSign)
	require.NoError(t, err)
	perm, err = jwt.Verify(ctx, string(signToken))
	require.NoError(t, err)
	require.Equal(t, []auth.Permission{"sign", "read"}, perm)

	_, err = jwt.NewToken("wallet", "write")
	require.Error(t, err)

	other, err := NewLocalJwtClient(t.TempDir())
	require.NoError(t, err)
	_, err = other.Verify(ctx, string(jwt.Token))
	require.Error(t, err)
}

func TestSaveToken(t *testing.T) {
	repo := t.TempDir()
	jwt, err := NewLocalJwtClient(repo)
	require.NoError(t, err)
	require.NoError(t, jwt.SaveToken())

	data, err := os.ReadFile(filepath.Join(repo, TokenFile))
	require.NoError(t, err)
	require.Equal(t, jwt.Token, data)
}

func TestRemoteAddrHandler(t *testing.T) {
	var got string
	handler := RemoteAddrHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CtxGetRemote(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/rpc/v0", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "10.0.0.1:5555", got)

	req.Header.Set("X-Forwarded-For", "192.168.1.2")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "192.168.1.2", got)

	_, ok := CtxGetRemote(context.Background())
	require.False(t, ok)
}
