package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/filecoin-project/go-jsonrpc/auth"
	jwt3 "github.com/gbrlsnchs/jwt/v3"
)

const TokenFile = "token"

// Permissions, lowest first. A token carrying one permission is granted all lower ones.
const (
	PermRead  auth.Permission = "read"
	PermSign  auth.Permission = "sign"
	PermAdmin auth.Permission = "admin"
)

var AllPermissions = []auth.Permission{PermRead, PermSign, PermAdmin}

type JWTPayload struct {
	Perm auth.Permission `json:"perm"`
	Name string          `json:"name"`
}

// LocalJwtClient issues and verifies tokens signed with a secret that lives as long as the daemon.
type LocalJwtClient struct {
	repo   string
	Seckey []byte
	Token  []byte
}

func NewLocalJwtClient(repo string) (*LocalJwtClient, error) {
	var err error
	var seckey []byte
	if seckey, err = io.ReadAll(io.LimitReader(rand.Reader, 32)); err != nil {
		return nil, err
	}
	l := &LocalJwtClient{
		repo:   repo,
		Seckey: seckey,
	}
	if l.Token, err = l.NewToken("AdapterLocalToken", PermAdmin); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LocalJwtClient) NewToken(name string, perm auth.Permission) ([]byte, error) {
	if _, err := expandPerm(perm); err != nil {
		return nil, err
	}
	return jwt3.Sign(JWTPayload{Perm: perm, Name: name}, jwt3.NewHS256(l.Seckey))
}

func (l *LocalJwtClient) Verify(ctx context.Context, token string) ([]auth.Permission, error) {
	var payload JWTPayload
	if _, err := jwt3.Verify([]byte(token), jwt3.NewHS256(l.Seckey), &payload); err != nil {
		return nil, fmt.Errorf("JWT Verification failed: %v", err)
	}
	return expandPerm(payload.Perm)
}

func (l *LocalJwtClient) SaveToken() error {
	return os.WriteFile(path.Join(l.repo, TokenFile), l.Token, 0600)
}

func expandPerm(perm auth.Permission) ([]auth.Permission, error) {
	for i, p := range AllPermissions {
		if p == perm {
			out := make([]auth.Permission, i+1)
			for j := range out {
				out[j] = AllPermissions[i-j]
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("unknown permission %q", perm)
}
