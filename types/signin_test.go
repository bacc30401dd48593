package types

import (
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func newSigninInput(t *testing.T, key solana.PrivateKey) *SigninInput {
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expire := issued.Add(time.Hour)
	return &SigninInput{
		Domain:         "example.com",
		Statement:      "Sign in to Example",
		ChainID:        "solana:devnet",
		Address:        key.PublicKey().String(),
		Nonce:          "abcdEFGH1234",
		IssuedAt:       issued,
		ExpirationTime: &expire,
		Resources:      []string{"https://example.com/terms", "ipfs://bafybeiemxf5abjwjbikoz4mc3a3dla6ual3jsgpdr4cjr3oz3evfyavhwq"},
		URI:            "https://example.com/login",
		Version:        "1",
	}
}

func TestSigninMessage(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	in := newSigninInput(t, key)
	require.NoError(t, in.Validate())

	expect := strings.Join([]string{
		"example.com wants you to sign in with your Solana account:",
		"",
		"Sign in to Example",
		"",
		"Address: " + key.PublicKey().String(),
		"Chain ID: devnet",
		"Nonce: abcdEFGH1234",
		"Issued At: 2024-05-01T12:00:00Z",
		"URI: https://example.com/login",
		"Version: 1",
		"Expiration Time: 2024-05-01T13:00:00Z",
		"Resources:",
		"- https://example.com/terms",
		"- ipfs://bafybeiemxf5abjwjbikoz4mc3a3dla6ual3jsgpdr4cjr3oz3evfyavhwq",
	}, "\n")
	require.Equal(t, expect, string(in.Message()))
	require.Equal(t, in.Message(), newSigninInput(t, key).Message())

	in.Statement = ""
	in.Resources = nil
	require.True(t, strings.HasPrefix(string(in.Message()), "example.com wants you to sign in with your Solana account:\n\nAddress: "))
}

func TestSigninValidate(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	cases := map[string]func(in *SigninInput){
		"missing domain":     func(in *SigninInput) { in.Domain = "" },
		"short nonce":        func(in *SigninInput) { in.Nonce = "abc" },
		"nonce symbols":      func(in *SigninInput) { in.Nonce = "abcd-efgh-ijkl" },
		"bad chain":          func(in *SigninInput) { in.ChainID = "ethereum:1" },
		"bad address":        func(in *SigninInput) { in.Address = "not-an-address" },
		"missing issued at":  func(in *SigninInput) { in.IssuedAt = time.Time{} },
		"multiline":          func(in *SigninInput) { in.Statement = "line one\nline two" },
		"bad resource":       func(in *SigninInput) { in.Resources = []string{"not a uri"} },
		"expired before":     func(in *SigninInput) { e := in.IssuedAt.Add(-time.Minute); in.ExpirationTime = &e },
		"not before too late": func(in *SigninInput) {
			nb := in.ExpirationTime.Add(time.Minute)
			in.NotBefore = &nb
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := newSigninInput(t, key)
			mutate(in)
			require.ErrorIs(t, in.Validate(), ErrInvalidInput)
		})
	}
	require.ErrorIs(t, (*SigninInput)(nil).Validate(), ErrInvalidInput)
}

func TestVerifySignIn(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	in := newSigninInput(t, key)
	msg := in.Message()
	sig, err := key.Sign(msg)
	require.NoError(t, err)

	out := &SigninOutput{
		Input:         in,
		Account:       &AccountInfo{Address: in.Address},
		SignedMessage: msg,
		Signature:     sig[:],
	}
	require.NoError(t, VerifySignIn(out, key.PublicKey()))

	t.Run("mismatched address", func(t *testing.T) {
		other, err := solana.NewRandomPrivateKey()
		require.NoError(t, err)
		bad := *out
		bad.Account = &AccountInfo{Address: other.PublicKey().String()}
		require.ErrorIs(t, VerifySignIn(&bad, key.PublicKey()), ErrSignatureVerificationFailed)
	})

	t.Run("tampered message", func(t *testing.T) {
		bad := *out
		bad.SignedMessage = append([]byte("x"), msg...)
		require.ErrorIs(t, VerifySignIn(&bad, key.PublicKey()), ErrSignatureVerificationFailed)
	})

	t.Run("wrong signer", func(t *testing.T) {
		other, err := solana.NewRandomPrivateKey()
		require.NoError(t, err)
		otherSig, err := other.Sign(msg)
		require.NoError(t, err)
		bad := *out
		bad.Signature = otherSig[:]
		require.ErrorIs(t, VerifySignIn(&bad, key.PublicKey()), ErrSignatureVerificationFailed)
	})

	t.Run("short signature", func(t *testing.T) {
		bad := *out
		bad.Signature = sig[:63]
		require.ErrorIs(t, VerifySignIn(&bad, key.PublicKey()), ErrSignatureVerificationFailed)
	})
}

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	require.NoError(t, err)
	b, err := NewNonce()
	require.NoError(t, err)
	require.Len(t, a, 16)
	require.NotEqual(t, a, b)
}
