package types

import (
	"bytes"
	"crypto/rand"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-playground/validator/v10"
	"github.com/mr-tron/base58"
)

var validate = validator.New()

// SigninInput is the challenge a wallet is asked to sign to prove control of an address.
type SigninInput struct {
	Domain         string     `json:"domain" validate:"required"`
	Statement      string     `json:"statement,omitempty"`
	ChainID        string     `json:"chainId" validate:"required"`
	Address        string     `json:"address" validate:"required"`
	Nonce          string     `json:"nonce" validate:"required,alphanum,min=8"`
	IssuedAt       time.Time  `json:"issuedAt" validate:"required"`
	ExpirationTime *time.Time `json:"expirationTime,omitempty"`
	NotBefore      *time.Time `json:"notBefore,omitempty"`
	Resources      []string   `json:"resources,omitempty" validate:"omitempty,dive,uri"`
	URI            string     `json:"uri,omitempty" validate:"omitempty,uri"`
	Version        string     `json:"version,omitempty"`
	RequestID      string     `json:"requestId,omitempty"`
}

// Validate reports the first problem as InvalidInput.
func (in *SigninInput) Validate() error {
	if in == nil {
		return NewError(KindInvalidInput, "empty sign-in input")
	}
	if err := validate.Struct(in); err != nil {
		return WrapError(KindInvalidInput, err, "sign-in input")
	}
	if strings.ContainsAny(in.Domain, "\r\n") || strings.ContainsAny(in.Statement, "\r\n") {
		return NewError(KindInvalidInput, "domain and statement must be a single line")
	}
	if _, err := ParseCluster(in.ChainID); err != nil {
		return WrapError(KindInvalidInput, err, "sign-in chain id")
	}
	if _, err := DecodeAddress(in.Address); err != nil {
		return WrapError(KindInvalidInput, err, "sign-in address")
	}
	if in.ExpirationTime != nil && !in.ExpirationTime.After(in.IssuedAt) {
		return NewError(KindInvalidInput, "expiration time %s is not after issued at %s",
			formatTime(*in.ExpirationTime), formatTime(in.IssuedAt))
	}
	if in.NotBefore != nil && in.ExpirationTime != nil && !in.NotBefore.Before(*in.ExpirationTime) {
		return NewError(KindInvalidInput, "not before %s is not before expiration time %s",
			formatTime(*in.NotBefore), formatTime(*in.ExpirationTime))
	}
	return nil
}

// Cluster returns the parsed chain id. Call Validate first.
func (in *SigninInput) Cluster() Cluster {
	c, _ := ParseCluster(in.ChainID)
	return c
}

// Message renders the canonical bytes a wallet signs. Field order is fixed:
// domain header, statement, address, chain id, nonce, issued at, then the optional fields.
func (in *SigninInput) Message() []byte {
	var buf bytes.Buffer
	buf.WriteString(in.Domain)
	buf.WriteString(" wants you to sign in with your Solana account:\n")
	if in.Statement != "" {
		buf.WriteString("\n")
		buf.WriteString(in.Statement)
		buf.WriteString("\n")
	}
	buf.WriteString("\n")

	line := func(key, value string) {
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\n")
	}
	chain := in.ChainID
	if c, err := ParseCluster(in.ChainID); err == nil {
		chain = c.Short()
	}
	line("Address", in.Address)
	line("Chain ID", chain)
	line("Nonce", in.Nonce)
	line("Issued At", formatTime(in.IssuedAt))
	if in.URI != "" {
		line("URI", in.URI)
	}
	if in.Version != "" {
		line("Version", in.Version)
	}
	if in.ExpirationTime != nil {
		line("Expiration Time", formatTime(*in.ExpirationTime))
	}
	if in.NotBefore != nil {
		line("Not Before", formatTime(*in.NotBefore))
	}
	if in.RequestID != "" {
		line("Request ID", in.RequestID)
	}
	if len(in.Resources) > 0 {
		buf.WriteString("Resources:\n")
		for _, r := range in.Resources {
			buf.WriteString("- ")
			buf.WriteString(r)
			buf.WriteString("\n")
		}
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NewNonce returns 16 random alphanumeric characters.
func NewNonce() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base58.Encode(raw)[:16], nil
}

// SigninOutput is a verified sign-in result.
type SigninOutput struct {
	Input         *SigninInput `json:"input"`
	Account       *AccountInfo `json:"account"`
	SignedMessage []byte       `json:"signedMessage"`
	Signature     []byte       `json:"signature"`
}

// VerifySignIn checks the returned address matches the requested one and that the signature
// verifies against publicKey over the canonical message. Failures are SignatureVerificationFailed.
func VerifySignIn(out *SigninOutput, publicKey solana.PublicKey) error {
	if out == nil || out.Input == nil || out.Account == nil {
		return NewError(KindSignatureVerificationFailed, "incomplete sign-in output")
	}
	if out.Account.Address != out.Input.Address {
		return NewError(KindSignatureVerificationFailed, "wallet signed in as %s, requested %s",
			out.Account.Address, out.Input.Address)
	}
	if out.Account.Address != publicKey.String() {
		return NewError(KindSignatureVerificationFailed, "address %s does not belong to key %s",
			out.Account.Address, publicKey)
	}
	expect := out.Input.Message()
	if !bytes.Equal(expect, out.SignedMessage) {
		return NewError(KindSignatureVerificationFailed, "signed message differs from the sign-in message")
	}
	return VerifySignature(publicKey, expect, out.Signature)
}

// VerifySignature checks a 64 byte ed25519 signature.
func VerifySignature(publicKey solana.PublicKey, message, signature []byte) error {
	if len(signature) != solana.SignatureLength {
		return NewError(KindSignatureVerificationFailed, "signature must be %d bytes, got %d",
			solana.SignatureLength, len(signature))
	}
	if !solana.SignatureFromBytes(signature).Verify(publicKey, message) {
		return NewError(KindSignatureVerificationFailed, "invalid signature for %s", publicKey)
	}
	return nil
}
