package types

import (
	"github.com/gagliardetto/solana-go/rpc"
)

// Payloads exchanged with providers, keyed by feature id.

type ConnectInput struct {
	Silent bool `json:"silent"`
}

type ConnectOutput struct {
	Accounts []WireAccount `json:"accounts"`
}

type SignMessageInput struct {
	Account WireAccount `json:"account"`
	Message []byte      `json:"message"`
}

type SignMessageOutput struct {
	SignedMessage []byte `json:"signedMessage"`
	Signature     []byte `json:"signature"`
	SignatureType string `json:"signatureType,omitempty"`
}

type SignTransactionInput struct {
	Account     WireAccount `json:"account"`
	Transaction []byte      `json:"transaction"`
	Chain       string      `json:"chain,omitempty"`
}

type SignTransactionOutput struct {
	SignedTransaction []byte `json:"signedTransaction"`
}

type SignAndSendTransactionInput struct {
	Account     WireAccount  `json:"account"`
	Transaction []byte       `json:"transaction"`
	Chain       string       `json:"chain"`
	Options     *SendOptions `json:"options,omitempty"`
}

type SignAndSendTransactionOutput struct {
	Signature []byte `json:"signature"`
}

type SignInRequest struct {
	Input *SigninInput `json:"input"`
}

type SignInResponse struct {
	Account       WireAccount `json:"account"`
	SignedMessage []byte      `json:"signedMessage"`
	Signature     []byte      `json:"signature"`
}

// ChangeEvent is emitted through standard:events. A nil Accounts means the accounts did not change.
type ChangeEvent struct {
	Accounts *[]WireAccount `json:"accounts,omitempty"`
	Chains   []string       `json:"chains,omitempty"`
	Features []string       `json:"features,omitempty"`
}

// SendOptions controls how a provider submits a signed transaction.
type SendOptions struct {
	SkipPreflight       bool               `json:"skipPreflight"`
	PreflightCommitment rpc.CommitmentType `json:"preflightCommitment,omitempty"`
	MaxRetries          uint               `json:"maxRetries,omitempty"`
	MinContextSlot      *uint64            `json:"minContextSlot,omitempty"`
}

func DefaultSendOptions() *SendOptions {
	return &SendOptions{PreflightCommitment: rpc.CommitmentFinalized}
}

func (o *SendOptions) Validate() error {
	if o == nil {
		return nil
	}
	switch o.PreflightCommitment {
	case "", rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return nil
	}
	return NewError(KindInvalidInput, "unsupported preflight commitment %q", o.PreflightCommitment)
}

// WireAccountOf converts a validated account back to its wire form.
func WireAccountOf(acc *Account) WireAccount {
	chains := make([]string, len(acc.chains))
	for i, c := range acc.chains {
		chains[i] = c.String()
	}
	return WireAccount{
		Address:   acc.address,
		PublicKey: acc.publicKey.Bytes(),
		Chains:    chains,
		Features:  acc.Features(),
		Label:     acc.label,
		Icon:      acc.icon,
	}
}
