package types

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const PublicKeyLength = 32

// WireAccount is an account as reported by a provider.
type WireAccount struct {
	Address   string   `json:"address"`
	PublicKey []byte   `json:"publicKey"`
	Chains    []string `json:"chains,omitempty"`
	Features  []string `json:"features,omitempty"`
	Label     string   `json:"label,omitempty"`
	Icon      string   `json:"icon,omitempty"`
}

// Account is a validated provider account. It holds the owning wallet by key only.
type Account struct {
	publicKey solana.PublicKey
	address   string
	label     string
	icon      string
	chains    []Cluster
	features  []string
	wallet    WalletKey
}

// DecodeAccount validates wire data reported by the wallet described by owner.
// It never returns a partially built account.
func DecodeAccount(wire *WireAccount, owner *WalletDescriptor) (*Account, error) {
	if wire == nil {
		return nil, NewError(KindInvalidAccountData, "empty account")
	}
	if len(wire.PublicKey) != PublicKeyLength {
		return nil, NewError(KindInvalidAccountData, "public key must be %d bytes, got %d", PublicKeyLength, len(wire.PublicKey))
	}
	decoded, err := DecodeAddress(wire.Address)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(decoded, wire.PublicKey) {
		return nil, NewError(KindInvalidAccountData, "address %s does not match public key", wire.Address)
	}

	chains := make([]Cluster, 0, len(wire.Chains))
	for _, chain := range wire.Chains {
		c, err := ParseCluster(chain)
		if err != nil {
			return nil, WrapError(KindInvalidAccountData, err, "account "+wire.Address)
		}
		if owner != nil && !owner.SupportsCluster(c) {
			return nil, NewError(KindInvalidAccountData, "account %s reports %s which wallet %s does not support", wire.Address, c, owner.Name())
		}
		chains = append(chains, c)
	}

	acc := &Account{
		publicKey: solana.PublicKeyFromBytes(wire.PublicKey),
		address:   wire.Address,
		label:     wire.Label,
		icon:      wire.Icon,
		chains:    chains,
		features:  append([]string(nil), wire.Features...),
	}
	if owner != nil {
		acc.wallet = owner.Key()
	}
	return acc, nil
}

// DecodeAddress base58-decodes a 32 byte address and checks it re-encodes to the same string.
func DecodeAddress(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, WrapError(KindInvalidAccountData, err, "invalid base58 address "+address)
	}
	if len(raw) != PublicKeyLength {
		return nil, NewError(KindInvalidAccountData, "address %s decodes to %d bytes", address, len(raw))
	}
	if base58.Encode(raw) != address {
		return nil, NewError(KindInvalidAccountData, "address %s is not canonical base58", address)
	}
	return raw, nil
}

func (a *Account) PublicKey() solana.PublicKey { return a.publicKey }

func (a *Account) Address() string { return a.address }

func (a *Account) Label() string { return a.label }

func (a *Account) Icon() string { return a.icon }

func (a *Account) WalletKey() WalletKey { return a.wallet }

func (a *Account) Chains() []Cluster {
	out := make([]Cluster, len(a.chains))
	copy(out, a.chains)
	return out
}

func (a *Account) Features() []string {
	return append([]string(nil), a.features...)
}

// Equal compares public key and owning wallet.
func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.publicKey.Equals(other.publicKey) && a.wallet == other.wallet
}

// ShortAddress renders the address as the first and last four characters, e.g. "FXdl...RGd4".
func (a *Account) ShortAddress() (string, error) {
	return ShortenAddress(a.address, 4)
}

func (a *Account) ShortAddressN(take int) (string, error) {
	return ShortenAddress(a.address, take)
}

func ShortenAddress(address string, take int) (string, error) {
	if take <= 0 || len(address) < take*2 {
		return "", NewError(KindInvalidAccountData, "address %q too short to shorten by %d", address, take)
	}
	return address[:take] + "..." + address[len(address)-take:], nil
}

func (a *Account) Info() *AccountInfo {
	chains := make([]string, len(a.chains))
	for i, c := range a.chains {
		chains[i] = c.String()
	}
	return &AccountInfo{
		Address:   a.address,
		PublicKey: a.publicKey.Bytes(),
		Label:     a.label,
		Chains:    chains,
		Wallet:    a.wallet.String(),
	}
}
