package adapter

import (
	"strings"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

// capabilities maps probe names to the cluster or feature they test.
var capabilities = map[string]string{
	"mainnet":                          string(types.Mainnet),
	"devnet":                           string(types.Devnet),
	"testnet":                          string(types.Testnet),
	"localnet":                         string(types.Localnet),
	"standard_events":                  types.StandardEvents,
	"solana_sign_message":              types.SolanaSignMessage,
	"solana_sign_transaction":          types.SolanaSignTransaction,
	"solana_sign_and_send_transaction": types.SolanaSignAndSendTransaction,
	"solana_sign_in":                   types.SolanaSignIn,
}

// activeWallet is the newest descriptor of the connected wallet. A re-announcement updates the
// registry but not the session, so the registry wins when it still knows the wallet.
func (a *Adapter) activeWallet() (*types.WalletDescriptor, *types.Account, error) {
	desc, acc, err := a.conn.session()
	if err != nil {
		return nil, nil, err
	}
	if current, ok := a.registry.GetByKey(desc.Key()); ok {
		desc = current
	}
	return desc, acc, nil
}

func (a *Adapter) SupportsCluster(c types.Cluster) (bool, error) {
	desc, _, err := a.activeWallet()
	if err != nil {
		return false, err
	}
	return desc.SupportsCluster(c), nil
}

func (a *Adapter) SupportsFeature(feature string) (bool, error) {
	desc, _, err := a.activeWallet()
	if err != nil {
		return false, err
	}
	return desc.HasFeature(feature), nil
}

func (a *Adapter) Mainnet() (bool, error)  { return a.SupportsCluster(types.Mainnet) }
func (a *Adapter) Devnet() (bool, error)   { return a.SupportsCluster(types.Devnet) }
func (a *Adapter) Testnet() (bool, error)  { return a.SupportsCluster(types.Testnet) }
func (a *Adapter) Localnet() (bool, error) { return a.SupportsCluster(types.Localnet) }

func (a *Adapter) StandardEvents() (bool, error) {
	return a.SupportsFeature(types.StandardEvents)
}

func (a *Adapter) SolanaSignMessage() (bool, error) {
	return a.SupportsFeature(types.SolanaSignMessage)
}

func (a *Adapter) SolanaSignTransaction() (bool, error) {
	return a.SupportsFeature(types.SolanaSignTransaction)
}

func (a *Adapter) SolanaSignAndSendTransaction() (bool, error) {
	return a.SupportsFeature(types.SolanaSignAndSendTransaction)
}

func (a *Adapter) SolanaSignIn() (bool, error) {
	return a.SupportsFeature(types.SolanaSignIn)
}

// Supports answers a capability query by name. Names are the probe names ("devnet",
// "solana_sign_in"), chain ids or feature ids.
func (a *Adapter) Supports(name string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	target, ok := capabilities[key]
	if !ok {
		target = strings.TrimSpace(name)
	}
	if c, err := types.ParseCluster(target); err == nil {
		return a.SupportsCluster(c)
	}
	if strings.HasPrefix(target, "standard:") || strings.HasPrefix(target, "solana:") {
		return a.SupportsFeature(target)
	}
	return false, types.NewError(types.KindInvalidInput, "unknown capability %q", name)
}
