package walletevent

import (
	"sort"

	"github.com/sasha-s/go-deadlock"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

// Registry holds the newest descriptor of every announced wallet. Only Discovery mutates it.
type Registry struct {
	lk      deadlock.RWMutex
	wallets map[types.WalletKey]*types.WalletDescriptor
}

func NewRegistry() *Registry {
	return &Registry{
		wallets: make(map[types.WalletKey]*types.WalletDescriptor),
	}
}

// Get looks a wallet up by name, case-insensitively.
func (r *Registry) Get(name string) (*types.WalletDescriptor, error) {
	desc, ok := r.GetByKey(types.KeyOf(name))
	if !ok {
		return nil, types.NewError(types.KindWalletNotFound, "wallet %s not found", name)
	}
	return desc, nil
}

func (r *Registry) GetByKey(key types.WalletKey) (*types.WalletDescriptor, bool) {
	r.lk.RLock()
	defer r.lk.RUnlock()
	desc, ok := r.wallets[key]
	return desc, ok
}

// List returns a snapshot ordered by name.
func (r *Registry) List() []*types.WalletDescriptor {
	r.lk.RLock()
	out := make([]*types.WalletDescriptor, 0, len(r.wallets))
	for _, desc := range r.wallets {
		out = append(out, desc)
	}
	r.lk.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (r *Registry) Len() int {
	r.lk.RLock()
	defer r.lk.RUnlock()
	return len(r.wallets)
}

// upsert replaces any descriptor with the same name and reports whether one existed.
func (r *Registry) upsert(desc *types.WalletDescriptor) bool {
	r.lk.Lock()
	defer r.lk.Unlock()
	_, replaced := r.wallets[desc.Key()]
	r.wallets[desc.Key()] = desc
	return replaced
}

func (r *Registry) remove(name string) (*types.WalletDescriptor, bool) {
	key := types.KeyOf(name)
	r.lk.Lock()
	defer r.lk.Unlock()
	desc, ok := r.wallets[key]
	if ok {
		delete(r.wallets, key)
	}
	return desc, ok
}
