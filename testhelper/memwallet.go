package testhelper

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

var (
	_ types.Provider     = (*MemWallet)(nil)
	_ types.EventEmitter = (*MemWallet)(nil)
)

// MemWallet is an in-memory ed25519 wallet speaking the wallet standard features it announces.
type MemWallet struct {
	name     string
	chains   []string
	features []string

	lk        sync.Mutex
	keys      []solana.PrivateKey
	active    int
	listeners map[uint64]func(*types.ChangeEvent)
	nextID    uint64
	calls     map[string]int

	rejectConnect      error
	failDisconnect     error
	wrongSignInAddress bool
	connectGate        chan struct{}
}

// NewMemWallet creates a wallet with one account on the given chains, mainnet and devnet when
// chains is empty.
func NewMemWallet(name string, chains []string, features ...string) (*MemWallet, error) {
	if len(chains) == 0 {
		chains = []string{types.Mainnet.String(), types.Devnet.String()}
	}
	w := &MemWallet{
		name:      name,
		chains:    chains,
		features:  features,
		listeners: make(map[uint64]func(*types.ChangeEvent)),
		calls:     make(map[string]int),
	}
	if _, err := w.AddKey(); err != nil {
		return nil, err
	}
	return w, nil
}

func (m *MemWallet) Name() string {
	return m.name
}

// Announcement describes the wallet with itself as provider.
func (m *MemWallet) Announcement() *types.WalletAnnouncement {
	return &types.WalletAnnouncement{
		Name:     m.name,
		Icon:     "data:image/svg+xml;base64,PHN2Zy8+",
		Version:  types.WalletStandardVersion,
		Chains:   append([]string(nil), m.chains...),
		Features: append([]string(nil), m.features...),
		Provider: m,
	}
}

func (m *MemWallet) AddKey() (solana.PublicKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, err
	}
	m.lk.Lock()
	defer m.lk.Unlock()
	m.keys = append(m.keys, key)
	return key.PublicKey(), nil
}

// PublicKey of the active account.
func (m *MemWallet) PublicKey() solana.PublicKey {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.keys[m.active].PublicKey()
}

func (m *MemWallet) SetRejectConnect(err error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.rejectConnect = err
}

func (m *MemWallet) SetFailDisconnect(err error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.failDisconnect = err
}

// SetWrongSignInAddress makes sign-in report an account other than the requested one.
func (m *MemWallet) SetWrongSignInAddress(wrong bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.wrongSignInAddress = wrong
}

// HoldConnect makes standard:connect wait until the returned function is called.
func (m *MemWallet) HoldConnect() (release func()) {
	gate := make(chan struct{})
	m.lk.Lock()
	m.connectGate = gate
	m.lk.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.lk.Lock()
			m.connectGate = nil
			m.lk.Unlock()
			close(gate)
		})
	}
}

// Calls reports how often feature was invoked.
func (m *MemWallet) Calls(feature string) int {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.calls[feature]
}

// SwitchAccount makes account i active and emits an accounts change.
func (m *MemWallet) SwitchAccount(i int) error {
	m.lk.Lock()
	if i < 0 || i >= len(m.keys) {
		m.lk.Unlock()
		return fmt.Errorf("account %d out of range", i)
	}
	m.active = i
	accounts := m.wireAccounts()
	m.lk.Unlock()

	m.Emit(&types.ChangeEvent{Accounts: &accounts})
	return nil
}

// Lock emits an empty accounts change, the way a wallet revoking access does.
func (m *MemWallet) Lock() {
	m.Emit(&types.ChangeEvent{Accounts: &[]types.WireAccount{}})
}

func (m *MemWallet) Emit(change *types.ChangeEvent) {
	m.lk.Lock()
	fns := make([]func(*types.ChangeEvent), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.lk.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

func (m *MemWallet) OnChange(listener func(*types.ChangeEvent)) func() {
	m.lk.Lock()
	defer m.lk.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = listener
	return func() {
		m.lk.Lock()
		defer m.lk.Unlock()
		delete(m.listeners, id)
	}
}

// Listeners is the number of registered change listeners.
func (m *MemWallet) Listeners() int {
	m.lk.Lock()
	defer m.lk.Unlock()
	return len(m.listeners)
}

func (m *MemWallet) Invoke(ctx context.Context, feature string, payload []byte) ([]byte, error) {
	if !m.announces(feature) {
		return nil, fmt.Errorf("feature %s not supported", feature)
	}

	m.lk.Lock()
	m.calls[feature]++
	gate := m.connectGate
	m.lk.Unlock()

	switch feature {
	case types.StandardConnect:
		if gate != nil {
			<-gate
		}
		m.lk.Lock()
		defer m.lk.Unlock()
		if m.rejectConnect != nil {
			return nil, m.rejectConnect
		}
		return json.Marshal(types.ConnectOutput{Accounts: m.wireAccounts()})
	case types.StandardDisconnect:
		m.lk.Lock()
		defer m.lk.Unlock()
		return nil, m.failDisconnect
	case types.SolanaSignMessage:
		var in types.SignMessageInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, err
		}
		key, err := m.keyOf(in.Account.Address)
		if err != nil {
			return nil, err
		}
		sig, err := key.Sign(in.Message)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.SignMessageOutput{SignedMessage: in.Message, Signature: sig[:], SignatureType: "ed25519"})
	case types.SolanaSignTransaction:
		var in types.SignTransactionInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, err
		}
		sig, err := m.signWith(in.Account.Address, in.Transaction)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.SignTransactionOutput{SignedTransaction: append(sig[:], in.Transaction...)})
	case types.SolanaSignAndSendTransaction:
		var in types.SignAndSendTransactionInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, err
		}
		sig, err := m.signWith(in.Account.Address, in.Transaction)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.SignAndSendTransactionOutput{Signature: sig[:]})
	case types.SolanaSignIn:
		return m.signIn(payload)
	}
	return nil, nil
}

func (m *MemWallet) signIn(payload []byte) ([]byte, error) {
	var req types.SignInRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	if req.Input == nil {
		return nil, fmt.Errorf("missing sign in input")
	}
	key, err := m.keyOf(req.Input.Address)
	if err != nil {
		return nil, err
	}
	msg := req.Input.Message()
	sig, err := key.Sign(msg)
	if err != nil {
		return nil, err
	}

	account := m.wireAccount(key)
	m.lk.Lock()
	wrong := m.wrongSignInAddress
	m.lk.Unlock()
	if wrong {
		other, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, err
		}
		account = m.wireAccount(other)
	}
	return json.Marshal(types.SignInResponse{Account: account, SignedMessage: msg, Signature: sig[:]})
}

func (m *MemWallet) signWith(address string, data []byte) (solana.Signature, error) {
	key, err := m.keyOf(address)
	if err != nil {
		return solana.Signature{}, err
	}
	return key.Sign(data)
}

func (m *MemWallet) keyOf(address string) (solana.PrivateKey, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	for _, key := range m.keys {
		if key.PublicKey().String() == address {
			return key, nil
		}
	}
	return nil, fmt.Errorf("account %s not found", address)
}

func (m *MemWallet) announces(feature string) bool {
	for _, f := range m.features {
		if f == feature {
			return true
		}
	}
	return false
}

// wireAccounts lists the accounts with the active one first. Callers hold lk.
func (m *MemWallet) wireAccounts() []types.WireAccount {
	out := []types.WireAccount{m.wireAccount(m.keys[m.active])}
	for i, key := range m.keys {
		if i != m.active {
			out = append(out, m.wireAccount(key))
		}
	}
	return out
}

func (m *MemWallet) wireAccount(key solana.PrivateKey) types.WireAccount {
	pub := key.PublicKey()
	return types.WireAccount{
		Address:   pub.String(),
		PublicKey: pub.Bytes(),
		Chains:    append([]string(nil), m.chains...),
		Features:  append([]string(nil), m.features...),
		Label:     m.name,
	}
}
