package types

import (
	"time"

	"github.com/google/uuid"
)

type WalletInfo struct {
	Name     string
	Icon     string
	Version  string
	Chains   []string
	Features []string
}

type AccountInfo struct {
	Address   string
	PublicKey []byte
	Label     string
	Chains    []string
	Wallet    string
}

type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connecting
	Connected
	Disconnecting
)

func (s ConnectionStatus) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Disconnecting:
		return "Disconnecting"
	}
	return "Disconnected"
}

// ConnectionInfo is a snapshot of the session. Wallet and Account are nil unless Connected
// (Wallet is also set while Connecting or Disconnecting).
type ConnectionInfo struct {
	Status  ConnectionStatus
	Wallet  *WalletDescriptor
	Account *Account
}

func (c *ConnectionInfo) IsConnected() bool {
	return c.Status == Connected
}

func (c *ConnectionInfo) State() *ConnectionState {
	state := &ConnectionState{Status: c.Status.String()}
	if c.Wallet != nil {
		state.Wallet = c.Wallet.Info()
	}
	if c.Account != nil {
		state.Account = c.Account.Info()
	}
	return state
}

// ConnectionState is the transport form of ConnectionInfo.
type ConnectionState struct {
	Status  string
	Wallet  *WalletInfo
	Account *AccountInfo
}

type EventInfo struct {
	Kind      string
	Name      string
	Wallet    *WalletInfo  `json:",omitempty"`
	Account   *AccountInfo `json:",omitempty"`
	ErrorKind string       `json:",omitempty"`
	Error     string       `json:",omitempty"`
	Lagged    uint64       `json:",omitempty"`
}

// WalletConnection describes one remote wallet channel held by the gateway.
type WalletConnection struct {
	Name         string
	ChannelID    uuid.UUID
	Source       string
	RequestCount int
	CreateTime   time.Time
}
