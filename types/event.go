package types

import (
	"fmt"
)

type EventKind int

const (
	EventRegistered EventKind = iota + 1
	EventUnregistered
	EventConnected
	EventDisconnected
	EventAccountChanged
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventRegistered:
		return "Registered"
	case EventUnregistered:
		return "Unregistered"
	case EventConnected:
		return "Connected"
	case EventDisconnected:
		return "Disconnected"
	case EventAccountChanged:
		return "AccountChanged"
	case EventError:
		return "Error"
	}
	return "Unknown"
}

// WalletEvent is a lifecycle notification delivered through the event bus.
// Wallet is set for Registered, Name for Unregistered, Account for Connected and
// AccountChanged, Err for Error.
type WalletEvent struct {
	Kind    EventKind
	Wallet  *WalletDescriptor
	Name    string
	Account *Account
	Err     *WalletError
}

func RegisteredEvent(desc *WalletDescriptor) *WalletEvent {
	return &WalletEvent{Kind: EventRegistered, Wallet: desc, Name: desc.Name()}
}

func UnregisteredEvent(name string) *WalletEvent {
	return &WalletEvent{Kind: EventUnregistered, Name: name}
}

func ConnectedEvent(desc *WalletDescriptor, acc *Account) *WalletEvent {
	return &WalletEvent{Kind: EventConnected, Wallet: desc, Name: desc.Name(), Account: acc}
}

func DisconnectedEvent(name string) *WalletEvent {
	return &WalletEvent{Kind: EventDisconnected, Name: name}
}

func AccountChangedEvent(desc *WalletDescriptor, acc *Account) *WalletEvent {
	return &WalletEvent{Kind: EventAccountChanged, Wallet: desc, Name: desc.Name(), Account: acc}
}

func ErrorEvent(err error) *WalletEvent {
	we := WrapError(KindOf(err), err, "")
	return &WalletEvent{Kind: EventError, Err: we}
}

func (e *WalletEvent) String() string {
	switch e.Kind {
	case EventRegistered, EventUnregistered, EventDisconnected:
		return fmt.Sprintf("%s %s", e.Kind, e.Name)
	case EventConnected, EventAccountChanged:
		if e.Account != nil {
			return fmt.Sprintf("%s %s %s", e.Kind, e.Name, e.Account.Address())
		}
	case EventError:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s", e.Kind, e.Err)
		}
	}
	return e.Kind.String()
}

// Info converts the event for transport.
func (e *WalletEvent) Info() *EventInfo {
	info := &EventInfo{Kind: e.Kind.String(), Name: e.Name}
	if e.Wallet != nil {
		info.Wallet = e.Wallet.Info()
	}
	if e.Account != nil {
		info.Account = e.Account.Info()
	}
	if e.Err != nil {
		info.ErrorKind = e.Err.Kind.String()
		info.Error = e.Err.Error()
	}
	return info
}
