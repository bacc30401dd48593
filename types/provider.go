package types

import (
	"context"
)

// Provider is the opaque invocation handle of an announced wallet. Features are invoked by
// identifier with a JSON payload and answer with a JSON payload or a provider error.
type Provider interface {
	Invoke(ctx context.Context, feature string, payload []byte) ([]byte, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, feature string, payload []byte) ([]byte, error)

func (f ProviderFunc) Invoke(ctx context.Context, feature string, payload []byte) ([]byte, error) {
	return f(ctx, feature, payload)
}

// EventEmitter is implemented by providers supporting standard:events. The listener must not
// block; off removes it.
type EventEmitter interface {
	OnChange(listener func(*ChangeEvent)) (off func())
}

// Host is the environment providers announce themselves in.
type Host interface {
	// Listen streams announcement and unregistration signals until ctx is done.
	Listen(ctx context.Context) (<-chan *DiscoverySignal, error)
	// DispatchAppReady tells every provider the application is listening.
	DispatchAppReady(ctx context.Context) error
}

type SignalKind int

const (
	SignalRegister SignalKind = iota
	SignalUnregister
)

func (k SignalKind) String() string {
	if k == SignalUnregister {
		return "unregister"
	}
	return "register"
}

// DiscoverySignal is one provider->application discovery message.
type DiscoverySignal struct {
	Kind         SignalKind
	Announcement *WalletAnnouncement
	// Name is set for SignalUnregister.
	Name string
}

func RegisterSignal(ann *WalletAnnouncement) *DiscoverySignal {
	return &DiscoverySignal{Kind: SignalRegister, Announcement: ann}
}

func UnregisterSignal(name string) *DiscoverySignal {
	return &DiscoverySignal{Kind: SignalUnregister, Name: name}
}
