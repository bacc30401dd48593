package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies every failure the adapter reports. Callers switch on KindOf(err).
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindWalletNotFound
	KindAlreadyConnecting
	KindAlreadyConnected
	KindNotConnected
	KindFeatureNotSupported
	KindWalletConnectError
	KindProviderInvocationError
	KindInvalidAccountData
	KindSignatureVerificationFailed
	KindMalformedDiscoverySignal
	KindInvalidInput
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindWalletNotFound:
		return "WalletNotFound"
	case KindAlreadyConnecting:
		return "AlreadyConnecting"
	case KindAlreadyConnected:
		return "AlreadyConnected"
	case KindNotConnected:
		return "NotConnected"
	case KindFeatureNotSupported:
		return "FeatureNotSupported"
	case KindWalletConnectError:
		return "WalletConnectError"
	case KindProviderInvocationError:
		return "ProviderInvocationError"
	case KindInvalidAccountData:
		return "InvalidAccountData"
	case KindSignatureVerificationFailed:
		return "SignatureVerificationFailed"
	case KindMalformedDiscoverySignal:
		return "MalformedDiscoverySignal"
	case KindInvalidInput:
		return "InvalidInput"
	case KindInternal:
		return "Internal"
	}
	return "Unknown"
}

// WalletError is the single error type returned by the adapter.
type WalletError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *WalletError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *WalletError) Unwrap() error {
	return e.Err
}

// Is reports kind equality so errors.Is(err, ErrNotConnected) matches any detail.
func (e *WalletError) Is(target error) bool {
	t, ok := target.(*WalletError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrWalletNotFound              = &WalletError{Kind: KindWalletNotFound}
	ErrAlreadyConnecting           = &WalletError{Kind: KindAlreadyConnecting}
	ErrAlreadyConnected            = &WalletError{Kind: KindAlreadyConnected}
	ErrNotConnected                = &WalletError{Kind: KindNotConnected}
	ErrFeatureNotSupported         = &WalletError{Kind: KindFeatureNotSupported}
	ErrWalletConnect               = &WalletError{Kind: KindWalletConnectError}
	ErrProviderInvocation          = &WalletError{Kind: KindProviderInvocationError}
	ErrInvalidAccountData          = &WalletError{Kind: KindInvalidAccountData}
	ErrSignatureVerificationFailed = &WalletError{Kind: KindSignatureVerificationFailed}
	ErrMalformedDiscoverySignal    = &WalletError{Kind: KindMalformedDiscoverySignal}
	ErrInvalidInput                = &WalletError{Kind: KindInvalidInput}
	ErrInternal                    = &WalletError{Kind: KindInternal}
)

// NewError builds a WalletError of the given kind with a formatted detail.
func NewError(kind ErrorKind, format string, args ...interface{}) *WalletError {
	return &WalletError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind to err. A WalletError of the same kind is returned unchanged.
func WrapError(kind ErrorKind, err error, detail string) *WalletError {
	var we *WalletError
	if errors.As(err, &we) && we.Kind == kind {
		return we
	}
	return &WalletError{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the kind of err, KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnknown
}
