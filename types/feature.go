package types

// WalletStandardVersion is the version of the wallet standard spoken with providers.
const WalletStandardVersion = "1.0.0"

// Feature identifiers a provider may announce. Providers are invoked by these names.
const (
	StandardConnect    = "standard:connect"
	StandardDisconnect = "standard:disconnect"
	StandardEvents     = "standard:events"

	SolanaSignMessage            = "solana:signMessage"
	SolanaSignTransaction        = "solana:signTransaction"
	SolanaSignAndSendTransaction = "solana:signAndSendTransaction"
	SolanaSignIn                 = "solana:signIn"
)

// Methods used on the remote wallet channel that are not features.
const (
	MethodInitConnect = "InitConnect"
	MethodAppReady    = "AppReady"
)
