package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/wallet-adapter/metrics"
	"github.com/ipfs-force-community/wallet-adapter/types"
)

// invoke calls feature on the connected wallet and decodes its answer into out. The provider
// call is not cancelled with ctx; the caller only stops waiting for it.
func (a *Adapter) invoke(ctx context.Context, feature string, in, out interface{}) (desc *types.WalletDescriptor, acc *types.Account, err error) {
	desc, acc, err = a.activeWallet()
	if err != nil {
		return nil, nil, err
	}
	if !desc.HasFeature(feature) {
		return nil, nil, types.NewError(types.KindFeatureNotSupported, "wallet %s does not support %s", desc.Name(), feature)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, nil, types.WrapError(types.KindInternal, err, "encode "+feature+" request")
	}

	start := time.Now()
	defer func() {
		_ = stats.RecordWithTags(ctx, []tag.Mutator{
			tag.Upsert(metrics.WalletNameKey, desc.Name()),
			tag.Upsert(metrics.FeatureKey, feature),
			tag.Upsert(metrics.ResultKey, metrics.ResultOf(err)),
		}, metrics.SignLatency.M(metrics.SinceInMilliseconds(start)))
	}()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	provider := desc.Provider()
	go func() {
		resp, err := provider.Invoke(context.WithoutCancel(ctx), feature, payload)
		done <- result{out: resp, err: err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return desc, acc, ctx.Err()
	}
	if r.err != nil {
		log.Warnw("wallet request failed", "wallet", desc.Name(), "feature", feature, "err", r.err)
		return desc, acc, types.WrapError(types.KindProviderInvocationError, r.err, feature)
	}
	if err := json.Unmarshal(r.out, out); err != nil {
		return desc, acc, types.WrapError(types.KindProviderInvocationError, err, "malformed "+feature+" response")
	}
	return desc, acc, nil
}

// SignMessage asks the wallet to sign message with the active account and verifies the
// signature over the bytes the wallet reports signing.
func (a *Adapter) SignMessage(ctx context.Context, message []byte) (*types.SignMessageOutput, error) {
	_, acc, err := a.activeWallet()
	if err != nil {
		return nil, err
	}
	if len(message) == 0 {
		return nil, types.NewError(types.KindInvalidInput, "message is empty")
	}
	in := types.SignMessageInput{
		Account: types.WireAccountOf(acc),
		Message: append([]byte(nil), message...),
	}
	var out types.SignMessageOutput
	if _, acc, err = a.invoke(ctx, types.SolanaSignMessage, in, &out); err != nil {
		return nil, err
	}
	if err := types.VerifySignature(acc.PublicKey(), out.SignedMessage, out.Signature); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Adapter) checkCluster(cluster types.Cluster) error {
	if _, err := types.ParseCluster(cluster.String()); err != nil {
		return types.WrapError(types.KindInvalidInput, err, "")
	}
	ok, err := a.SupportsCluster(cluster)
	if err != nil {
		return err
	}
	if !ok {
		return types.NewError(types.KindFeatureNotSupported, "wallet does not support %s", cluster)
	}
	return nil
}

// SignTransaction returns the signed transaction without broadcasting it. cluster is optional.
func (a *Adapter) SignTransaction(ctx context.Context, tx []byte, cluster *types.Cluster) ([]byte, error) {
	_, acc, err := a.activeWallet()
	if err != nil {
		return nil, err
	}
	if len(tx) == 0 {
		return nil, types.NewError(types.KindInvalidInput, "transaction is empty")
	}
	in := types.SignTransactionInput{
		Account:     types.WireAccountOf(acc),
		Transaction: append([]byte(nil), tx...),
	}
	if cluster != nil {
		if err := a.checkCluster(*cluster); err != nil {
			return nil, err
		}
		in.Chain = cluster.String()
	}

	var out types.SignTransactionOutput
	if _, _, err := a.invoke(ctx, types.SolanaSignTransaction, in, &out); err != nil {
		return nil, err
	}
	if len(out.SignedTransaction) == 0 {
		return nil, types.NewError(types.KindProviderInvocationError, "wallet returned an empty transaction")
	}
	return out.SignedTransaction, nil
}

// SignAndSendTransaction signs tx and lets the wallet submit it. Wallet failures are returned
// as is; nothing is retried here.
func (a *Adapter) SignAndSendTransaction(ctx context.Context, tx []byte, cluster types.Cluster, opts *types.SendOptions) (solana.Signature, error) {
	_, acc, err := a.activeWallet()
	if err != nil {
		return solana.Signature{}, err
	}
	if len(tx) == 0 {
		return solana.Signature{}, types.NewError(types.KindInvalidInput, "transaction is empty")
	}
	if err := opts.Validate(); err != nil {
		return solana.Signature{}, err
	}
	if err := a.checkCluster(cluster); err != nil {
		return solana.Signature{}, err
	}
	in := types.SignAndSendTransactionInput{
		Account:     types.WireAccountOf(acc),
		Transaction: append([]byte(nil), tx...),
		Chain:       cluster.String(),
		Options:     opts,
	}

	var out types.SignAndSendTransactionOutput
	if _, _, err := a.invoke(ctx, types.SolanaSignAndSendTransaction, in, &out); err != nil {
		return solana.Signature{}, err
	}
	if len(out.Signature) != solana.SignatureLength {
		return solana.Signature{}, types.NewError(types.KindProviderInvocationError,
			"wallet returned a %d byte signature", len(out.Signature))
	}
	return solana.SignatureFromBytes(out.Signature), nil
}

// SignIn runs the sign-in flow and verifies the answer against publicKey. A zero publicKey
// verifies against the active account.
func (a *Adapter) SignIn(ctx context.Context, input *types.SigninInput, publicKey solana.PublicKey) (*types.SigninOutput, error) {
	_, acc, err := a.activeWallet()
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := a.checkCluster(input.Cluster()); err != nil {
		return nil, err
	}
	if publicKey == (solana.PublicKey{}) {
		publicKey = acc.PublicKey()
	}
	req := *input
	req.Resources = append([]string(nil), input.Resources...)

	var resp types.SignInResponse
	desc, _, err := a.invoke(ctx, types.SolanaSignIn, types.SignInRequest{Input: &req}, &resp)
	if err != nil {
		return nil, err
	}
	out := &types.SigninOutput{
		Input: input,
		Account: &types.AccountInfo{
			Address:   resp.Account.Address,
			PublicKey: resp.Account.PublicKey,
			Label:     resp.Account.Label,
			Chains:    resp.Account.Chains,
			Wallet:    desc.Name(),
		},
		SignedMessage: resp.SignedMessage,
		Signature:     resp.Signature,
	}
	if err := types.VerifySignIn(out, publicKey); err != nil {
		log.Warnw("sign in verification failed", "wallet", desc.Name(), "err", err)
		return nil, err
	}
	return out, nil
}
