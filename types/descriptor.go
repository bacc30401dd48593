package types

import (
	"encoding/hex"
	"sort"
	"strings"

	"lukechampine.com/blake3"
)

// WalletAnnouncement is what a provider broadcasts about itself.
type WalletAnnouncement struct {
	Name     string
	Icon     string
	Version  string
	Chains   []string
	Features []string

	Provider Provider `json:"-"`
}

// WalletKey is the registry key of a wallet: blake3 of its lowercase name.
type WalletKey [32]byte

func KeyOf(name string) WalletKey {
	return blake3.Sum256([]byte(strings.ToLower(strings.TrimSpace(name))))
}

func (k WalletKey) String() string {
	return hex.EncodeToString(k[:])
}

// WalletDescriptor is the immutable description of an announced wallet.
type WalletDescriptor struct {
	key      WalletKey
	name     string
	icon     string
	version  string
	clusters []Cluster
	features map[string]struct{}
	provider Provider
}

// NewWalletDescriptor validates an announcement. Any failure is MalformedDiscoverySignal.
func NewWalletDescriptor(ann *WalletAnnouncement) (*WalletDescriptor, error) {
	if ann == nil {
		return nil, NewError(KindMalformedDiscoverySignal, "empty announcement")
	}
	name := strings.TrimSpace(ann.Name)
	if name == "" {
		return nil, NewError(KindMalformedDiscoverySignal, "wallet name is empty")
	}

	features := make(map[string]struct{}, len(ann.Features))
	for _, f := range ann.Features {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		features[f] = struct{}{}
	}
	if len(features) == 0 {
		return nil, NewError(KindMalformedDiscoverySignal, "wallet %s announced no features", name)
	}

	seen := make(map[Cluster]struct{}, len(ann.Chains))
	clusters := make([]Cluster, 0, len(ann.Chains))
	for _, chain := range ann.Chains {
		c, err := ParseCluster(chain)
		if err != nil {
			return nil, WrapError(KindMalformedDiscoverySignal, err, "wallet "+name)
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		clusters = append(clusters, c)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].order() < clusters[j].order() })

	return &WalletDescriptor{
		key:      KeyOf(name),
		name:     name,
		icon:     ann.Icon,
		version:  ann.Version,
		clusters: clusters,
		features: features,
		provider: ann.Provider,
	}, nil
}

func (w *WalletDescriptor) Key() WalletKey { return w.key }

func (w *WalletDescriptor) Name() string { return w.name }

func (w *WalletDescriptor) Icon() string { return w.icon }

func (w *WalletDescriptor) Version() string { return w.version }

func (w *WalletDescriptor) Provider() Provider { return w.provider }

// Clusters returns a copy of the supported clusters in canonical order.
func (w *WalletDescriptor) Clusters() []Cluster {
	out := make([]Cluster, len(w.clusters))
	copy(out, w.clusters)
	return out
}

// Features returns the sorted feature identifiers.
func (w *WalletDescriptor) Features() []string {
	out := make([]string, 0, len(w.features))
	for f := range w.features {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (w *WalletDescriptor) HasFeature(feature string) bool {
	_, ok := w.features[feature]
	return ok
}

func (w *WalletDescriptor) SupportsCluster(c Cluster) bool {
	for _, cluster := range w.clusters {
		if cluster == c {
			return true
		}
	}
	return false
}

// Info is the serializable view of the descriptor.
func (w *WalletDescriptor) Info() *WalletInfo {
	chains := make([]string, len(w.clusters))
	for i, c := range w.clusters {
		chains[i] = c.String()
	}
	return &WalletInfo{
		Name:     w.name,
		Icon:     w.icon,
		Version:  w.version,
		Chains:   chains,
		Features: w.Features(),
	}
}
