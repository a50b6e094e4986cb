package networks

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrNoDistributor  = errors.New("no distributor deployment for network")
	ErrUnknownToken   = errors.New("unknown token")
)

// Token is an ERC-20 known on a network.
type Token struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// Network describes one EVM chain the distributor can run on.
type Network struct {
	ChainID       uint64   `yaml:"chain_id"`
	Name          string   `yaml:"name"`
	Symbol        string   `yaml:"symbol"`
	Decimals      int      `yaml:"decimals"`
	RPCURL        string   `yaml:"rpc_url"`
	Explorer      string   `yaml:"explorer"`
	Distributor   string   `yaml:"distributor"`
	NativeAliases []string `yaml:"native_aliases"`
	// PrimaryTokenType is what recipients default to when their row names no token type.
	PrimaryTokenType string  `yaml:"primary_token_type"`
	Tokens           []Token `yaml:"tokens"`
}

// TxURL renders the explorer link for a transaction hash.
func (n Network) TxURL(hash string) string {
	base := strings.TrimRight(strings.TrimSpace(n.Explorer), "/")
	if base == "" || hash == "" {
		return ""
	}
	return base + "/tx/" + hash
}

// DistributorAddress returns the airdrop contract deployment, rejecting
// empty and placeholder values.
func (n Network) DistributorAddress() (common.Address, error) {
	s := strings.TrimSpace(n.Distributor)
	if s == "" || strings.Contains(strings.ToUpper(s), "YOUR_") {
		return common.Address{}, fmt.Errorf("%w %d (%s)", ErrNoDistributor, n.ChainID, n.Name)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w %d: malformed address %q", ErrNoDistributor, n.ChainID, s)
	}
	return common.HexToAddress(s), nil
}

// IsNativeAlias reports whether symbol settles as the chain's native coin.
func (n Network) IsNativeAlias(symbol string) bool {
	for _, a := range n.NativeAliases {
		if strings.EqualFold(a, symbol) {
			return true
		}
	}
	return false
}

// PrimaryType returns the default token type for rows without one.
func (n Network) PrimaryType() string {
	if t := strings.TrimSpace(n.PrimaryTokenType); t != "" {
		return strings.ToUpper(t)
	}
	return "NATIVE"
}

// Token looks a token up by symbol or by hex address. Unknown hex addresses
// resolve with Decimals 0, leaving the caller to read decimals on chain.
func (n Network) Token(ref string) (Token, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Token{}, fmt.Errorf("%w: empty reference", ErrUnknownToken)
	}
	for _, t := range n.Tokens {
		if strings.EqualFold(t.Symbol, ref) || strings.EqualFold(t.Address, ref) {
			if !common.IsHexAddress(t.Address) {
				return Token{}, fmt.Errorf("%w: %s has no deployment on chain %d", ErrUnknownToken, t.Symbol, n.ChainID)
			}
			return t, nil
		}
	}
	if common.IsHexAddress(ref) {
		return Token{Address: common.HexToAddress(ref).Hex()}, nil
	}
	return Token{}, fmt.Errorf("%w: %s on chain %d", ErrUnknownToken, ref, n.ChainID)
}

// Registry indexes networks by chain id.
type Registry struct {
	byID map[uint64]Network
}

// File is the on-disk overlay format.
type File struct {
	Networks []Network `yaml:"networks"`
}

func NewRegistry(list ...Network) *Registry {
	r := &Registry{byID: make(map[uint64]Network, len(list))}
	for _, n := range list {
		r.byID[n.ChainID] = n
	}
	return r
}

// Default returns the built-in networks.
func Default() *Registry { return NewRegistry(builtin()...) }

// Load returns the built-in networks overlaid with the YAML file at path.
// An empty path yields the defaults.
func Load(path string) (*Registry, error) {
	r := Default()
	if strings.TrimSpace(path) == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read networks file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse networks file %s: %w", path, err)
	}
	for _, n := range f.Networks {
		if n.ChainID == 0 {
			return nil, fmt.Errorf("networks file %s: entry %q has no chain_id", path, n.Name)
		}
		r.Merge(n)
	}
	return r, nil
}

// Merge overlays non-zero fields of n onto the registered network with the
// same chain id. Tokens merge by symbol.
func (r *Registry) Merge(n Network) {
	cur, ok := r.byID[n.ChainID]
	if !ok {
		if n.Decimals == 0 {
			n.Decimals = 18
		}
		r.byID[n.ChainID] = n
		return
	}
	if n.Name != "" {
		cur.Name = n.Name
	}
	if n.Symbol != "" {
		cur.Symbol = n.Symbol
	}
	if n.Decimals != 0 {
		cur.Decimals = n.Decimals
	}
	if n.RPCURL != "" {
		cur.RPCURL = n.RPCURL
	}
	if n.Explorer != "" {
		cur.Explorer = n.Explorer
	}
	if n.Distributor != "" {
		cur.Distributor = n.Distributor
	}
	if len(n.NativeAliases) > 0 {
		cur.NativeAliases = n.NativeAliases
	}
	if n.PrimaryTokenType != "" {
		cur.PrimaryTokenType = n.PrimaryTokenType
	}
	for _, t := range n.Tokens {
		replaced := false
		for i := range cur.Tokens {
			if strings.EqualFold(cur.Tokens[i].Symbol, t.Symbol) {
				cur.Tokens[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			cur.Tokens = append(cur.Tokens, t)
		}
	}
	r.byID[n.ChainID] = cur
}

// Lookup returns the network for chainID.
func (r *Registry) Lookup(chainID uint64) (Network, error) {
	n, ok := r.byID[chainID]
	if !ok {
		return Network{}, fmt.Errorf("%w: chain id %d", ErrUnknownNetwork, chainID)
	}
	return n, nil
}

// All returns the networks sorted by chain id.
func (r *Registry) All() []Network {
	out := make([]Network, 0, len(r.byID))
	for _, n := range r.byID {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}
