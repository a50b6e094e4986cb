package airdropcore

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/airdrop-engine/internal/networks"
)

// Per-call recipient caps that keep a batch under the block gas limit.
const (
	NativeBatchLimit = 50
	TokenBatchLimit  = 30
)

// Limits holds the batch size per asset class.
type Limits struct {
	Native int
	Token  int
}

func DefaultLimits() Limits { return Limits{Native: NativeBatchLimit, Token: TokenBatchLimit} }

// For returns the cap for an asset, never below 1.
func (l Limits) For(a Asset) int {
	n := l.Token
	if a.Native {
		n = l.Native
	}
	if n < 1 {
		return 1
	}
	return n
}

// Partition splits items into contiguous groups of at most limit, keeping
// order. Empty input yields no groups.
func Partition[T any](items []T, limit int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}
	out := make([][]T, 0, (len(items)+limit-1)/limit)
	for i := 0; i < len(items); i += limit {
		end := i + limit
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end:end])
	}
	return out
}

// PlannedRecipient is a validated recipient bound to its settlement path.
type PlannedRecipient struct {
	Recipient
	Asset Asset
	Units *big.Int
	Key   string
}

// Plan groups recipients by settlement path in order of first appearance and
// partitions each group. Batch indexes run across groups.
func Plan(list []PlannedRecipient, limits Limits) []Batch {
	var order []string
	groups := map[string][]PlannedRecipient{}
	for _, p := range list {
		k := p.Asset.Key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], p)
	}

	var batches []Batch
	for _, k := range order {
		group := groups[k]
		asset := group[0].Asset
		for _, chunk := range Partition(group, limits.For(asset)) {
			b := Batch{
				Index:      len(batches),
				Asset:      asset,
				Recipients: make([]Recipient, len(chunk)),
				Amounts:    make([]*big.Int, len(chunk)),
				Keys:       make([]string, len(chunk)),
			}
			for i, p := range chunk {
				b.Recipients[i] = p.Recipient
				b.Amounts[i] = new(big.Int).Set(p.Units)
				b.Keys[i] = p.Key
			}
			batches = append(batches, b)
		}
	}
	return batches
}

// ResolveAsset maps a token type to a settlement path on n. runToken names
// the ERC20 token (symbol or address) for ERC20 rows. The OPN-as-native
// mapping comes only from the network's native aliases.
func ResolveAsset(n networks.Network, t TokenType, runToken string) (Asset, error) {
	native := Asset{Native: true, Symbol: n.Symbol, Decimals: n.Decimals}
	switch t {
	case TokenNative:
		return native, nil
	case TokenOPN:
		if n.IsNativeAlias(string(TokenOPN)) {
			return native, nil
		}
		return tokenAsset(n, string(TokenOPN))
	case TokenERC20:
		if strings.TrimSpace(runToken) == "" {
			return Asset{}, Errorf(KindConfiguration, "ERC20 recipients need a token (symbol or address) on chain %d", n.ChainID)
		}
		return tokenAsset(n, runToken)
	}
	return Asset{}, Errorf(KindInputValidation, "unknown token type %q", t)
}

func tokenAsset(n networks.Network, ref string) (Asset, error) {
	tok, err := n.Token(ref)
	if err != nil {
		return Asset{}, NewError(KindConfiguration, err)
	}
	return Asset{Token: common.HexToAddress(tok.Address), Symbol: tok.Symbol, Decimals: tok.Decimals}, nil
}

// RecipientKeys derives ledger keys. Repeated (address, asset, amount)
// triples get increasing occurrence suffixes so each row stays distinct.
func RecipientKeys(list []PlannedRecipient) {
	seen := map[string]int{}
	for i := range list {
		base := fmt.Sprintf("%s/%s/%s", strings.ToLower(list[i].Address.Hex()), list[i].Asset.Key(), list[i].Units.String())
		list[i].Key = fmt.Sprintf("%s#%d", base, seen[base])
		seen[base]++
	}
}
