package airdropcore

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenType is the symbolic asset a recipient row asks for.
type TokenType string

const (
	TokenNative TokenType = "NATIVE"
	TokenOPN    TokenType = "OPN"
	TokenERC20  TokenType = "ERC20"
)

// ParseTokenType is case-insensitive. An empty string yields def.
func ParseTokenType(s string, def TokenType) (TokenType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	switch t := TokenType(s); t {
	case TokenNative, TokenOPN, TokenERC20:
		return t, nil
	}
	return "", NewError(KindInputValidation, fmt.Errorf("unknown token type %q", s))
}

// Source tells where a recipient came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceCSV    Source = "csv"
)

// Recipient is one distribution target. Amount stays a decimal string until
// the asset's precision is known.
type Recipient struct {
	Address   common.Address `json:"address"`
	Amount    string         `json:"amount"`
	TokenType TokenType      `json:"tokenType"`
	Source    Source         `json:"source"`
	// Line is the 1-based CSV line, 0 for manual entries.
	Line int `json:"line,omitempty"`
}

// Asset is a settlement path: the native coin or one token contract.
type Asset struct {
	Native   bool
	Token    common.Address
	Symbol   string
	Decimals int
}

// Key identifies the settlement path for grouping and ledger keys.
func (a Asset) Key() string {
	if a.Native {
		return "native"
	}
	return strings.ToLower(a.Token.Hex())
}

func (a Asset) String() string {
	if a.Native {
		if a.Symbol != "" {
			return a.Symbol + " (native)"
		}
		return "native"
	}
	if a.Symbol != "" {
		return a.Symbol + " " + a.Token.Hex()
	}
	return a.Token.Hex()
}

// Batch is an immutable group of recipients settled in one call.
type Batch struct {
	Index      int
	Asset      Asset
	Recipients []Recipient
	// Amounts holds each recipient's amount in the asset's smallest unit.
	Amounts []*big.Int
	// Keys holds each recipient's ledger key.
	Keys []string
}

func (b Batch) Len() int { return len(b.Recipients) }

func (b Batch) key(i int) string {
	if i < len(b.Keys) && b.Keys[i] != "" {
		return b.Keys[i]
	}
	return fmt.Sprintf("%s/%s/%s#b%d.%d", strings.ToLower(b.Recipients[i].Address.Hex()), b.Asset.Key(), b.Amounts[i], b.Index, i)
}

// FeeQuote is the per-call service fee for one run.
type FeeQuote struct {
	Amount    *big.Int `json:"amount"`
	Formatted string   `json:"formatted"`
	Exempt    bool     `json:"exempt"`
	// Legacy is set when eligibility came from the whitelist interface.
	Legacy bool `json:"legacy,omitempty"`
}

// Owed is what gets attached per call.
func (q FeeQuote) Owed() *big.Int {
	if q.Exempt || q.Amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(q.Amount)
}

type BatchStatus string

const (
	StatusSuccess BatchStatus = "success"
	StatusFailed  BatchStatus = "failed"
	// StatusUnknown marks a batch whose confirmation wait timed out. The
	// transaction may still land and needs reconciliation.
	StatusUnknown BatchStatus = "unknown"
	StatusSkipped BatchStatus = "skipped"
)

func (s BatchStatus) IsValid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusUnknown, StatusSkipped:
		return true
	}
	return false
}

// BatchOutcome is recorded once per batch.
type BatchOutcome struct {
	BatchIndex      int         `json:"batchIndex"`
	TransactionHash string      `json:"transactionHash,omitempty"`
	Status          BatchStatus `json:"status"`
	Error           string      `json:"error,omitempty"`
	Asset           string      `json:"asset,omitempty"`
	Recipients      int         `json:"recipients"`
	Value           string      `json:"value,omitempty"`
	ExplorerURL     string      `json:"explorerUrl,omitempty"`
}

// SettledRecipient is a recipient plus where it ended up.
type SettledRecipient struct {
	Recipient
	TxHash     string `json:"txHash,omitempty"`
	BatchIndex int    `json:"batchIndex"`
	Error      string `json:"error,omitempty"`
	// Carried marks entries settled by an earlier attempt of the same run.
	Carried bool `json:"carried,omitempty"`
}

// DistributionReport is the receipt of one run.
type DistributionReport struct {
	RunID        string             `json:"runId"`
	Total        int                `json:"total"`
	Successful   []SettledRecipient `json:"successful"`
	Failed       []SettledRecipient `json:"failed"`
	Unknown      []SettledRecipient `json:"unknown"`
	Skipped      []SettledRecipient `json:"skipped"`
	Transactions []BatchOutcome     `json:"transactions"`
	Timestamp    time.Time          `json:"timestamp"`
	Cancelled    bool               `json:"cancelled,omitempty"`
	Aborted      string             `json:"aborted,omitempty"`
	Fee          FeeQuote           `json:"fee"`
}
