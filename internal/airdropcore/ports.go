package airdropcore

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks github.com/ligun0805/airdrop-engine/internal/airdropcore Chain,FeeReader,Ledger

// Chain is the on-chain surface the engine drives. Writes sign with the
// session; reads never touch it. A write that failed after its request
// may have reached the node returns the signed hash with an error wrapping
// ErrSubmitUncertain.
type Chain interface {
	// SubmitNative sends airdropNativeToken(recipients, amounts) with value attached.
	SubmitNative(ctx context.Context, s *Session, recipients []common.Address, amounts []*big.Int, value *big.Int) (common.Hash, error)
	// SubmitToken sends airdropERC20Token(token, recipients, amounts) with value (the fee) attached.
	SubmitToken(ctx context.Context, s *Session, token common.Address, recipients []common.Address, amounts []*big.Int, value *big.Int) (common.Hash, error)
	// Allowance reads token.allowance(owner, distributor).
	Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	// Approve sends token.approve(distributor, amount).
	Approve(ctx context.Context, s *Session, token common.Address, amount *big.Int) (common.Hash, error)
	// Confirm blocks until hash is mined. A reverted receipt yields *RevertError.
	Confirm(ctx context.Context, hash common.Hash) error
	Balance(ctx context.Context, owner common.Address) (*big.Int, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
}

// RevertError reports a mined transaction with status 0.
type RevertError struct {
	TxHash common.Hash
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "tx " + e.TxHash.Hex() + " reverted"
	}
	return "tx " + e.TxHash.Hex() + " reverted: " + e.Reason
}

// FeeTerms is the primary fee interface of the distributor. Nil fields
// mark reads that failed.
type FeeTerms struct {
	Exempt *bool
	Owner  *common.Address
	Fee    *big.Int
}

// LegacyTerms is the whitelist interface of older distributor deployments.
type LegacyTerms struct {
	Whitelisted bool
	Enabled     bool
}

// FeeReader reads fee and eligibility state from the distributor.
type FeeReader interface {
	// FeeTerms returns an error only when nothing could be read.
	FeeTerms(ctx context.Context, identity common.Address) (FeeTerms, error)
	LegacyTerms(ctx context.Context, identity common.Address) (LegacyTerms, error)
}

type SettlementState string

const (
	StatePending SettlementState = "pending"
	StatePaid    SettlementState = "paid"
	StateFailed  SettlementState = "failed"
	StateUnknown SettlementState = "unknown"
)

// Retryable reports whether a recipient in this state may be resubmitted.
func (s SettlementState) Retryable() bool { return s == "" || s == StateFailed }

// LedgerEntry is the settlement state of one recipient within one run.
type LedgerEntry struct {
	RunID      string          `json:"runId"`
	Key        string          `json:"key"`
	Address    string          `json:"address"`
	Asset      string          `json:"asset"`
	Amount     string          `json:"amount"`
	State      SettlementState `json:"state"`
	TxHash     string          `json:"txHash,omitempty"`
	BatchIndex int             `json:"batchIndex"`
	Error      string          `json:"error,omitempty"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Ledger persists settlement state keyed by (run id, recipient key).
type Ledger interface {
	// Lookup returns the entries present for keys; absent keys are missing from the map.
	Lookup(ctx context.Context, runID string, keys []string) (map[string]LedgerEntry, error)
	// Record upserts entries.
	Record(ctx context.Context, entries ...LedgerEntry) error
	// Entries lists a run in key order.
	Entries(ctx context.Context, runID string) ([]LedgerEntry, error)
}
