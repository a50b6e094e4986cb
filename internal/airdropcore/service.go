package airdropcore

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/metrics"
	"github.com/ligun0805/airdrop-engine/internal/networks"
)

type ServiceConfig struct {
	Limits Limits
	// Token is the ERC20 token (symbol or address) used by ERC20 rows.
	Token        string
	BatchTimeout time.Duration
	Clock        clockwork.Clock
	OnBatch      func(BatchOutcome)
}

// Service wires resolver, batcher, engine and ledger into one distribution
// flow on a single network.
type Service struct {
	network  networks.Network
	chain    Chain
	resolver *Resolver
	ledger   Ledger
	engine   *Engine
	cfg      ServiceConfig
	log      *zap.Logger
}

func NewService(network networks.Network, chain Chain, reader FeeReader, ledger Ledger, log *zap.Logger, cfg ServiceConfig) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Limits == (Limits{}) {
		cfg.Limits = DefaultLimits()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Service{
		network:  network,
		chain:    chain,
		resolver: NewResolver(reader, network.Decimals, log),
		ledger:   ledger,
		engine: NewEngine(chain, ledger, log, EngineConfig{
			BatchTimeout: cfg.BatchTimeout,
			Clock:        cfg.Clock,
			OnBatch:      cfg.OnBatch,
			TxURL:        network.TxURL,
		}),
		cfg: cfg,
		log: log,
	}
}

// RunPlan is everything fixed before the first batch goes out.
type RunPlan struct {
	RunID   string
	Batches []Batch
	Fee     FeeQuote
	// Recipients are the ones this attempt will submit.
	Recipients []Recipient
	// Paid were settled by an earlier attempt of the same run.
	Paid []SettledRecipient
	// Held are pending or unknown from an earlier attempt and wait for reconciliation.
	Held []SettledRecipient
	// NativeValue is the native coin the run attaches in total, fees included.
	NativeValue *big.Int
	// TokenTotals maps token address to the total it transfers.
	TokenTotals map[common.Address]*big.Int
}

// Prepare validates configuration, resolves assets and the fee, filters out
// recipients already handled by runID, and partitions the rest. Any error
// here aborts the run before a batch is submitted.
func (s *Service) Prepare(ctx context.Context, sess *Session, runID string, list []Recipient) (*RunPlan, error) {
	if _, err := s.network.DistributorAddress(); err != nil {
		return nil, NewError(KindConfiguration, err)
	}
	if sess == nil {
		return nil, errors.New("prepare needs a session")
	}
	if err := sess.Err(); err != nil {
		return nil, err
	}
	if sess.ChainID.Uint64() != s.network.ChainID {
		return nil, Errorf(KindConfiguration, "session is on chain %s, distributor configured for %d", sess.ChainID, s.network.ChainID)
	}

	planned, err := s.resolveAll(ctx, list)
	if err != nil {
		return nil, err
	}
	RecipientKeys(planned)

	plan := &RunPlan{RunID: runID, TokenTotals: map[common.Address]*big.Int{}}
	todo, err := s.filterSettled(ctx, runID, planned, plan)
	if err != nil {
		return nil, err
	}

	quote, err := s.resolver.Resolve(ctx, sess.Identity)
	if err != nil {
		return nil, err
	}
	plan.Fee = quote
	plan.Batches = Plan(todo, s.cfg.Limits)
	for _, p := range todo {
		plan.Recipients = append(plan.Recipients, p.Recipient)
	}

	native := new(big.Int)
	for _, b := range plan.Batches {
		total, err := sumAmounts(b.Amounts)
		if err != nil {
			return nil, NewError(KindInputValidation, err)
		}
		native.Add(native, quote.Owed())
		if b.Asset.Native {
			native.Add(native, total)
			continue
		}
		cur, ok := plan.TokenTotals[b.Asset.Token]
		if !ok {
			cur = new(big.Int)
			plan.TokenTotals[b.Asset.Token] = cur
		}
		cur.Add(cur, total)
	}
	plan.NativeValue = native

	if len(plan.Batches) > 0 {
		bal, err := s.chain.Balance(ctx, sess.Identity)
		if err != nil {
			return nil, fmt.Errorf("read signer balance: %w", err)
		}
		if bal.Cmp(native) < 0 {
			return nil, Errorf(KindInsufficientFunds, "balance %s %s, run needs %s %s (fees included)",
				FormatUnits(bal, s.network.Decimals), s.network.Symbol,
				FormatUnits(native, s.network.Decimals), s.network.Symbol)
		}
	}
	s.log.Info("run prepared",
		zap.String("run_id", runID),
		zap.Int("batches", len(plan.Batches)),
		zap.Int("recipients", len(plan.Recipients)),
		zap.Int("carried_paid", len(plan.Paid)),
		zap.Int("held", len(plan.Held)),
		zap.String("native_value", plan.NativeValue.String()))
	return plan, nil
}

// Execute runs a prepared plan. The error is non-nil only when the run
// stopped early; the report covers every recipient either way.
func (s *Service) Execute(ctx context.Context, sess *Session, plan *RunPlan) (DistributionReport, error) {
	rep, err := s.engine.Run(ctx, RunRequest{
		RunID:      plan.RunID,
		Batches:    plan.Batches,
		Fee:        plan.Fee,
		Session:    sess,
		Recipients: plan.Recipients,
	})
	rep.RunID = plan.RunID
	rep.Fee = plan.Fee
	rep.carry(plan.Paid, plan.Held)

	result := "completed"
	switch {
	case errors.Is(err, ErrRunCancelled):
		result = "cancelled"
	case err != nil:
		result = "aborted"
	}
	metrics.RunsTotal.WithLabelValues(result).Inc()
	return rep, err
}

// Distribute is Prepare followed by Execute.
func (s *Service) Distribute(ctx context.Context, sess *Session, runID string, list []Recipient) (DistributionReport, error) {
	plan, err := s.Prepare(ctx, sess, runID, list)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("rejected").Inc()
		return DistributionReport{}, err
	}
	return s.Execute(ctx, sess, plan)
}

// Quote resolves the fee for identity without planning a run.
func (s *Service) Quote(ctx context.Context, identity common.Address) (FeeQuote, error) {
	return s.resolver.Resolve(ctx, identity)
}

func (s *Service) resolveAll(ctx context.Context, list []Recipient) ([]PlannedRecipient, error) {
	decimals := map[common.Address]int{}
	out := make([]PlannedRecipient, 0, len(list))
	for i, r := range list {
		if err := ValidateRecipient(r); err != nil {
			return nil, Errorf(KindInputValidation, "recipient %d (%s): %w", i+1, r.Address.Hex(), err)
		}
		asset, err := ResolveAsset(s.network, r.TokenType, s.cfg.Token)
		if err != nil {
			return nil, err
		}
		if !asset.Native {
			d, ok := decimals[asset.Token]
			if !ok {
				d, err = s.tokenDecimals(ctx, asset)
				if err != nil {
					return nil, err
				}
				decimals[asset.Token] = d
			}
			asset.Decimals = d
		}
		units, err := ParseUnits(r.Amount, asset.Decimals)
		if err != nil {
			return nil, Errorf(KindInputValidation, "recipient %d (%s): %w", i+1, r.Address.Hex(), err)
		}
		out = append(out, PlannedRecipient{Recipient: r, Asset: asset, Units: units})
	}
	return out, nil
}

// tokenDecimals prefers the token's own decimals() over the registry.
func (s *Service) tokenDecimals(ctx context.Context, asset Asset) (int, error) {
	d, err := s.chain.TokenDecimals(ctx, asset.Token)
	if err == nil {
		return int(d), nil
	}
	if asset.Decimals > 0 {
		s.log.Warn("decimals() failed, using registry value",
			zap.Stringer("token", asset.Token), zap.Int("decimals", asset.Decimals), zap.Error(err))
		return asset.Decimals, nil
	}
	return 0, Errorf(KindConfiguration, "decimals of token %s: %w", asset.Token.Hex(), err)
}

func (s *Service) filterSettled(ctx context.Context, runID string, planned []PlannedRecipient, plan *RunPlan) ([]PlannedRecipient, error) {
	if s.ledger == nil || len(planned) == 0 {
		return planned, nil
	}
	keys := make([]string, len(planned))
	for i, p := range planned {
		keys[i] = p.Key
	}
	seen, err := s.ledger.Lookup(ctx, runID, keys)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	todo := planned[:0:0]
	for _, p := range planned {
		e, ok := seen[p.Key]
		if !ok || e.State.Retryable() {
			todo = append(todo, p)
			continue
		}
		sr := SettledRecipient{Recipient: p.Recipient, TxHash: e.TxHash, BatchIndex: e.BatchIndex, Error: e.Error}
		if e.State == StatePaid {
			plan.Paid = append(plan.Paid, sr)
		} else {
			switch {
			case sr.Error != "":
			case e.TxHash == "":
				sr.Error = "no transaction recorded (" + string(e.State) + "); release after checking the signer's nonce history"
			default:
				sr.Error = "awaiting reconciliation (" + string(e.State) + ")"
			}
			plan.Held = append(plan.Held, sr)
		}
	}
	return todo, nil
}

// ReconcileResult counts what a reconciliation pass changed.
type ReconcileResult struct {
	Paid      int
	Failed    int
	Unchanged int
}

// Reconcile re-checks pending and unknown entries of runID that carry a
// transaction hash and settles them as paid or failed. Entries without a
// hash are left for ReleaseUnsent.
func (s *Service) Reconcile(ctx context.Context, runID string, wait time.Duration) (ReconcileResult, error) {
	var res ReconcileResult
	if s.ledger == nil {
		return res, errors.New("no ledger configured")
	}
	entries, err := s.ledger.Entries(ctx, runID)
	if err != nil {
		return res, fmt.Errorf("ledger entries: %w", err)
	}
	byHash := map[string][]LedgerEntry{}
	for _, e := range entries {
		if e.State != StatePending && e.State != StateUnknown {
			continue
		}
		if e.TxHash == "" {
			res.Unchanged++
			continue
		}
		byHash[e.TxHash] = append(byHash[e.TxHash], e)
	}
	hashes := make([]string, 0, len(byHash))
	for h := range byHash {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	for _, h := range hashes {
		group := byHash[h]
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		err := s.chain.Confirm(waitCtx, common.HexToHash(h))
		cancel()

		var state SettlementState
		var rev *RevertError
		switch {
		case err == nil:
			state = StatePaid
		case errors.As(err, &rev):
			state = StateFailed
		default:
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.log.Info("tx still unresolved", zap.String("run_id", runID), zap.String("tx", h), zap.Error(err))
			res.Unchanged += len(group)
			continue
		}
		now := s.cfg.Clock.Now().UTC()
		for i := range group {
			group[i].State = state
			group[i].UpdatedAt = now
			if rev != nil {
				group[i].Error = rev.Error()
			} else {
				group[i].Error = ""
			}
		}
		if err := s.ledger.Record(ctx, group...); err != nil {
			return res, fmt.Errorf("ledger record: %w", err)
		}
		if state == StatePaid {
			res.Paid += len(group)
		} else {
			res.Failed += len(group)
		}
		s.log.Info("tx reconciled", zap.String("run_id", runID), zap.String("tx", h), zap.String("state", string(state)), zap.Int("recipients", len(group)))
	}
	return res, nil
}

// releasedUnsent is the error recorded on entries freed by ReleaseUnsent.
const releasedUnsent = "released: no transaction was recorded for this entry"

// ReleaseUnsent marks pending and unknown entries of runID that never got a
// transaction hash as failed, so the next run pays them. It is only safe
// once the signer's nonce history shows nothing from the interrupted batch
// was mined. It returns how many entries were released.
func (s *Service) ReleaseUnsent(ctx context.Context, runID string) (int, error) {
	if s.ledger == nil {
		return 0, errors.New("no ledger configured")
	}
	entries, err := s.ledger.Entries(ctx, runID)
	if err != nil {
		return 0, fmt.Errorf("ledger entries: %w", err)
	}
	now := s.cfg.Clock.Now().UTC()
	var released []LedgerEntry
	for _, e := range entries {
		if (e.State != StatePending && e.State != StateUnknown) || e.TxHash != "" {
			continue
		}
		e.State = StateFailed
		e.Error = releasedUnsent
		e.UpdatedAt = now
		released = append(released, e)
	}
	if len(released) == 0 {
		return 0, nil
	}
	if err := s.ledger.Record(ctx, released...); err != nil {
		return 0, fmt.Errorf("ledger record: %w", err)
	}
	s.log.Warn("released unsent entries", zap.String("run_id", runID), zap.Int("recipients", len(released)))
	return len(released), nil
}
