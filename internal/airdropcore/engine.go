package airdropcore

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/metrics"
)

// DefaultBatchTimeout bounds the confirmation wait of one batch.
const DefaultBatchTimeout = 2 * time.Minute

type EngineConfig struct {
	BatchTimeout time.Duration
	Clock        clockwork.Clock
	// OnBatch receives every outcome as soon as it is recorded.
	OnBatch func(BatchOutcome)
	// TxURL renders explorer links for outcomes.
	TxURL func(hash string) string
}

// Engine submits batches one at a time, each blocking on confirmation
// before the next starts. Batch failures are recorded, never returned.
type Engine struct {
	chain  Chain
	ledger Ledger
	log    *zap.Logger
	cfg    EngineConfig
}

func NewEngine(chain Chain, ledger Ledger, log *zap.Logger, cfg EngineConfig) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Engine{chain: chain, ledger: ledger, log: log, cfg: cfg}
}

type RunRequest struct {
	RunID   string
	Batches []Batch
	Fee     FeeQuote
	Session *Session
	// Recipients is the original list; when nil the batches' recipients are used.
	Recipients []Recipient
}

// Run attempts every batch in order. It returns an error only when the run
// stopped early: cancellation (ErrRunCancelled) or session loss
// (ErrSessionInvalidated). The partial report is valid in both cases.
func (e *Engine) Run(ctx context.Context, req RunRequest) (DistributionReport, error) {
	if req.Session == nil {
		return DistributionReport{}, errors.New("run needs a session")
	}
	original := req.Recipients
	if original == nil {
		for _, b := range req.Batches {
			original = append(original, b.Recipients...)
		}
	}

	var (
		outcomes        = make([]BatchOutcome, 0, len(req.Batches))
		allowanceFailed = map[string]error{}
		stopErr         error
	)
	for _, b := range req.Batches {
		if stopErr == nil {
			if err := ctx.Err(); err != nil {
				stopErr = fmt.Errorf("%w before batch %d: %w", ErrRunCancelled, b.Index, err)
			} else if err := req.Session.Err(); err != nil {
				stopErr = err
			}
			if stopErr != nil {
				e.log.Warn("run stopped", zap.String("run_id", req.RunID), zap.Int("batch", b.Index), zap.Error(stopErr))
			}
		}
		var o BatchOutcome
		if stopErr != nil {
			o = BatchOutcome{BatchIndex: b.Index, Asset: b.Asset.String(), Recipients: b.Len(), Status: StatusSkipped, Error: stopErr.Error()}
		} else {
			o = e.runBatch(ctx, req, b, allowanceFailed)
		}
		e.observe(b, o)
		outcomes = append(outcomes, o)
		if e.cfg.OnBatch != nil {
			e.cfg.OnBatch(o)
		}
	}

	rep := Aggregate(outcomes, req.Batches, original, e.cfg.Clock.Now())
	rep.RunID = req.RunID
	rep.Fee = req.Fee
	if stopErr != nil {
		rep.Cancelled = errors.Is(stopErr, ErrRunCancelled)
		rep.Aborted = stopErr.Error()
	}
	return rep, stopErr
}

func (e *Engine) runBatch(ctx context.Context, req RunRequest, b Batch, allowanceFailed map[string]error) BatchOutcome {
	start := e.cfg.Clock.Now()
	o := BatchOutcome{BatchIndex: b.Index, Asset: b.Asset.String(), Recipients: b.Len()}
	log := e.log.With(
		zap.String("run_id", req.RunID),
		zap.Int("batch", b.Index),
		zap.String("asset", b.Asset.String()),
		zap.Int("recipients", b.Len()))

	total, err := sumAmounts(b.Amounts)
	if err != nil {
		return e.fail(ctx, req.RunID, b, o, NewError(KindInputValidation, err), log)
	}
	value := req.Fee.Owed()
	if b.Asset.Native {
		value.Add(value, total)
	}
	o.Value = value.String()

	if !b.Asset.Native {
		if prev, ok := allowanceFailed[b.Asset.Key()]; ok {
			return e.fail(ctx, req.RunID, b, o, prev, log)
		}
		if err := e.ensureAllowance(ctx, req.Session, b.Asset.Token, total, log); err != nil {
			aerr := NewError(KindAllowanceFailure, err)
			allowanceFailed[b.Asset.Key()] = aerr
			return e.fail(ctx, req.RunID, b, o, aerr, log)
		}
	}

	// Pending goes down before the call so a crash mid-submit holds these
	// recipients back from the next attempt.
	if err := e.settle(ctx, req.RunID, b, StatePending, "", ""); err != nil {
		return e.fail(ctx, req.RunID, b, o, fmt.Errorf("ledger: %w", err), log)
	}

	addrs := make([]common.Address, b.Len())
	for i, r := range b.Recipients {
		addrs[i] = r.Address
	}
	var hash common.Hash
	if b.Asset.Native {
		hash, err = e.chain.SubmitNative(ctx, req.Session, addrs, b.Amounts, value)
	} else {
		hash, err = e.chain.SubmitToken(ctx, req.Session, b.Asset.Token, addrs, b.Amounts, value)
	}
	// An uncertain send may still land, so it is followed like a sent one
	// and can end as unknown but never as failed-and-retryable.
	submitErr := err
	uncertain := err != nil && errors.Is(err, ErrSubmitUncertain) && hash != (common.Hash{})
	if err != nil && !uncertain {
		return e.fail(ctx, req.RunID, b, o, NewError(KindBatchSubmission, err), log)
	}
	o.TransactionHash = hash.Hex()
	o.ExplorerURL = e.txURL(o.TransactionHash)
	log = log.With(zap.String("tx", o.TransactionHash))
	if uncertain {
		log.Warn("batch submission uncertain, waiting for a receipt", zap.String("value", o.Value), zap.Error(submitErr))
	} else {
		log.Info("batch submitted", zap.String("value", o.Value))
	}
	if err := e.settle(ctx, req.RunID, b, StatePending, o.TransactionHash, ""); err != nil {
		log.Error("ledger write after submit failed", zap.Error(err))
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.cfg.BatchTimeout)
	err = e.chain.Confirm(waitCtx, hash)
	timedOut := waitCtx.Err() != nil
	cancel()
	defer func() {
		metrics.BatchDuration.WithLabelValues(metrics.AssetClass(b.Asset.Native)).Observe(e.cfg.Clock.Since(start).Seconds())
	}()

	var rev *RevertError
	switch {
	case err == nil:
		o.Status = StatusSuccess
		if lerr := e.settle(ctx, req.RunID, b, StatePaid, o.TransactionHash, ""); lerr != nil {
			log.Error("ledger write failed", zap.Error(lerr))
		}
		log.Info("batch confirmed")
		return o
	case errors.As(err, &rev):
		return e.fail(ctx, req.RunID, b, o, NewError(KindBatchSubmission, err), log)
	case uncertain || (timedOut && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))):
		o.Status = StatusUnknown
		o.Error = fmt.Sprintf("confirmation not seen within %s: %v", e.cfg.BatchTimeout, err)
		if uncertain {
			o.Error = fmt.Sprintf("%v; %s", submitErr, o.Error)
		}
		if lerr := e.settle(ctx, req.RunID, b, StateUnknown, o.TransactionHash, o.Error); lerr != nil {
			log.Error("ledger write failed", zap.Error(lerr))
		}
		log.Warn("batch outcome unknown", zap.Error(err))
		return o
	default:
		return e.fail(ctx, req.RunID, b, o, NewError(KindBatchSubmission, err), log)
	}
}

// ensureAllowance raises the distributor's allowance to at least amount.
// A non-zero allowance is reset first since some tokens (USDT) reject
// changing one non-zero allowance into another.
func (e *Engine) ensureAllowance(ctx context.Context, s *Session, token common.Address, amount *big.Int, log *zap.Logger) error {
	if err := s.Err(); err != nil {
		return err
	}
	current, err := e.chain.Allowance(ctx, token, s.Identity)
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}
	if current != nil && current.Cmp(amount) >= 0 {
		log.Debug("allowance sufficient", zap.String("allowance", current.String()))
		return nil
	}
	if current != nil && current.Sign() > 0 {
		if err := e.approve(ctx, s, token, new(big.Int), log); err != nil {
			metrics.AllowanceRaises.WithLabelValues("error").Inc()
			return fmt.Errorf("reset allowance: %w", err)
		}
	}
	if err := e.approve(ctx, s, token, amount, log); err != nil {
		metrics.AllowanceRaises.WithLabelValues("error").Inc()
		return err
	}
	metrics.AllowanceRaises.WithLabelValues("ok").Inc()
	return nil
}

func (e *Engine) approve(ctx context.Context, s *Session, token common.Address, amount *big.Int, log *zap.Logger) error {
	hash, err := e.chain.Approve(ctx, s, token, amount)
	if err != nil {
		return fmt.Errorf("approve %s: %w", amount, err)
	}
	log.Info("approval submitted", zap.String("approve_tx", hash.Hex()), zap.String("amount", amount.String()))
	waitCtx, cancel := context.WithTimeout(ctx, e.cfg.BatchTimeout)
	defer cancel()
	if err := e.chain.Confirm(waitCtx, hash); err != nil {
		return fmt.Errorf("approve %s tx %s: %w", amount, hash.Hex(), err)
	}
	return nil
}

func (e *Engine) fail(ctx context.Context, runID string, b Batch, o BatchOutcome, err error, log *zap.Logger) BatchOutcome {
	o.Status = StatusFailed
	o.Error = err.Error()
	if lerr := e.settle(ctx, runID, b, StateFailed, o.TransactionHash, o.Error); lerr != nil {
		log.Error("ledger write failed", zap.Error(lerr))
	}
	log.Warn("batch failed", zap.Error(err))
	return o
}

// settle writes one state for every recipient of b. Writes outlive
// cancellation of the run context.
func (e *Engine) settle(ctx context.Context, runID string, b Batch, state SettlementState, hash, errMsg string) error {
	if e.ledger == nil {
		return nil
	}
	now := e.cfg.Clock.Now().UTC()
	entries := make([]LedgerEntry, b.Len())
	for i, r := range b.Recipients {
		entries[i] = LedgerEntry{
			RunID:      runID,
			Key:        b.key(i),
			Address:    r.Address.Hex(),
			Asset:      b.Asset.Key(),
			Amount:     b.Amounts[i].String(),
			State:      state,
			TxHash:     hash,
			BatchIndex: b.Index,
			Error:      errMsg,
			UpdatedAt:  now,
		}
	}
	return e.ledger.Record(context.WithoutCancel(ctx), entries...)
}

func (e *Engine) observe(b Batch, o BatchOutcome) {
	metrics.BatchesTotal.WithLabelValues(metrics.AssetClass(b.Asset.Native), string(o.Status)).Inc()
	metrics.RecipientsTotal.WithLabelValues(string(o.Status)).Add(float64(b.Len()))
}

func (e *Engine) txURL(hash string) string {
	if e.cfg.TxURL == nil {
		return ""
	}
	return e.cfg.TxURL(hash)
}
