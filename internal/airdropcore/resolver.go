package airdropcore

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/metrics"
)

// Resolver decides whether a caller owes the per-call fee, and how much.
// Quotes are computed per run and never cached.
type Resolver struct {
	reader         FeeReader
	nativeDecimals int
	log            *zap.Logger
}

func NewResolver(reader FeeReader, nativeDecimals int, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{reader: reader, nativeDecimals: nativeDecimals, log: log}
}

// Resolve reads the primary fee interface and falls back to the legacy
// whitelist interface when exemption cannot be read. It never guesses a
// fee: a non-exempt caller with an unreadable fee is ResolverUnavailable.
func (r *Resolver) Resolve(ctx context.Context, identity common.Address) (FeeQuote, error) {
	terms, primaryErr := r.reader.FeeTerms(ctx, identity)

	var (
		exempt  bool
		legacy  bool
		decided bool
	)
	if primaryErr == nil {
		if terms.Owner != nil && *terms.Owner == identity {
			exempt, decided = true, true
		} else if terms.Owner != nil && terms.Exempt != nil {
			exempt, decided = *terms.Exempt, true
		}
	}

	if !decided {
		lt, legacyErr := r.reader.LegacyTerms(ctx, identity)
		if legacyErr != nil {
			if primaryErr == nil {
				primaryErr = errors.New("exemption or owner read failed")
			}
			metrics.ResolverOutcomes.WithLabelValues("unavailable").Inc()
			r.log.Warn("fee resolver unavailable",
				zap.Stringer("identity", identity),
				zap.NamedError("primary", primaryErr),
				zap.NamedError("legacy", legacyErr))
			return FeeQuote{}, Errorf(KindResolverUnavailable, "eligibility for %s: primary: %v; legacy: %w", identity.Hex(), primaryErr, legacyErr)
		}
		exempt = !lt.Enabled || lt.Whitelisted
		legacy = true
	}

	quote := FeeQuote{Exempt: exempt, Legacy: legacy}
	switch {
	case primaryErr == nil && terms.Fee != nil:
		quote.Amount = new(big.Int).Set(terms.Fee)
	case exempt:
		quote.Amount = new(big.Int)
	default:
		metrics.ResolverOutcomes.WithLabelValues("unavailable").Inc()
		return FeeQuote{}, Errorf(KindResolverUnavailable, "fee for non-exempt caller %s could not be read", identity.Hex())
	}
	quote.Formatted = FormatUnits(quote.Amount, r.nativeDecimals)

	outcome := "fee_owed"
	if exempt {
		outcome = "exempt"
	}
	metrics.ResolverOutcomes.WithLabelValues(outcome).Inc()
	r.log.Info("fee resolved",
		zap.Stringer("identity", identity),
		zap.Bool("exempt", quote.Exempt),
		zap.Bool("legacy", quote.Legacy),
		zap.String("fee", quote.Formatted))
	return quote, nil
}
