package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"github.com/lmittmann/w3/w3types"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

// FeeTerms reads isFeeExempt, owner and getFeeInfo in one batch. Reads that
// fail individually come back nil; an error means none succeeded.
func (c *Client) FeeTerms(ctx context.Context, identity common.Address) (airdropcore.FeeTerms, error) {
	if c.opts.Distributor == (common.Address{}) {
		return airdropcore.FeeTerms{}, errNoDistributor
	}
	var (
		exempt bool
		owner  common.Address
		fee    big.Int
	)
	calls := []w3types.RPCCaller{
		eth.CallFunc(c.opts.Distributor, funcIsFeeExempt, identity).Returns(&exempt),
		eth.CallFunc(c.opts.Distributor, funcOwner).Returns(&owner),
		eth.CallFunc(c.opts.Distributor, funcGetFeeInfo).Returns(&fee),
	}
	failed, err := c.batch(ctx, "fee_terms", calls)
	if err != nil {
		return airdropcore.FeeTerms{}, err
	}

	var out airdropcore.FeeTerms
	if failed[0] == nil {
		out.Exempt = &exempt
	}
	if failed[1] == nil {
		out.Owner = &owner
	}
	if failed[2] == nil {
		out.Fee = &fee
	}
	if out.Exempt == nil && out.Owner == nil && out.Fee == nil {
		return out, fmt.Errorf("fee terms: %w", errors.Join(failed...))
	}
	return out, nil
}

// LegacyTerms reads isWhitelisted and whitelistEnabled from older
// deployments. Both reads must succeed.
func (c *Client) LegacyTerms(ctx context.Context, identity common.Address) (airdropcore.LegacyTerms, error) {
	if c.opts.Distributor == (common.Address{}) {
		return airdropcore.LegacyTerms{}, errNoDistributor
	}
	var out airdropcore.LegacyTerms
	calls := []w3types.RPCCaller{
		eth.CallFunc(c.opts.Distributor, funcIsWhitelisted, identity).Returns(&out.Whitelisted),
		eth.CallFunc(c.opts.Distributor, funcWhitelistEnabled).Returns(&out.Enabled),
	}
	failed, err := c.batch(ctx, "legacy_terms", calls)
	if err != nil {
		return airdropcore.LegacyTerms{}, err
	}
	if err := errors.Join(failed...); err != nil {
		return airdropcore.LegacyTerms{}, fmt.Errorf("legacy terms: %w", err)
	}
	return out, nil
}

// batch sends calls as one JSON-RPC batch. Per-call failures are returned
// positionally; err is set only when the batch itself failed.
func (c *Client) batch(ctx context.Context, op string, calls []w3types.RPCCaller) ([]error, error) {
	failed := make([]error, len(calls))
	err := c.do(ctx, op, func(ctx context.Context) error {
		clear(failed)
		err := c.w3.CallCtx(ctx, calls...)
		var callErrs w3.CallErrors
		if errors.As(err, &callErrs) {
			copy(failed, callErrs)
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return failed, nil
}
