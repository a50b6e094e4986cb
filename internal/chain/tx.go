package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

// Fallback gas when estimation is unavailable: a base plus a per-recipient
// allowance by asset class.
const (
	baseGas               = 100_000
	nativeGasPerRecipient = 35_000
	tokenGasPerRecipient  = 65_000
)

// FallbackGas is the gas limit used when eth_estimateGas gives no answer.
func FallbackGas(native bool, recipients int) uint64 {
	per := uint64(tokenGasPerRecipient)
	if native {
		per = nativeGasPerRecipient
	}
	return baseGas + per*uint64(recipients)
}

// call is a prepared contract write.
type call struct {
	to       common.Address
	value    *big.Int
	data     []byte
	fallback uint64
}

// send estimates, prices, signs and broadcasts c under the session. A
// revert during estimation fails the call before anything is sent.
func (c *Client) send(ctx context.Context, s *airdropcore.Session, op string, tc call) (common.Hash, error) {
	if err := s.Err(); err != nil {
		return common.Hash{}, err
	}
	if tc.value == nil {
		tc.value = new(big.Int)
	}
	log := c.log.With(zap.String("op", op), zap.Stringer("to", tc.to))

	gas, err := c.estimateGas(ctx, ethereum.CallMsg{From: s.Identity, To: &tc.to, Value: tc.value, Data: tc.data})
	switch {
	case err == nil:
		gas += gas * uint64(c.opts.GasBufferPercent) / 100
	case Classify(err) == ClassReverted:
		return common.Hash{}, fmt.Errorf("%s would revert: %s", op, RevertReason(err))
	default:
		log.Warn("gas estimate unavailable, using fallback", zap.Uint64("gas", tc.fallback), zap.Error(err))
		gas = tc.fallback
	}

	var nonce uint64
	if err := c.do(ctx, "nonce", func(ctx context.Context) (err error) {
		nonce, err = c.eth.PendingNonceAt(ctx, s.Identity)
		return err
	}); err != nil {
		return common.Hash{}, fmt.Errorf("%s nonce: %w", op, err)
	}

	unsigned, err := c.buildTx(ctx, s.ChainID, nonce, tc.to, tc.value, gas, tc.data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s fees: %w", op, err)
	}
	signed, err := s.Signer(s.Identity, unsigned)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s sign: %w", op, err)
	}
	var attempted bool
	if err := c.once(ctx, func(ctx context.Context) error {
		attempted = true
		err := c.eth.SendTransaction(ctx, signed)
		if err != nil && alreadyKnown(err) {
			return nil
		}
		return err
	}); err != nil {
		if attempted && sendUncertain(err) {
			log.Warn("send outcome uncertain", zap.Stringer("hash", signed.Hash()), zap.Uint64("nonce", nonce), zap.Error(err))
			return signed.Hash(), fmt.Errorf("%s send %s: %w: %w", op, signed.Hash().Hex(), airdropcore.ErrSubmitUncertain, err)
		}
		return common.Hash{}, fmt.Errorf("%s send: %w", op, err)
	}
	log.Debug("tx sent", zap.Stringer("hash", signed.Hash()), zap.Uint64("nonce", nonce), zap.Uint64("gas", gas))
	return signed.Hash(), nil
}

func (c *Client) estimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := c.do(ctx, "estimate_gas", func(ctx context.Context) (err error) {
		gas, err = c.eth.EstimateGas(ctx, msg)
		return err
	})
	return gas, err
}

// buildTx prices an EIP-1559 transaction at twice the latest base fee plus
// the suggested tip, or a legacy one on chains without a base fee.
func (c *Client) buildTx(ctx context.Context, chainID *big.Int, nonce uint64, to common.Address, value *big.Int, gas uint64, data []byte) (*types.Transaction, error) {
	var head *types.Header
	if err := c.do(ctx, "header", func(ctx context.Context) (err error) {
		head, err = c.eth.HeaderByNumber(ctx, nil)
		return err
	}); err != nil {
		return nil, err
	}
	if head.BaseFee == nil {
		var price *big.Int
		if err := c.do(ctx, "gas_price", func(ctx context.Context) (err error) {
			price, err = c.eth.SuggestGasPrice(ctx)
			return err
		}); err != nil {
			return nil, err
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       &to,
			Value:    new(big.Int).Set(value),
			Data:     data,
		}), nil
	}

	var tip *big.Int
	if err := c.do(ctx, "tip_cap", func(ctx context.Context) (err error) {
		tip, err = c.eth.SuggestGasTipCap(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
	feeCap.Add(feeCap, tip)
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).Set(chainID),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     new(big.Int).Set(value),
		Data:      data,
	}), nil
}

func alreadyKnown(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already known") || strings.Contains(s, "known transaction")
}

// sendUncertain reports whether a failed eth_sendRawTransaction may still
// have been accepted: the request was cut off rather than answered.
func sendUncertain(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch Classify(err) {
	case ClassTimeout, ClassUnavailable:
		return true
	}
	return false
}
