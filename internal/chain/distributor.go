package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

var errNoDistributor = errors.New("client has no distributor address")

// SubmitNative sends airdropNativeToken(recipients, amounts) carrying value.
func (c *Client) SubmitNative(ctx context.Context, s *airdropcore.Session, recipients []common.Address, amounts []*big.Int, value *big.Int) (common.Hash, error) {
	if err := c.checkBatch(recipients, amounts); err != nil {
		return common.Hash{}, err
	}
	data, err := distributorABI.Pack("airdropNativeToken", recipients, amounts)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack airdropNativeToken: %w", err)
	}
	return c.send(ctx, s, "airdropNativeToken", call{
		to:       c.opts.Distributor,
		value:    value,
		data:     data,
		fallback: FallbackGas(true, len(recipients)),
	})
}

// SubmitToken sends airdropERC20Token(token, recipients, amounts) carrying
// the fee as value.
func (c *Client) SubmitToken(ctx context.Context, s *airdropcore.Session, token common.Address, recipients []common.Address, amounts []*big.Int, value *big.Int) (common.Hash, error) {
	if err := c.checkBatch(recipients, amounts); err != nil {
		return common.Hash{}, err
	}
	data, err := distributorABI.Pack("airdropERC20Token", token, recipients, amounts)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack airdropERC20Token: %w", err)
	}
	return c.send(ctx, s, "airdropERC20Token", call{
		to:       c.opts.Distributor,
		value:    value,
		data:     data,
		fallback: FallbackGas(false, len(recipients)),
	})
}

func (c *Client) checkBatch(recipients []common.Address, amounts []*big.Int) error {
	if c.opts.Distributor == (common.Address{}) {
		return errNoDistributor
	}
	if len(recipients) == 0 || len(recipients) != len(amounts) {
		return fmt.Errorf("batch has %d recipients and %d amounts", len(recipients), len(amounts))
	}
	return nil
}
