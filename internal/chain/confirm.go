package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

// Confirm polls for the receipt of hash until it is mined or ctx ends.
// A status-0 receipt yields *airdropcore.RevertError with the reason found
// by replaying the call at the receipt's block.
func (c *Client) Confirm(ctx context.Context, hash common.Hash) error {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for {
		rcpt, err := c.receipt(ctx, hash)
		switch {
		case err == nil && rcpt != nil:
			if rcpt.Status == types.ReceiptStatusSuccessful {
				return nil
			}
			return &airdropcore.RevertError{TxHash: hash, Reason: c.replayReason(ctx, hash, rcpt)}
		case err != nil && !errors.Is(err, ethereum.NotFound):
			c.log.Debug("receipt poll failed", zap.Stringer("tx", hash), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var rcpt *types.Receipt
	err := c.do(ctx, "receipt", func(ctx context.Context) (err error) {
		rcpt, err = c.eth.TransactionReceipt(ctx, hash)
		return err
	})
	return rcpt, err
}

// replayReason re-executes the reverted transaction as a call. Failures to
// replay yield an empty reason.
func (c *Client) replayReason(ctx context.Context, hash common.Hash, rcpt *types.Receipt) string {
	var tx *types.Transaction
	if err := c.do(ctx, "tx_by_hash", func(ctx context.Context) (err error) {
		tx, _, err = c.eth.TransactionByHash(ctx, hash)
		return err
	}); err != nil || tx == nil {
		return ""
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return ""
	}
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	_, err = c.eth.CallContract(ctx, msg, rcpt.BlockNumber)
	if err == nil {
		return ""
	}
	return RevertReason(err)
}
