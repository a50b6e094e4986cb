package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

// ErrWrongNetwork is returned when the node serves another chain than asked.
var ErrWrongNetwork = errors.New("node is on a different network")

// KeyedSession opens a signing session from a hex private key after
// checking the node serves chainID.
func (c *Client) KeyedSession(ctx context.Context, keyHex string, chainID uint64) (*airdropcore.Session, error) {
	h := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
	if h == "" {
		return nil, errors.New("empty private key")
	}
	prv, err := crypto.HexToECDSA(h)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	got, err := c.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	want := new(big.Int).SetUint64(chainID)
	if got.Cmp(want) != 0 {
		return nil, fmt.Errorf("%w: want %s, node reports %s", ErrWrongNetwork, want, got)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(prv, want)
	if err != nil {
		return nil, err
	}
	return airdropcore.NewKeyedSession(opts, want), nil
}

// maxWatchFailures is how many consecutive failed probes drop the session.
const maxWatchFailures = 3

// WatchSession polls the node's chain id every interval and invalidates s
// when the node switches networks or stops answering. It returns when ctx
// ends or the session dies.
func (c *Client) WatchSession(ctx context.Context, s *airdropcore.Session, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			return
		case <-ticker.C:
		}
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		id, err := c.eth.ChainID(probeCtx)
		cancel()
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			failures++
			c.log.Warn("session probe failed", zap.Int("failures", failures), zap.Error(err))
			if failures >= maxWatchFailures {
				s.Invalidate(fmt.Errorf("node unreachable after %d probes: %w", failures, err))
				return
			}
		case id.Cmp(s.ChainID) != 0:
			s.Invalidate(fmt.Errorf("%w: session on %s, node now on %s", ErrWrongNetwork, s.ChainID, id))
			return
		default:
			failures = 0
		}
	}
}
