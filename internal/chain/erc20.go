package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

var errNoCode = errors.New("no contract code at address")

// callView runs eth_call against the latest block and unpacks one return value.
func (c *Client) callView(ctx context.Context, to common.Address, method string, args ...any) (any, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := c.callRaw(ctx, ethereum.CallMsg{To: &to, Data: data})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		if c.hasCode(ctx, to) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s on %s: %w", method, to.Hex(), errNoCode)
	}
	vals, err := erc20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	return vals[0], nil
}

func (c *Client) callRaw(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var out []byte
	err := c.do(ctx, "call", func(ctx context.Context) (err error) {
		out, err = c.eth.CallContract(ctx, msg, nil)
		return err
	})
	return out, err
}

func (c *Client) hasCode(ctx context.Context, addr common.Address) bool {
	var code []byte
	err := c.do(ctx, "code", func(ctx context.Context) (err error) {
		code, err = c.eth.CodeAt(ctx, addr, nil)
		return err
	})
	return err == nil && len(code) > 0
}

// Allowance reads token.allowance(owner, distributor).
func (c *Client) Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if c.opts.Distributor == (common.Address{}) {
		return nil, errNoDistributor
	}
	v, err := c.callView(ctx, token, "allowance", owner, c.opts.Distributor)
	if err != nil {
		return nil, fmt.Errorf("allowance: %w", err)
	}
	return bigOrZero(v), nil
}

// Approve sends token.approve(distributor, amount).
func (c *Client) Approve(ctx context.Context, s *airdropcore.Session, token common.Address, amount *big.Int) (common.Hash, error) {
	if c.opts.Distributor == (common.Address{}) {
		return common.Hash{}, errNoDistributor
	}
	data, err := erc20ABI.Pack("approve", c.opts.Distributor, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack approve: %w", err)
	}
	return c.send(ctx, s, "approve", call{to: token, data: data, fallback: baseGas})
}

// TokenDecimals reads decimals(). Tokens returning nothing are taken as 18.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	v, err := c.callView(ctx, token, "decimals")
	if err != nil {
		return 0, fmt.Errorf("decimals: %w", err)
	}
	d, ok := v.(uint8)
	if !ok {
		return 18, nil
	}
	return d, nil
}

// TokenBalance reads balanceOf(owner).
func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	v, err := c.callView(ctx, token, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return bigOrZero(v), nil
}

// TokenSymbol reads symbol(); tokens without one yield "".
func (c *Client) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	v, err := c.callView(ctx, token, "symbol")
	if err != nil {
		return "", fmt.Errorf("symbol: %w", err)
	}
	s, _ := v.(string)
	return s, nil
}

func bigOrZero(v any) *big.Int {
	if b, ok := v.(*big.Int); ok && b != nil {
		return b
	}
	return new(big.Int)
}
