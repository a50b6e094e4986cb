package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"
)

// flagView is a parameterless bool view. inverted views report "enabled"
// rather than "paused".
type flagView struct {
	sig      string
	inverted bool
}

// Pause switches seen in the wild, in probing order.
var pauseViews = []flagView{
	{sig: "paused()"},
	{sig: "isPaused()"},
	{sig: "transfersPaused()"},
	{sig: "tradingPaused()"},
	{sig: "isTradingPaused()"},
	{sig: "globalPaused()"},
	{sig: "transferEnabled()", inverted: true},
	{sig: "isTransferEnabled()", inverted: true},
	{sig: "tradingEnabled()", inverted: true},
	{sig: "isTradingEnabled()", inverted: true},
}

var (
	transferDisabledViews = []string{"transferDisabled()", "isTransferDisabled()"}
	onlyWhitelistViews    = []string{"onlyWhitelisted()", "whitelistEnabled()"}
	whitelistAddrViews    = []string{"isWhitelisted(address)", "whitelisted(address)"}
	blacklistAddrViews    = []string{"isBlacklisted(address)", "isBlackListed(address)", "blacklisted(address)", "isInBlacklist(address)"}
)

func selector(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

// TokenRestrictions is what a token preflight found. Nil whitelist
// pointers mean the token has no readable whitelist view.
type TokenRestrictions struct {
	Token            common.Address
	Paused           bool
	TransferDisabled bool
	OnlyWhitelisted  bool
	SenderListed     *bool
	SenderBlacklist  bool
	BlacklistedTo    []common.Address
}

// Blocked reports whether the token would refuse the airdrop outright.
// Blacklisted recipients block only their own transfer and so do not count.
func (r TokenRestrictions) Blocked() bool {
	if r.Paused || r.TransferDisabled || r.SenderBlacklist {
		return true
	}
	return r.OnlyWhitelisted && r.SenderListed != nil && !*r.SenderListed
}

func (r TokenRestrictions) Summary() string {
	var parts []string
	if r.Paused {
		parts = append(parts, "paused")
	}
	if r.TransferDisabled {
		parts = append(parts, "transferDisabled")
	}
	if r.SenderBlacklist {
		parts = append(parts, "sender:blacklisted")
	}
	if n := len(r.BlacklistedTo); n > 0 {
		parts = append(parts, fmt.Sprintf("recipients:blacklisted=%d", n))
	}
	if r.OnlyWhitelisted {
		listed := "unknown"
		if r.SenderListed != nil {
			listed = map[bool]string{true: "yes", false: "no"}[*r.SenderListed]
		}
		parts = append(parts, "whitelist:on (sender="+listed+")")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// CheckRestrictions probes token for pause switches, transfer kill
// switches, whitelist mode and blacklists covering sender or recipients.
// Views a token does not implement are skipped.
func (c *Client) CheckRestrictions(ctx context.Context, token, sender common.Address, recipients []common.Address) (TokenRestrictions, error) {
	out := TokenRestrictions{Token: token}
	if !c.hasCode(ctx, token) {
		return out, fmt.Errorf("token %s: %w", token.Hex(), errNoCode)
	}

	for _, v := range pauseViews {
		ret, ok := c.probe(ctx, token, selector(v.sig))
		if !ok {
			continue
		}
		out.Paused = truthy(ret) == !v.inverted
		break
	}
	if out.Paused {
		return out, nil
	}
	for _, sig := range transferDisabledViews {
		if ret, ok := c.probe(ctx, token, selector(sig)); ok && truthy(ret) {
			out.TransferDisabled = true
			return out, nil
		}
	}
	for _, sig := range onlyWhitelistViews {
		if ret, ok := c.probe(ctx, token, selector(sig)); ok && truthy(ret) {
			out.OnlyWhitelisted = true
			break
		}
	}
	if out.OnlyWhitelisted {
		out.SenderListed = c.addrFlag(ctx, token, whitelistAddrViews, sender)
	}
	if v := c.addrFlag(ctx, token, blacklistAddrViews, sender); v != nil && *v {
		out.SenderBlacklist = true
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.MaxConcurrency)
	for _, r := range recipients {
		g.Go(func() error {
			if v := c.addrFlag(gctx, token, blacklistAddrViews, r); v != nil && *v {
				mu.Lock()
				out.BlacklistedTo = append(out.BlacklistedTo, r)
				mu.Unlock()
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// addrFlag returns the first answer among views taking one address.
func (c *Client) addrFlag(ctx context.Context, token common.Address, views []string, addr common.Address) *bool {
	for _, sig := range views {
		data := append(selector(sig), common.LeftPadBytes(addr.Bytes(), 32)...)
		if ret, ok := c.probe(ctx, token, data); ok {
			v := truthy(ret)
			return &v
		}
	}
	return nil
}

func (c *Client) probe(ctx context.Context, token common.Address, data []byte) ([]byte, bool) {
	ret, err := c.callRaw(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil || len(ret) == 0 {
		return nil, false
	}
	return ret, true
}

func truthy(b []byte) bool {
	return len(b) > 0 && b[len(b)-1] == 1
}
