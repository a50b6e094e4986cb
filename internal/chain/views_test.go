package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// viewAnswer answers calls to sig with a fixed word, whatever the arguments.
type viewAnswer struct {
	sig  string
	word []byte
}

// stubCode assembles runtime code that matches the call selector against
// answers, returns the matching 32-byte word and reverts on anything else.
func stubCode(answers ...viewAnswer) []byte {
	const prologue, entry, fallback, body = 6, 11, 4, 42

	// PUSH1 0 CALLDATALOAD PUSH1 224 SHR
	code := []byte{0x60, 0x00, 0x35, 0x60, 0xe0, 0x1c}
	for i, a := range answers {
		dest := prologue + entry*len(answers) + fallback + body*i
		// DUP1 PUSH4 sel EQ PUSH2 dest JUMPI
		code = append(code, 0x80, 0x63)
		code = append(code, selector(a.sig)...)
		code = append(code, 0x14, 0x61, byte(dest>>8), byte(dest), 0x57)
	}
	// PUSH1 0 DUP1 REVERT
	code = append(code, 0x60, 0x00, 0x80, 0xfd)
	for _, a := range answers {
		// JUMPDEST PUSH32 word PUSH1 0 MSTORE PUSH1 32 PUSH1 0 RETURN
		code = append(code, 0x5b, 0x7f)
		code = append(code, common.LeftPadBytes(a.word, 32)...)
		code = append(code, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3)
	}
	return code
}

func stubAccount(answers ...viewAnswer) types.Account {
	return types.Account{Code: stubCode(answers...), Balance: new(big.Int)}
}

var (
	wordFalse = []byte{0}
	wordTrue  = []byte{1}
)

func TestFeeTermsDecodesDistributorViews(t *testing.T) {
	feeDist := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	partialDist := common.HexToAddress("0x00000000000000000000000000000000000000f2")
	legacyDist := common.HexToAddress("0x00000000000000000000000000000000000000f3")
	feeOwner := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	fee := big.NewInt(5_000_000_000_000_000)

	env := newSimEnvWith(t, types.GenesisAlloc{
		feeDist: stubAccount(
			viewAnswer{"isFeeExempt(address)", wordFalse},
			viewAnswer{"owner()", feeOwner.Bytes()},
			viewAnswer{"getFeeInfo()", fee.Bytes()},
		),
		partialDist: stubAccount(
			viewAnswer{"getFeeInfo()", fee.Bytes()},
		),
		legacyDist: stubAccount(
			viewAnswer{"isWhitelisted(address)", wordTrue},
			viewAnswer{"whitelistEnabled()", wordTrue},
		),
	})
	ctx := context.Background()

	t.Run("full", func(t *testing.T) {
		c := env.client.ForDistributor(feeDist)
		terms, err := c.FeeTerms(ctx, env.from)
		require.NoError(t, err)
		require.NotNil(t, terms.Exempt)
		assert.False(t, *terms.Exempt)
		require.NotNil(t, terms.Owner)
		assert.Equal(t, feeOwner, *terms.Owner)
		require.NotNil(t, terms.Fee)
		assert.Equal(t, 0, terms.Fee.Cmp(fee), terms.Fee.String())

		_, err = c.LegacyTerms(ctx, env.from)
		assert.Error(t, err)
	})

	t.Run("partial", func(t *testing.T) {
		terms, err := env.client.ForDistributor(partialDist).FeeTerms(ctx, env.from)
		require.NoError(t, err)
		assert.Nil(t, terms.Exempt)
		assert.Nil(t, terms.Owner)
		require.NotNil(t, terms.Fee)
		assert.Equal(t, 0, terms.Fee.Cmp(fee))
	})

	t.Run("legacy", func(t *testing.T) {
		c := env.client.ForDistributor(legacyDist)
		_, err := c.FeeTerms(ctx, env.from)
		assert.Error(t, err)

		legacy, err := c.LegacyTerms(ctx, env.from)
		require.NoError(t, err)
		assert.Equal(t, true, legacy.Whitelisted)
		assert.Equal(t, true, legacy.Enabled)
	})
}

func TestCheckRestrictionsReadsTokenViews(t *testing.T) {
	paused := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	tradingOff := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	listed := common.HexToAddress("0x00000000000000000000000000000000000000b3")
	open := common.HexToAddress("0x00000000000000000000000000000000000000b4")

	env := newSimEnvWith(t, types.GenesisAlloc{
		paused: stubAccount(
			viewAnswer{"paused()", wordTrue},
			viewAnswer{"decimals()", []byte{6}},
		),
		tradingOff: stubAccount(
			viewAnswer{"isTradingEnabled()", wordFalse},
		),
		listed: stubAccount(
			viewAnswer{"paused()", wordFalse},
			viewAnswer{"whitelistEnabled()", wordTrue},
			viewAnswer{"isWhitelisted(address)", wordFalse},
			viewAnswer{"isBlacklisted(address)", wordTrue},
		),
		open: stubAccount(
			viewAnswer{"tradingEnabled()", wordTrue},
		),
	})
	ctx := context.Background()
	recipients := []common.Address{common.HexToAddress("0xa1"), common.HexToAddress("0xa2")}

	t.Run("paused", func(t *testing.T) {
		r, err := env.client.CheckRestrictions(ctx, paused, env.from, recipients)
		require.NoError(t, err)
		assert.True(t, r.Paused)
		assert.True(t, r.Blocked())
		assert.Equal(t, "paused", r.Summary())

		dec, err := env.client.TokenDecimals(ctx, paused)
		require.NoError(t, err)
		assert.Equal(t, uint8(6), dec)
	})

	t.Run("trading disabled", func(t *testing.T) {
		r, err := env.client.CheckRestrictions(ctx, tradingOff, env.from, recipients)
		require.NoError(t, err)
		assert.True(t, r.Paused)
		assert.True(t, r.Blocked())
	})

	t.Run("whitelist and blacklist", func(t *testing.T) {
		r, err := env.client.CheckRestrictions(ctx, listed, env.from, recipients)
		require.NoError(t, err)
		assert.False(t, r.Paused)
		assert.True(t, r.OnlyWhitelisted)
		require.NotNil(t, r.SenderListed)
		assert.False(t, *r.SenderListed)
		assert.True(t, r.SenderBlacklist)
		assert.ElementsMatch(t, recipients, r.BlacklistedTo)
		assert.True(t, r.Blocked())
		assert.Contains(t, r.Summary(), "whitelist:on (sender=no)")
	})

	t.Run("unrestricted", func(t *testing.T) {
		r, err := env.client.CheckRestrictions(ctx, open, env.from, recipients)
		require.NoError(t, err)
		assert.False(t, r.Blocked())
		assert.Nil(t, r.SenderListed)
		assert.Empty(t, r.BlacklistedTo)
		assert.Equal(t, "none", r.Summary())
	})
}
