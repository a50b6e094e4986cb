package airdropcore

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	base := errors.New("rpc down")
	err := fmt.Errorf("prepare: %w", NewError(KindResolverUnavailable, base))

	k, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindResolverUnavailable, k)
	assert.ErrorIs(t, err, base)
	assert.ErrorIs(t, err, &Error{Kind: KindResolverUnavailable})
	assert.NotErrorIs(t, err, &Error{Kind: KindConfiguration})
	assert.True(t, RunAborting(err))

	assert.False(t, RunAborting(NewError(KindBatchSubmission, base)))
	assert.False(t, RunAborting(base))
	assert.Equal(t, "ConfigurationError: no distributor", Errorf(KindConfiguration, "no distributor").Error())
}

func TestSessionInvalidate(t *testing.T) {
	s := NewSession(common.HexToAddress("0x01"), big.NewInt(984), nil)
	assert.NoError(t, s.Err())

	s.Invalidate(errors.New("network switched"))
	s.Invalidate(errors.New("second reason"))

	assert.ErrorIs(t, s.Err(), ErrSessionInvalidated)
	assert.Contains(t, s.Err().Error(), "network switched")
	assert.NotContains(t, s.Err().Error(), "second reason")
	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestFeeQuoteOwed(t *testing.T) {
	assert.Equal(t, int64(0), FeeQuote{Amount: big.NewInt(5), Exempt: true}.Owed().Int64())
	assert.Equal(t, int64(0), FeeQuote{}.Owed().Int64())

	q := FeeQuote{Amount: big.NewInt(5)}
	owed := q.Owed()
	owed.SetInt64(9)
	assert.Equal(t, int64(5), q.Amount.Int64())
}

func TestParseTokenType(t *testing.T) {
	tt, err := ParseTokenType(" opn ", TokenNative)
	assert.NoError(t, err)
	assert.Equal(t, TokenOPN, tt)

	tt, err = ParseTokenType("", TokenERC20)
	assert.NoError(t, err)
	assert.Equal(t, TokenERC20, tt)

	_, err = ParseTokenType("DOGE", TokenNative)
	assert.True(t, IsKind(err, KindInputValidation))
}
