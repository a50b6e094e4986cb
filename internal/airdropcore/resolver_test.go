package airdropcore_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
	"github.com/ligun0805/airdrop-engine/internal/airdropcore/mocks"
)

var (
	caller = common.HexToAddress("0x742d35cc6634c0532925a3b844bc454e4438f44e")
	owner  = common.HexToAddress("0x123d35cc8545eb5c8c5b0cb9876543210fedcba0")
)

func ptr[T any](v T) *T { return &v }

func TestResolverPrimary(t *testing.T) {
	ctx := context.Background()
	fee := big.NewInt(1e15)

	tests := []struct {
		name       string
		terms      airdropcore.FeeTerms
		wantExempt bool
		wantAmount int64
	}{
		{
			name:       "fee owed",
			terms:      airdropcore.FeeTerms{Exempt: ptr(false), Owner: ptr(owner), Fee: fee},
			wantExempt: false,
			wantAmount: 1e15,
		},
		{
			name:       "exempt flag",
			terms:      airdropcore.FeeTerms{Exempt: ptr(true), Owner: ptr(owner), Fee: fee},
			wantExempt: true,
			wantAmount: 1e15,
		},
		{
			name:       "owner is exempt even when flag read failed",
			terms:      airdropcore.FeeTerms{Owner: ptr(caller), Fee: fee},
			wantExempt: true,
			wantAmount: 1e15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := mocks.NewMockFeeReaderForTest(t)
			reader.EXPECT().FeeTerms(gomock.Any(), caller).Return(tt.terms, nil)

			q, err := airdropcore.NewResolver(reader, 18, zap.NewNop()).Resolve(ctx, caller)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExempt, q.Exempt)
			assert.Equal(t, tt.wantAmount, q.Amount.Int64())
			assert.False(t, q.Legacy)
			assert.Equal(t, "0.001", q.Formatted)
			if tt.wantExempt {
				assert.Zero(t, q.Owed().Sign())
			} else {
				assert.Equal(t, fee, q.Owed())
			}
		})
	}
}

func TestResolverLegacyFallback(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		legacy     airdropcore.LegacyTerms
		wantExempt bool
	}{
		{"whitelisted", airdropcore.LegacyTerms{Whitelisted: true, Enabled: true}, true},
		{"whitelist disabled", airdropcore.LegacyTerms{Enabled: false}, true},
		{"not whitelisted", airdropcore.LegacyTerms{Enabled: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := mocks.NewMockFeeReaderForTest(t)
			reader.EXPECT().FeeTerms(gomock.Any(), caller).Return(airdropcore.FeeTerms{Fee: big.NewInt(7)}, nil)
			reader.EXPECT().LegacyTerms(gomock.Any(), caller).Return(tt.legacy, nil)

			q, err := airdropcore.NewResolver(reader, 18, nil).Resolve(ctx, caller)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExempt, q.Exempt)
			assert.True(t, q.Legacy)
			assert.Equal(t, int64(7), q.Amount.Int64())
		})
	}
}

func TestResolverUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("both interfaces fail", func(t *testing.T) {
		reader := mocks.NewMockFeeReaderForTest(t)
		reader.EXPECT().FeeTerms(gomock.Any(), caller).Return(airdropcore.FeeTerms{}, errors.New("execution reverted"))
		reader.EXPECT().LegacyTerms(gomock.Any(), caller).Return(airdropcore.LegacyTerms{}, errors.New("execution reverted"))

		_, err := airdropcore.NewResolver(reader, 18, nil).Resolve(ctx, caller)
		assert.True(t, airdropcore.IsKind(err, airdropcore.KindResolverUnavailable))
		assert.True(t, airdropcore.RunAborting(err))
	})

	t.Run("fee unreadable for paying caller", func(t *testing.T) {
		reader := mocks.NewMockFeeReaderForTest(t)
		reader.EXPECT().FeeTerms(gomock.Any(), caller).Return(airdropcore.FeeTerms{Exempt: ptr(false), Owner: ptr(owner)}, nil)

		_, err := airdropcore.NewResolver(reader, 18, nil).Resolve(ctx, caller)
		assert.True(t, airdropcore.IsKind(err, airdropcore.KindResolverUnavailable))
	})

	t.Run("fee unreadable for exempt caller", func(t *testing.T) {
		reader := mocks.NewMockFeeReaderForTest(t)
		reader.EXPECT().FeeTerms(gomock.Any(), caller).Return(airdropcore.FeeTerms{Exempt: ptr(true), Owner: ptr(owner)}, nil)

		q, err := airdropcore.NewResolver(reader, 18, nil).Resolve(ctx, caller)
		require.NoError(t, err)
		assert.True(t, q.Exempt)
		assert.Zero(t, q.Amount.Sign())
		assert.Equal(t, "0", q.Formatted)
	})
}
