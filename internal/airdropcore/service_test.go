package airdropcore_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
	"github.com/ligun0805/airdrop-engine/internal/airdropcore/mocks"
	"github.com/ligun0805/airdrop-engine/internal/ledger"
	"github.com/ligun0805/airdrop-engine/internal/networks"
)

func testNetwork() networks.Network {
	return networks.Network{
		ChainID:       984,
		Name:          "IOPN Testnet",
		Symbol:        "OPN",
		Decimals:      18,
		Explorer:      "https://testnet.iopn.tech/",
		Distributor:   "0x00000000000000000000000000000000000000d1",
		NativeAliases: []string{"OPN"},
		Tokens:        []networks.Token{{Symbol: "USDT", Address: usdt.Token.Hex(), Decimals: 6}},
	}
}

func oneOPN(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

type serviceFixture struct {
	chain  *mocks.MockChain
	reader *mocks.MockFeeReader
	ledger *ledger.Memory
	svc    *airdropcore.Service
}

func newServiceFixture(t *testing.T, n networks.Network, cfg airdropcore.ServiceConfig) *serviceFixture {
	f := &serviceFixture{
		chain:  mocks.NewMockChainForTest(t),
		reader: mocks.NewMockFeeReaderForTest(t),
		ledger: ledger.NewMemory(),
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewFakeClock()
	}
	f.svc = airdropcore.NewService(n, f.chain, f.reader, f.ledger, zap.NewNop(), cfg)
	return f
}

func (f *serviceFixture) feeOwed(fee *big.Int) {
	f.reader.EXPECT().FeeTerms(gomock.Any(), caller).
		Return(airdropcore.FeeTerms{Exempt: ptr(false), Owner: ptr(owner), Fee: fee}, nil).AnyTimes()
}

func recipients(t *testing.T, rows ...[2]string) []airdropcore.Recipient {
	out := make([]airdropcore.Recipient, len(rows))
	for i, r := range rows {
		rc, err := airdropcore.NewRecipient(r[0], r[1], "", airdropcore.TokenOPN, airdropcore.SourceManual)
		require.NoError(t, err)
		out[i] = rc
	}
	return out
}

func TestPrepareWithoutDistributor(t *testing.T) {
	n := testNetwork()
	n.Distributor = "YOUR_CONTRACT_ADDRESS"
	f := newServiceFixture(t, n, airdropcore.ServiceConfig{})

	_, err := f.svc.Prepare(context.Background(), newSession(), "r", recipients(t, [2]string{addrA.Hex(), "1"}))
	require.Error(t, err)
	assert.True(t, airdropcore.IsKind(err, airdropcore.KindConfiguration))
	assert.ErrorIs(t, err, networks.ErrNoDistributor)
}

func TestPrepareWrongChain(t *testing.T) {
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{})
	sess := airdropcore.NewSession(caller, big.NewInt(1), nil)

	_, err := f.svc.Prepare(context.Background(), sess, "r", recipients(t, [2]string{addrA.Hex(), "1"}))
	assert.True(t, airdropcore.IsKind(err, airdropcore.KindConfiguration))
}

func TestPrepareInvalidatedSession(t *testing.T) {
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{})
	sess := newSession()
	sess.Invalidate(errors.New("disconnected"))

	_, err := f.svc.Prepare(context.Background(), sess, "r", recipients(t, [2]string{addrA.Hex(), "1"}))
	assert.ErrorIs(t, err, airdropcore.ErrSessionInvalidated)
}

func TestPrepareResolverFailureAborts(t *testing.T) {
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{})
	f.reader.EXPECT().FeeTerms(gomock.Any(), caller).Return(airdropcore.FeeTerms{}, errors.New("timeout"))
	f.reader.EXPECT().LegacyTerms(gomock.Any(), caller).Return(airdropcore.LegacyTerms{}, errors.New("timeout"))

	_, err := f.svc.Distribute(context.Background(), newSession(), "r", recipients(t, [2]string{addrA.Hex(), "1"}))
	assert.True(t, airdropcore.IsKind(err, airdropcore.KindResolverUnavailable))
}

func TestPrepareInsufficientFunds(t *testing.T) {
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{})
	f.feeOwed(big.NewInt(1e16))
	f.chain.EXPECT().Balance(gomock.Any(), caller).Return(oneOPN(3), nil)

	// 3 OPN of transfers plus one 0.01 OPN fee is more than 3 OPN.
	_, err := f.svc.Prepare(context.Background(), newSession(), "r",
		recipients(t, [2]string{addrA.Hex(), "1"}, [2]string{addrB.Hex(), "2"}))
	assert.True(t, airdropcore.IsKind(err, airdropcore.KindInsufficientFunds))
}

func TestPrepareTotals(t *testing.T) {
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{
		Limits: airdropcore.Limits{Native: 1, Token: 30},
		Token:  "USDT",
	})
	f.feeOwed(big.NewInt(5))
	f.chain.EXPECT().TokenDecimals(gomock.Any(), usdt.Token).Return(uint8(6), nil).Times(1)
	f.chain.EXPECT().Balance(gomock.Any(), caller).Return(oneOPN(100), nil)

	list := recipients(t, [2]string{addrA.Hex(), "1"}, [2]string{addrB.Hex(), "2"})
	for _, addr := range []common.Address{addrA, addrC} {
		r, err := airdropcore.NewRecipient(addr.Hex(), "1.5", "ERC20", airdropcore.TokenOPN, airdropcore.SourceCSV)
		require.NoError(t, err)
		list = append(list, r)
	}

	plan, err := f.svc.Prepare(context.Background(), newSession(), "r", list)
	require.NoError(t, err)
	require.Len(t, plan.Batches, 3)
	assert.True(t, plan.Batches[0].Asset.Native)
	assert.True(t, plan.Batches[1].Asset.Native)
	assert.Equal(t, usdt.Token, plan.Batches[2].Asset.Token)
	assert.Equal(t, 2, plan.Batches[2].Len())

	// 3 OPN plus a fee of 5 wei on each of the three calls.
	want := new(big.Int).Add(oneOPN(3), big.NewInt(15))
	assert.Equal(t, want.String(), plan.NativeValue.String())
	assert.Equal(t, "3000000", plan.TokenTotals[usdt.Token].String())
}

func TestPrepareRejectsTooPreciseTokenAmount(t *testing.T) {
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{Token: "USDT"})
	f.chain.EXPECT().TokenDecimals(gomock.Any(), usdt.Token).Return(uint8(6), nil)

	r, err := airdropcore.NewRecipient(addrA.Hex(), "0.0000001", "ERC20", airdropcore.TokenOPN, airdropcore.SourceCSV)
	require.NoError(t, err)
	_, err = f.svc.Prepare(context.Background(), newSession(), "r", []airdropcore.Recipient{r})
	assert.True(t, airdropcore.IsKind(err, airdropcore.KindInputValidation))
}

func TestDistributeRetrySkipsPaidRecipients(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{Limits: airdropcore.Limits{Native: 1, Token: 1}})
	f.feeOwed(big.NewInt(0))
	f.chain.EXPECT().Balance(gomock.Any(), caller).Return(oneOPN(100), nil).AnyTimes()

	list := recipients(t, [2]string{addrA.Hex(), "1"}, [2]string{addrB.Hex(), "2"})

	// First attempt: A lands, B is rejected.
	gomock.InOrder(
		f.chain.EXPECT().SubmitNative(gomock.Any(), gomock.Any(), []common.Address{addrA}, gomock.Any(), gomock.Any()).Return(hashN(1), nil),
		f.chain.EXPECT().Confirm(gomock.Any(), hashN(1)).Return(nil),
		f.chain.EXPECT().SubmitNative(gomock.Any(), gomock.Any(), []common.Address{addrB}, gomock.Any(), gomock.Any()).Return(common.Hash{}, errors.New("rejected")),
	)
	rep, err := f.svc.Distribute(ctx, newSession(), "run-1", list)
	require.NoError(t, err)
	assert.Len(t, rep.Successful, 1)
	assert.Len(t, rep.Failed, 1)

	// Retry of the same run only touches B.
	gomock.InOrder(
		f.chain.EXPECT().SubmitNative(gomock.Any(), gomock.Any(), []common.Address{addrB}, gomock.Any(), gomock.Any()).Return(hashN(2), nil),
		f.chain.EXPECT().Confirm(gomock.Any(), hashN(2)).Return(nil),
	)
	rep, err = f.svc.Distribute(ctx, newSession(), "run-1", list)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Total)
	require.Len(t, rep.Successful, 2)
	assert.Empty(t, rep.Failed)
	var carried int
	for _, s := range rep.Successful {
		if s.Carried {
			carried++
			assert.Equal(t, addrA, s.Address)
			assert.Equal(t, hashN(1).Hex(), s.TxHash)
		}
	}
	assert.Equal(t, 1, carried)

	// A third attempt has nothing left to send.
	rep, err = f.svc.Distribute(ctx, newSession(), "run-1", list)
	require.NoError(t, err)
	assert.Empty(t, rep.Transactions)
	assert.Len(t, rep.Successful, 2)
}

func TestDistributeHoldsUnknownRecipients(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{})
	f.feeOwed(big.NewInt(0))

	list := recipients(t, [2]string{addrA.Hex(), "1"})
	key := addrA.Hex()
	require.NoError(t, f.ledger.Record(ctx, airdropcore.LedgerEntry{
		RunID: "run-2", Key: lowerKey(key, oneOPN(1)), Address: key, Asset: "native",
		Amount: oneOPN(1).String(), State: airdropcore.StateUnknown, TxHash: hashN(4).Hex(),
	}))

	rep, err := f.svc.Distribute(ctx, newSession(), "run-2", list)
	require.NoError(t, err)
	assert.Empty(t, rep.Transactions)
	require.Len(t, rep.Unknown, 1)
	assert.True(t, rep.Unknown[0].Carried)
	assert.Equal(t, hashN(4).Hex(), rep.Unknown[0].TxHash)
}

func TestDistributeDoesNotResubmitUncertainSend(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{BatchTimeout: 20 * time.Millisecond})
	f.feeOwed(big.NewInt(0))
	f.chain.EXPECT().Balance(gomock.Any(), caller).Return(oneOPN(100), nil).AnyTimes()

	list := recipients(t, [2]string{addrA.Hex(), "1"})

	// The send timed out after it may have reached the node.
	f.chain.EXPECT().SubmitNative(gomock.Any(), gomock.Any(), []common.Address{addrA}, gomock.Any(), gomock.Any()).
		Return(hashN(6), fmt.Errorf("send: %w: %w", airdropcore.ErrSubmitUncertain, context.DeadlineExceeded)).Times(1)
	f.chain.EXPECT().Confirm(gomock.Any(), hashN(6)).DoAndReturn(func(ctx context.Context, _ common.Hash) error {
		<-ctx.Done()
		return ctx.Err()
	})
	rep, err := f.svc.Distribute(ctx, newSession(), "run-x", list)
	require.NoError(t, err)
	require.Len(t, rep.Unknown, 1)
	assert.Empty(t, rep.Failed)

	// The retry holds A back instead of paying it again.
	rep, err = f.svc.Distribute(ctx, newSession(), "run-x", list)
	require.NoError(t, err)
	assert.Empty(t, rep.Transactions)
	require.Len(t, rep.Unknown, 1)
	assert.True(t, rep.Unknown[0].Carried)
	assert.Equal(t, hashN(6).Hex(), rep.Unknown[0].TxHash)
}

func lowerKey(addr string, units *big.Int) string {
	return strings.ToLower(addr) + "/native/" + units.String() + "#0"
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{})
	entries := []airdropcore.LedgerEntry{
		{RunID: "r", Key: "a", State: airdropcore.StateUnknown, TxHash: hashN(1).Hex()},
		{RunID: "r", Key: "b", State: airdropcore.StateUnknown, TxHash: hashN(1).Hex()},
		{RunID: "r", Key: "c", State: airdropcore.StatePending, TxHash: hashN(2).Hex()},
		{RunID: "r", Key: "d", State: airdropcore.StatePending, TxHash: hashN(3).Hex()},
		{RunID: "r", Key: "e", State: airdropcore.StatePending},
		{RunID: "r", Key: "f", State: airdropcore.StatePaid, TxHash: hashN(5).Hex()},
	}
	require.NoError(t, f.ledger.Record(ctx, entries...))

	f.chain.EXPECT().Confirm(gomock.Any(), hashN(1)).Return(nil)
	f.chain.EXPECT().Confirm(gomock.Any(), hashN(2)).Return(&airdropcore.RevertError{TxHash: hashN(2), Reason: "fee"})
	f.chain.EXPECT().Confirm(gomock.Any(), hashN(3)).DoAndReturn(func(ctx context.Context, _ common.Hash) error {
		<-ctx.Done()
		return ctx.Err()
	})

	res, err := f.svc.Reconcile(ctx, "r", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, airdropcore.ReconcileResult{Paid: 2, Failed: 1, Unchanged: 2}, res)

	got, err := f.ledger.Entries(ctx, "r")
	require.NoError(t, err)
	states := map[string]airdropcore.SettlementState{}
	for _, e := range got {
		states[e.Key] = e.State
	}
	assert.Equal(t, map[string]airdropcore.SettlementState{
		"a": airdropcore.StatePaid,
		"b": airdropcore.StatePaid,
		"c": airdropcore.StateFailed,
		"d": airdropcore.StatePending,
		"e": airdropcore.StatePending,
		"f": airdropcore.StatePaid,
	}, states)
}

func TestQuote(t *testing.T) {
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{})
	f.feeOwed(big.NewInt(1e16))

	q, err := f.svc.Quote(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, "0.01", q.Formatted)
	assert.False(t, q.Exempt)
}

func TestReleaseUnsent(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, testNetwork(), airdropcore.ServiceConfig{})
	require.NoError(t, f.ledger.Record(ctx,
		airdropcore.LedgerEntry{RunID: "r", Key: "a", State: airdropcore.StatePending},
		airdropcore.LedgerEntry{RunID: "r", Key: "b", State: airdropcore.StatePending, TxHash: hashN(1).Hex()},
		airdropcore.LedgerEntry{RunID: "r", Key: "c", State: airdropcore.StateUnknown, TxHash: hashN(2).Hex()},
		airdropcore.LedgerEntry{RunID: "r", Key: "d", State: airdropcore.StatePaid, TxHash: hashN(3).Hex()},
	))

	n, err := f.svc.ReleaseUnsent(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.ledger.Entries(ctx, "r")
	require.NoError(t, err)
	states := map[string]airdropcore.SettlementState{}
	for _, e := range got {
		states[e.Key] = e.State
		if e.Key == "a" {
			assert.True(t, e.State.Retryable())
			assert.Contains(t, e.Error, "released")
		}
	}
	assert.Equal(t, map[string]airdropcore.SettlementState{
		"a": airdropcore.StateFailed,
		"b": airdropcore.StatePending,
		"c": airdropcore.StateUnknown,
		"d": airdropcore.StatePaid,
	}, states)

	n, err = f.svc.ReleaseUnsent(ctx, "r")
	require.NoError(t, err)
	assert.Zero(t, n)

	// Reconcile no longer counts the released entry as unresolved.
	f.chain.EXPECT().Confirm(gomock.Any(), hashN(1)).Return(nil)
	f.chain.EXPECT().Confirm(gomock.Any(), hashN(2)).Return(nil)
	res, err := f.svc.Reconcile(ctx, "r", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, airdropcore.ReconcileResult{Paid: 2}, res)
}
