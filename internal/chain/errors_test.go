package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type dataErr struct{ data string }

func (e dataErr) Error() string          { return "execution reverted" }
func (e dataErr) ErrorData() interface{} { return e.data }

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.DeadlineExceeded, ClassTimeout},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), ClassTimeout},
		{timeoutErr{}, ClassTimeout},
		{errors.New("Post \"x\": net/http: request canceled (Client.Timeout exceeded while awaiting headers)"), ClassTimeout},
		{errors.New("429 Too Many Requests"), ClassRateLimited},
		{errors.New("rpc error -32005: limit exceeded"), ClassRateLimited},
		{errors.New("read: connection reset by peer"), ClassUnavailable},
		{errors.New("unexpected EOF"), ClassUnavailable},
		{errors.New("502 Bad Gateway"), ClassUnavailable},
		{errors.New("execution reverted: not owner"), ClassReverted},
		{errors.New("nonce too low"), ClassError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), "%v", tc.err)
	}
}

func TestTransient(t *testing.T) {
	assert.True(t, transient(errors.New("Too Many Requests")))
	assert.True(t, transient(context.DeadlineExceeded))
	assert.False(t, transient(errors.New("execution reverted")))
	assert.False(t, transient(errors.New("invalid argument")))
}

func TestSendUncertain(t *testing.T) {
	assert.True(t, sendUncertain(fmt.Errorf("post: %w", context.DeadlineExceeded)))
	assert.True(t, sendUncertain(context.Canceled))
	assert.True(t, sendUncertain(errors.New("read: connection reset by peer")))
	assert.True(t, sendUncertain(errors.New("503 Service Unavailable")))
	assert.False(t, sendUncertain(errors.New("nonce too low")))
	assert.False(t, sendUncertain(errors.New("insufficient funds for gas * price + value")))
	assert.False(t, sendUncertain(errors.New("429 Too Many Requests")))
}

func TestRevertReason(t *testing.T) {
	assert.Equal(t, "", RevertReason(nil))
	assert.Equal(t, "amounts mismatch", RevertReason(errors.New("estimate: execution reverted: amounts mismatch")))
	assert.Equal(t, "execution reverted", RevertReason(errors.New("execution reverted")))
	assert.Equal(t, "boom", RevertReason(errors.New("boom")))

	// Error(string) selector, offset, length 4, "fail".
	data := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000004" +
		"6661696c00000000000000000000000000000000000000000000000000000000"
	assert.Equal(t, "fail", RevertReason(dataErr{data: data}))
	assert.Equal(t, "execution reverted", RevertReason(dataErr{data: "0x"}))
}

func TestExplain(t *testing.T) {
	assert.Equal(t, "[RATE_LIMIT] provider throttled the request", Explain(errors.New("Too Many Requests")))
	assert.Equal(t, "[REVERT] paused", Explain(errors.New("execution reverted: paused")))
	assert.Equal(t, "[FUNDS] insufficient funds for value and gas", Explain(errors.New("insufficient funds for gas * price + value")))
	assert.Equal(t, "[RPC] weird", Explain(errors.New("weird")))
	assert.Empty(t, Explain(nil))
}

func TestFallbackGas(t *testing.T) {
	assert.Equal(t, uint64(100_000+50*35_000), FallbackGas(true, 50))
	assert.Equal(t, uint64(100_000+30*65_000), FallbackGas(false, 30))
}

func TestTokenRestrictionsBlocked(t *testing.T) {
	yes, no := true, false
	assert.False(t, TokenRestrictions{}.Blocked())
	assert.Equal(t, "none", TokenRestrictions{}.Summary())
	assert.True(t, TokenRestrictions{Paused: true}.Blocked())
	assert.True(t, TokenRestrictions{SenderBlacklist: true}.Blocked())
	assert.True(t, TokenRestrictions{OnlyWhitelisted: true, SenderListed: &no}.Blocked())
	assert.False(t, TokenRestrictions{OnlyWhitelisted: true, SenderListed: &yes}.Blocked())
	assert.False(t, TokenRestrictions{OnlyWhitelisted: true}.Blocked())

	r := TokenRestrictions{OnlyWhitelisted: true, SenderListed: &no}
	r.BlacklistedTo = make([]common.Address, 2)
	assert.False(t, TokenRestrictions{BlacklistedTo: r.BlacklistedTo}.Blocked())
	assert.Equal(t, "recipients:blacklisted=2, whitelist:on (sender=no)", r.Summary())
}
