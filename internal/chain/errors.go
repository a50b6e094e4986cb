package chain

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// Coarse classes of RPC failures. They label retry metrics and decide
// whether a call is retried.
const (
	ClassTimeout     = "rpc_timeout"
	ClassUnavailable = "rpc_unavailable"
	ClassRateLimited = "rpc_rate_limited"
	ClassReverted    = "reverted"
	ClassError       = "rpc_error"
)

// Classify maps err to one of the Class constants, or "" for nil.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if isRevert(err) {
		return ClassReverted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ClassTimeout
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "too many requests") || strings.Contains(s, "-32005") || strings.Contains(s, "429 "):
		return ClassRateLimited
	case strings.Contains(s, "deadline exceeded") || strings.Contains(s, "client.timeout exceeded") ||
		strings.Contains(s, "i/o timeout") || strings.Contains(s, "tls handshake timeout"):
		return ClassTimeout
	case strings.Contains(s, "connection reset") || strings.Contains(s, "connection refused") ||
		strings.Contains(s, "broken pipe") || strings.Contains(s, "eof") ||
		strings.Contains(s, "502 ") || strings.Contains(s, "503 ") || strings.Contains(s, "504 "):
		return ClassUnavailable
	}
	return ClassError
}

// transient reports whether a call failing with err is worth repeating.
func transient(err error) bool {
	switch Classify(err) {
	case ClassTimeout, ClassUnavailable, ClassRateLimited:
		return true
	}
	return false
}

func isRevert(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

// RevertReason extracts a readable reason from an eth_call or
// eth_estimateGas failure. ABI-encoded Error(string) data wins over the
// message text.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if reason, uerr := abi.UnpackRevert(common.FromHex(s)); uerr == nil && reason != "" {
				return reason
			}
		}
	}
	s := err.Error()
	if i := strings.Index(s, "execution reverted"); i >= 0 {
		rest := strings.TrimSpace(strings.TrimPrefix(s[i:], "execution reverted"))
		rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		if rest != "" {
			return rest
		}
		return "execution reverted"
	}
	return s
}

// Explain renders err as a short operator-facing line.
func Explain(err error) string {
	if err == nil {
		return ""
	}
	switch Classify(err) {
	case ClassRateLimited:
		return "[RATE_LIMIT] provider throttled the request"
	case ClassReverted:
		return "[REVERT] " + RevertReason(err)
	case ClassTimeout:
		return "[TIMEOUT] " + err.Error()
	case ClassUnavailable:
		return "[UNAVAILABLE] " + err.Error()
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "insufficient funds"):
		return "[FUNDS] insufficient funds for value and gas"
	case strings.Contains(s, "nonce too low") || strings.Contains(s, "replacement transaction underpriced"):
		return "[NONCE] " + err.Error()
	case strings.Contains(s, "invalid opcode"):
		return "[INVALID] invalid opcode during execution"
	}
	return "[RPC] " + err.Error()
}
