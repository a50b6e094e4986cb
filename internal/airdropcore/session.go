package airdropcore

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Session is the authenticated signing identity on one network. It is
// shared read-only during a run and is invalidated, never rewritten, when
// the connection drops or the network changes.
type Session struct {
	Identity common.Address
	ChainID  *big.Int
	Signer   bind.SignerFn

	mu   sync.Mutex
	err  error
	done chan struct{}
}

func NewSession(identity common.Address, chainID *big.Int, signer bind.SignerFn) *Session {
	return &Session{
		Identity: identity,
		ChainID:  new(big.Int).Set(chainID),
		Signer:   signer,
		done:     make(chan struct{}),
	}
}

// NewKeyedSession builds a session from a keyed transactor.
func NewKeyedSession(opts *bind.TransactOpts, chainID *big.Int) *Session {
	return NewSession(opts.From, chainID, opts.Signer)
}

// Invalidate marks the session dead. Only the first reason is kept.
func (s *Session) Invalidate(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if reason == nil {
		reason = fmt.Errorf("invalidated")
	}
	s.err = fmt.Errorf("%w: %w", ErrSessionInvalidated, reason)
	close(s.done)
}

// Err is nil while the session is valid.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed on invalidation.
func (s *Session) Done() <-chan struct{} { return s.done }
