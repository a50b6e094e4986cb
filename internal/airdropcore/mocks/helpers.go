package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockChainForTest wires a controller that finishes with the test.
func NewMockChainForTest(t *testing.T) *MockChain {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockChain(ctrl)
}

func NewMockFeeReaderForTest(t *testing.T) *MockFeeReader {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockFeeReader(ctrl)
}

func NewMockLedgerForTest(t *testing.T) *MockLedger {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockLedger(ctrl)
}
