package airdropcore

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	const checksummed = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

	for _, in := range []string{
		checksummed,
		"0x742d35cc6634c0532925a3b844bc454e4438f44e",
		"0x742D35CC6634C0532925A3B844BC454E4438F44E",
		"742d35cc6634c0532925a3b844bc454e4438f44e",
		"  " + checksummed + " ",
	} {
		addr, err := ParseAddress(in)
		require.NoError(t, err, in)
		assert.Equal(t, common.HexToAddress(checksummed), addr)
	}

	for _, in := range []string{
		"",
		"0x742d35Cc6634C0532925a3b844Bc454e4438f44",   // 39 digits
		"0x742d35Cc6634C0532925a3b844Bc454e4438f44E",  // wrong checksum
		"0x742d35cc6634c0532925a3b844bc454e4438f44g",  // not hex
		"0x0000000000000000000000000000000000000000",  // zero
		"0x742d35cc6634c0532925a3b844bc454e4438f44e0", // 41 digits
	} {
		_, err := ParseAddress(in)
		assert.Error(t, err, in)
	}
}

func TestNewRecipient(t *testing.T) {
	r, err := NewRecipient("0x742d35cc6634c0532925a3b844bc454e4438f44e", " 2.5 ", "", TokenOPN, SourceManual)
	require.NoError(t, err)
	assert.Equal(t, "2.5", r.Amount)
	assert.Equal(t, TokenOPN, r.TokenType)
	assert.Equal(t, SourceManual, r.Source)

	r, err = NewRecipient("0x742d35cc6634c0532925a3b844bc454e4438f44e", "1", "erc20", TokenNative, SourceCSV)
	require.NoError(t, err)
	assert.Equal(t, TokenERC20, r.TokenType)

	_, err = NewRecipient("0x1", "1", "", TokenNative, SourceManual)
	assert.True(t, IsKind(err, KindInputValidation))

	_, err = NewRecipient("0x742d35cc6634c0532925a3b844bc454e4438f44e", "0", "", TokenNative, SourceManual)
	assert.True(t, IsKind(err, KindInputValidation))

	_, err = NewRecipient("0x742d35cc6634c0532925a3b844bc454e4438f44e", "1", "BTC", TokenNative, SourceManual)
	assert.True(t, IsKind(err, KindInputValidation))
}

func TestValidateRecipient(t *testing.T) {
	assert.Error(t, ValidateRecipient(Recipient{Amount: "1"}))
	assert.Error(t, ValidateRecipient(Recipient{Address: common.HexToAddress("0x01"), Amount: "x"}))
	assert.NoError(t, ValidateRecipient(Recipient{Address: common.HexToAddress("0x01"), Amount: "1"}))
}
