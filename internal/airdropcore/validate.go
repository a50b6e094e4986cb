package airdropcore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress accepts 40-hex-digit addresses with or without 0x. All-lower
// or all-upper hex is taken as is; mixed case must match the EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	addr := common.HexToAddress(s)
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if strings.ToLower(body) != body && strings.ToUpper(body) != body {
		if addr.Hex() != "0x"+body {
			return common.Address{}, fmt.Errorf("bad checksum for address %q", s)
		}
	}
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("zero address")
	}
	return addr, nil
}

// ValidateRecipient checks the rules that hold regardless of asset.
func ValidateRecipient(r Recipient) error {
	if r.Address == (common.Address{}) {
		return errors.New("zero address")
	}
	return ValidAmount(r.Amount)
}

// NewRecipient validates raw fields into a Recipient.
func NewRecipient(address, amount, tokenType string, def TokenType, src Source) (Recipient, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return Recipient{}, NewError(KindInputValidation, err)
	}
	if err := ValidAmount(amount); err != nil {
		return Recipient{}, NewError(KindInputValidation, err)
	}
	tt, err := ParseTokenType(tokenType, def)
	if err != nil {
		return Recipient{}, err
	}
	return Recipient{Address: addr, Amount: strings.TrimSpace(amount), TokenType: tt, Source: src}, nil
}
