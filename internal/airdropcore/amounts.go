package airdropcore

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// ParseUnits converts a positive decimal string into the smallest unit of an
// asset with the given decimals. Exponents, signs and separators are rejected.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		decimals = 18
	}
	intPart, fracPart, err := splitDecimal(amount)
	if err != nil {
		return nil, err
	}
	amount = strings.TrimSpace(amount)
	fracPart = strings.TrimRight(fracPart, "0")
	if len(fracPart) > decimals {
		return nil, fmt.Errorf("amount %q has too many fractional digits for %d decimals", amount, decimals)
	}
	fracPart = fracPart + strings.Repeat("0", decimals-len(fracPart))
	clean := strings.TrimLeft(intPart+fracPart, "0")
	if clean == "" {
		return nil, fmt.Errorf("amount %q must be positive", amount)
	}
	v, ok := new(big.Int).SetString(clean, 10)
	if !ok {
		return nil, fmt.Errorf("bad amount %q", amount)
	}
	if !fitsUint256(v) {
		return nil, fmt.Errorf("amount %q overflows uint256", amount)
	}
	return v, nil
}

// ValidAmount checks that amount is a positive decimal without fixing the
// precision; ParseUnits applies the asset's decimals later.
func ValidAmount(amount string) error {
	intPart, fracPart, err := splitDecimal(amount)
	if err != nil {
		return err
	}
	if strings.Trim(intPart+fracPart, "0") == "" {
		return fmt.Errorf("amount %q must be positive", strings.TrimSpace(amount))
	}
	return nil
}

func splitDecimal(amount string) (intPart, fracPart string, err error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return "", "", fmt.Errorf("empty amount")
	}
	parts := strings.SplitN(amount, ".", 2)
	intPart = parts[0]
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return "", "", fmt.Errorf("bad amount %q", amount)
	}
	if !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return "", "", fmt.Errorf("amount %q is not a decimal number", amount)
	}
	return intPart, fracPart, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fitsUint256(v *big.Int) bool {
	if v == nil || v.Sign() < 0 {
		return false
	}
	_, overflow := uint256.FromBig(v)
	return !overflow
}

// FormatUnits renders a smallest-unit amount as a decimal string.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	if decimals <= 0 {
		return v.String()
	}
	s := new(big.Int).Abs(v).String()
	neg := v.Sign() < 0
	if len(s) <= decimals {
		frac := strings.Repeat("0", decimals-len(s)) + s
		out := "0." + strings.TrimRight(frac, "0")
		if out == "0." {
			out = "0"
		}
		if neg {
			return "-" + out
		}
		return out
	}
	intPart := s[:len(s)-decimals]
	frac := strings.TrimRight(s[len(s)-decimals:], "0")
	out := intPart
	if frac != "" {
		out = intPart + "." + frac
	}
	if neg {
		return "-" + out
	}
	return out
}

// sumAmounts adds amounts and checks the total still fits a uint256.
func sumAmounts(amounts []*big.Int) (*big.Int, error) {
	total := new(big.Int)
	for _, a := range amounts {
		total.Add(total, a)
	}
	if !fitsUint256(total) {
		return nil, fmt.Errorf("batch total %s overflows uint256", total)
	}
	return total, nil
}
