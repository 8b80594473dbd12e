package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseBigInt checks if a string is a valid base-10 big integer.
func ParseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("value cannot be empty")
	}

	bigInt := new(big.Int)
	_, success := bigInt.SetString(value, 10)
	if !success {
		return nil, fmt.Errorf("invalid big integer format")
	}

	return bigInt, nil
}

// FormatUnits formats a smallest-unit amount as a fixed-point decimal
// string, e.g. 5000000 with 6 decimals -> "5.000000". Display only; amount
// comparisons are done on the raw integers.
func FormatUnits(amount *big.Int, decimals int) string {
	dec := decimal.NewFromBigInt(amount, -int32(decimals))
	return dec.StringFixed(int32(decimals))
}

// ParseUnits parses a decimal amount string into a smallest-unit integer.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	scale := decimal.NewFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil), 0)
	scaled := dec.Mul(scale)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount has more than %d decimal places", decimals)
	}

	return scaled.BigInt(), nil
}
