package chain

import (
	"fmt"
	"math/big"
	"strings"
)

const etherDecimals = 18

// FormatEther renders wei as a decimal ether string without rounding.
// Whole amounts keep one fractional digit ("1.0").
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, etherDecimals)
}

// FormatUnits renders raw with the given number of decimals.
func FormatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0.0"
	}
	sign := ""
	v := new(big.Int).Set(raw)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	if decimals <= 0 {
		return sign + v.String() + ".0"
	}

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(v, unit, new(big.Int))

	fs := fmt.Sprintf("%0*s", decimals, frac.String())
	fs = strings.TrimRight(fs, "0")
	if fs == "" {
		fs = "0"
	}
	return sign + whole.String() + "." + fs
}

// ParseEther converts a decimal ether amount ("1", "0.25") to wei.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, etherDecimals)
}

// ParseUnits converts a decimal amount to its raw integer form.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("invalid amount %q", s)
		}
	}

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}
