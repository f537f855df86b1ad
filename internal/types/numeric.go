package types

import (
	"fmt"
	"math/big"

	"github.com/chainscope/evm-token-indexer/internal/domain"
)

// Quantities are persisted as decimal strings in numeric(78,0) columns so
// full uint256 values survive the round trip. The helpers below do the
// arithmetic on big.Int and keep the string representation canonical.

// ParseNumeric parses a decimal string into a big.Int
func ParseNumeric(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	return v, nil
}

// AddNumeric returns a + b for decimal string quantities
func AddNumeric(a string, b string) (string, error) {
	av, err := ParseNumeric(a)
	if err != nil {
		return "", err
	}
	bv, err := ParseNumeric(b)
	if err != nil {
		return "", err
	}
	return new(big.Int).Add(av, bv).String(), nil
}

// SubNumeric returns a - b for decimal string quantities
func SubNumeric(a string, b string) (string, error) {
	av, err := ParseNumeric(a)
	if err != nil {
		return "", err
	}
	bv, err := ParseNumeric(b)
	if err != nil {
		return "", err
	}
	return new(big.Int).Sub(av, bv).String(), nil
}

// IsPositiveNumeric reports whether a decimal string quantity is > 0
func IsPositiveNumeric(s string) bool {
	v, err := ParseNumeric(s)
	if err != nil {
		return false
	}
	return v.Sign() > 0
}
