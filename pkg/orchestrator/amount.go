package orchestrator

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/Baiumka/miner-client/pkg/app/errors"
)

// e8sPerToken is the minor-unit scale: 1 token = 10^8 e8s.
var e8sPerToken = decimal.New(1, 8)

// ParseAmountE8s converts a user-entered decimal token amount to e8s.
// The conversion is exact: more than 8 decimal places, zero, negatives and
// non-numbers are all rejected. Each action converts exactly once; e8s values
// are never round-tripped back through decimals.
func ParseAmountE8s(input string) (uint64, error) {
	d, err := decimal.NewFromString(input)
	if err != nil {
		return 0, apperrors.ValidationError(err, fmt.Sprintf("%q is not a decimal amount", input))
	}
	if !d.IsPositive() {
		return 0, apperrors.ValidationError(nil, "amount must be positive")
	}

	minor := d.Mul(e8sPerToken)
	if !minor.IsInteger() {
		return 0, apperrors.ValidationError(nil, "amount supports at most 8 decimal places")
	}
	bi := minor.BigInt()
	if !bi.IsUint64() {
		return 0, apperrors.ValidationError(nil, "amount is out of range")
	}
	return bi.Uint64(), nil
}

// FormatE8s renders an e8s amount as a decimal token string for display.
func FormatE8s(e8s uint64) string {
	return decimal.NewFromUint64(e8s).Div(e8sPerToken).String()
}

// TokensFloat renders an e8s amount as a float for metrics only.
func TokensFloat(e8s uint64) float64 {
	f, _ := decimal.NewFromUint64(e8s).Div(e8sPerToken).Float64()
	return f
}
