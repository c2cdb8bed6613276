package runtime

import (
	"math/big"

	"pyrite/internal/diag"
)

// The math builtins work on machine words, not on integer records.

func Abs(x int64) (int64, error) {
	if x < 0 {
		if x == -x {
			return 0, diag.Runtimef(diag.Overflow, "abs(%d) does not fit a machine word", x)
		}
		return -x, nil
	}
	return x, nil
}

func Min(x, y int64) int64 { return min(x, y) }

func Max(x, y int64) int64 { return max(x, y) }

// Pow raises x to a non-negative power y.
func Pow(x, y int64) (int64, error) {
	if y < 0 {
		return 0, diag.Runtimef(diag.InvalidArgument, "pow with negative exponent %d", y)
	}
	if y > 63 && (x > 1 || x < -1) {
		return 0, diag.Runtimef(diag.Overflow, "pow(%d, %d) does not fit a machine word", x, y)
	}
	r := new(big.Int).Exp(big.NewInt(x), big.NewInt(y), nil)
	if !r.IsInt64() {
		return 0, diag.Runtimef(diag.Overflow, "pow(%d, %d) does not fit a machine word", x, y)
	}
	return r.Int64(), nil
}
