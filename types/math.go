package types

import "math"

// Checked arithmetic over ledger amounts. Every overflow surfaces as
// ErrMathOverflow instead of wrapping silently.

func SafeAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrMathOverflow
	}
	return a + b, nil
}

func SafeSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrMathOverflow
	}
	return a - b, nil
}

func SafeMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxUint64/b {
		return 0, ErrMathOverflow
	}
	return a * b, nil
}

func SafeAddInt64(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrMathOverflow
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, ErrMathOverflow
	}
	return a + b, nil
}

func SafeSubInt64(a, b int64) (int64, error) {
	if b == math.MinInt64 {
		if a >= 0 {
			return 0, ErrMathOverflow
		}
		return a - b, nil
	}
	return SafeAddInt64(a, -b)
}
