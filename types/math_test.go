package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeAdd(t *testing.T) {
	v, err := SafeAdd(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)

	_, err = SafeAdd(math.MaxUint64, 1)
	assert.Equal(t, ErrMathOverflow, err)
}

func TestSafeSub(t *testing.T) {
	v, err := SafeSub(5, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	_, err = SafeSub(4, 5)
	assert.Equal(t, ErrMathOverflow, err)
}

func TestSafeMul(t *testing.T) {
	v, err := SafeMul(0, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	v, err = SafeMul(MaxWagerAmount, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(MaxWagerAmount)*2, v)

	_, err = SafeMul(MaxWagerAmount, 5)
	assert.Equal(t, ErrMathOverflow, err)
}

func TestSafeInt64(t *testing.T) {
	v, err := SafeAddInt64(-5, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	_, err = SafeAddInt64(math.MaxInt64, 1)
	assert.Equal(t, ErrMathOverflow, err)
	_, err = SafeAddInt64(math.MinInt64, -1)
	assert.Equal(t, ErrMathOverflow, err)

	v, err = SafeSubInt64(-1, math.MinInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), v)
	_, err = SafeSubInt64(0, math.MinInt64)
	assert.Equal(t, ErrMathOverflow, err)
}
