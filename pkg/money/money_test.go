package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRateRoundsHalfUp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		amount int64
		rate   string
		want   int64
	}{
		{amount: 5000, rate: "0.05", want: 250},
		{amount: 5250, rate: "0.04", want: 210},
		{amount: 5000, rate: "0.10", want: 500},
		{amount: 1250, rate: "0.07", want: 88}, // 87.5 rounds up
		{amount: 1249, rate: "0.07", want: 87}, // 87.43 rounds down
		{amount: 50, rate: "0.01", want: 1},    // 0.5 rounds up
		{amount: 49, rate: "0.01", want: 0},    // 0.49 rounds down
		{amount: 0, rate: "0.10", want: 0},
		{amount: -100, rate: "0.10", want: 0},
		{amount: 100, rate: "0", want: 0},
	}

	for _, tc := range cases {
		got := ApplyRate(tc.amount, MustRate(tc.rate))
		assert.Equal(t, tc.want, got, "amount=%d rate=%s", tc.amount, tc.rate)
	}
}

func TestAllocateSumsExactly(t *testing.T) {
	t.Parallel()

	parts, err := Allocate(500, []int64{3000, 2000})
	require.NoError(t, err)
	assert.Equal(t, []int64{300, 200}, parts)

	parts, err = Allocate(100, []int64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{34, 33, 33}, parts)

	parts, err = Allocate(7, []int64{0, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, int64(0), parts[0])
	assert.Equal(t, int64(7), parts[1]+parts[2])
}

func TestAllocateRejectsBadWeights(t *testing.T) {
	t.Parallel()

	_, err := Allocate(10, []int64{0, 0})
	require.Error(t, err)

	_, err = Allocate(10, []int64{5, -1})
	require.Error(t, err)

	parts, err := Allocate(0, []int64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0}, parts)
}

func TestFormattingHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "54.60", Format(5460))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "7%", Percent(MustRate("0.07")))
	assert.Equal(t, "10%", Percent(MustRate("0.10")))
	assert.Equal(t, "0.0500", Ratio(250, 5000).StringFixed(4))
	assert.True(t, Ratio(1, 0).IsZero())
}
