package sizeclass

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundUp(t *testing.T) {
	cases := []struct {
		in, want uintptr
	}{
		{0, 0},
		{1, 8},
		{7, 8},
		{8, 8},
		{9, 16},
		{255, 256},
		{256, 256},
	}
	for _, c := range cases {
		require.Equal(t, c.want, RoundUp(c.in), "RoundUp(%d)", c.in)
	}
}

func TestIndexSizeContract(t *testing.T) {
	for i := 0; i < NumClasses; i++ {
		require.Equal(t, i, Index(Size(i)), "Index(Size(%d))", i)
	}
}

func TestIndexMonotonic(t *testing.T) {
	prev := Index(1)
	for s := uintptr(2); s <= MaxBytes; s++ {
		cur := Index(s)
		require.GreaterOrEqual(t, cur, prev, "Index not monotonic at %d", s)
		require.Less(t, cur, NumClasses)
		prev = cur
	}
}

func TestIndexStable(t *testing.T) {
	for s := uintptr(1); s <= MaxBytes; s += 13 {
		first := Index(RoundUp(s))
		for i := 0; i < 3; i++ {
			require.Equal(t, first, Index(RoundUp(s)))
		}
	}
}

func TestIndexClampsTinySizes(t *testing.T) {
	require.Equal(t, 0, Index(0))
	require.Equal(t, 0, Index(1))
	require.Equal(t, 0, Index(Alignment))
	require.Equal(t, 1, Index(Alignment+1))
}

func TestSizePanicsOutOfRange(t *testing.T) {
	require.Panics(t, func() { Size(-1) })
	require.Panics(t, func() { Size(NumClasses) })
}

func TestManaged(t *testing.T) {
	require.True(t, Managed(0))
	require.True(t, Managed(MaxBytes))
	require.False(t, Managed(MaxBytes+1))
}

func TestBatchSize(t *testing.T) {
	// Inverse scaling: smaller blocks fetch in bigger batches.
	require.GreaterOrEqual(t, BatchSize(8), BatchSize(64))
	require.GreaterOrEqual(t, BatchSize(64), BatchSize(256))

	// Caps hold across the whole managed domain.
	for s := uintptr(1); s <= MaxBytes; s++ {
		n := BatchSize(s)
		require.GreaterOrEqual(t, n, minBatchCount)
		require.LessOrEqual(t, n, maxBatchCount)
	}
}

func TestBatchSizeClampsTinySizes(t *testing.T) {
	// Size zero belongs to the smallest class, same as Index and RoundUp
	// treat it; it must not divide by zero.
	require.Equal(t, BatchSize(Alignment), BatchSize(0))
	require.Equal(t, BatchSize(Alignment), BatchSize(1))
	require.Equal(t, maxBatchCount, BatchSize(0))
}
