package central

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zpool/mempool/internal/block"
	"github.com/zpool/mempool/pool/pagecache"
	"github.com/zpool/mempool/pool/sizeclass"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	pages := pagecache.New()
	t.Cleanup(func() { require.NoError(t, pages.Close()) })
	return New(pages)
}

func TestFetchRangeCarvesOnMiss(t *testing.T) {
	c := newTestCache(t)
	idx := sizeclass.Index(64)

	head, got := c.FetchRange(idx, 16)
	require.NotNil(t, head)
	require.Equal(t, 16, got)
	require.Equal(t, 16, block.Count(head))

	st := c.ClassStats(idx)
	require.Equal(t, 1, st.Fetches)
	require.Equal(t, 1, st.CarvedSpans)
	// One page of 64-byte blocks covers the shortfall, so the carve
	// produced more blocks than requested and the rest stayed shared.
	require.Greater(t, st.CarvedBlocks, 16)
	require.Equal(t, st.CarvedBlocks-16, st.FreeBlocks)
}

func TestFetchRangeChainIsAcyclic(t *testing.T) {
	c := newTestCache(t)
	idx := sizeclass.Index(8)

	head, got := c.FetchRange(idx, 32)
	require.Equal(t, 32, got)

	seen := make(map[block.Pointer]bool, got)
	for p := head; p != nil; p = block.Next(p) {
		require.False(t, seen[p], "block appears twice in fetched chain")
		seen[p] = true
	}
	require.Len(t, seen, 32)
}

func TestReturnRangeThenFetchReuses(t *testing.T) {
	c := newTestCache(t)
	idx := sizeclass.Index(128)

	head, got := c.FetchRange(idx, 8)
	require.Equal(t, 8, got)

	c.ReturnRange(head, got, idx)

	st := c.ClassStats(idx)
	require.Equal(t, 1, st.Returns)

	// The second fetch is served from the shared list, no new carve.
	head2, got2 := c.FetchRange(idx, 8)
	require.Equal(t, 8, got2)
	require.NotNil(t, head2)
	require.Equal(t, 1, c.ClassStats(idx).CarvedSpans)
}

func TestFetchRangeDistinctAddressesAcrossCalls(t *testing.T) {
	c := newTestCache(t)
	idx := sizeclass.Index(32)

	seen := make(map[block.Pointer]bool)
	for i := 0; i < 4; i++ {
		head, got := c.FetchRange(idx, 16)
		require.Equal(t, 16, got)
		for p := head; p != nil; p = block.Next(p) {
			require.False(t, seen[p], "address handed out twice without a return")
			seen[p] = true
		}
	}
}

func TestClassesDoNotShareBlocks(t *testing.T) {
	c := newTestCache(t)

	h8, n8 := c.FetchRange(sizeclass.Index(8), 4)
	h256, n256 := c.FetchRange(sizeclass.Index(256), 4)
	require.Equal(t, 4, n8)
	require.Equal(t, 4, n256)

	addrs := make(map[block.Pointer]bool)
	for p := h8; p != nil; p = block.Next(p) {
		addrs[p] = true
	}
	for p := h256; p != nil; p = block.Next(p) {
		require.False(t, addrs[p], "classes handed out the same address")
	}
}

func TestConcurrentFetchSameClass(t *testing.T) {
	c := newTestCache(t)
	idx := sizeclass.Index(16)

	const workers = 4
	const perWorker = 25

	var mu sync.Mutex
	seen := make(map[block.Pointer]int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				head, got := c.FetchRange(idx, 4)
				require.Positive(t, got)
				mu.Lock()
				for p := head; p != nil; p = block.Next(p) {
					seen[p]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for p, n := range seen {
		require.Equal(t, 1, n, "block %v fetched twice concurrently", p)
	}
}

func TestOutOfRangeClassPanics(t *testing.T) {
	c := newTestCache(t)
	require.Panics(t, func() { c.FetchRange(-1, 1) })
	require.Panics(t, func() { c.FetchRange(sizeclass.NumClasses, 1) })
}

func TestStatsAggregates(t *testing.T) {
	c := newTestCache(t)

	c.FetchRange(sizeclass.Index(8), 4)
	c.FetchRange(sizeclass.Index(64), 4)

	sum := c.Stats()
	require.Equal(t, 2, sum.Fetches)
	require.Equal(t, 2, sum.CarvedSpans)
}
