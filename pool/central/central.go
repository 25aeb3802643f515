// Package central implements the shared middle tier: one free list and one
// mutex per size class. Thread caches cross into it in batches; on a miss it
// pulls a span from the page cache and carves it into blocks of the class's
// canonical size.
//
// The per-class locking is the scalability property of this tier. Concurrent
// requests for different classes never contend; there is deliberately no
// global lock anywhere in the package.
package central

import (
	"fmt"
	"sync"

	"github.com/zpool/mempool/internal/block"
	"github.com/zpool/mempool/pool/pagecache"
	"github.com/zpool/mempool/pool/sizeclass"
)

// ClassStats holds the counters of one size class, snapshotted under that
// class's lock.
type ClassStats struct {
	Fetches      int // FetchRange calls
	Returns      int // ReturnRange calls
	CarvedSpans  int // spans obtained from the page cache
	CarvedBlocks int // blocks produced by carving
	FreeBlocks   int // blocks currently on the shared list
}

type classList struct {
	mu    sync.Mutex
	free  block.List
	stats ClassStats
}

// Cache is the process-wide central cache. Create one per Pool with New; it
// lives as long as the pool.
type Cache struct {
	pages   *pagecache.Cache
	classes [sizeclass.NumClasses]classList
}

// New returns a central cache backed by the given page cache.
func New(pages *pagecache.Cache) *Cache {
	return &Cache{pages: pages}
}

func (c *Cache) class(index int) *classList {
	if index < 0 || index >= sizeclass.NumClasses {
		panic(fmt.Sprintf("central: size class %d out of range", index))
	}
	return &c.classes[index]
}

// FetchRange pops up to want blocks of the given class and returns them as a
// nil-terminated chain with its actual length. If the shared list runs
// short, a span sized to cover the shortfall is requested from the page
// cache, carved, and popping resumes. The chain may be shorter than
// requested, or empty when the whole system is out of memory; callers must
// treat an empty result as allocation failure, not retry here.
func (c *Cache) FetchRange(index, want int) (block.Pointer, int) {
	cl := c.class(index)

	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.stats.Fetches++
	if cl.free.Len() < want {
		c.carveLocked(cl, index, want-cl.free.Len())
	}
	head, got := cl.free.PopN(want)
	cl.stats.FreeBlocks = cl.free.Len()
	return head, got
}

// ReturnRange appends a chain to the class's shared list. count is the
// length the caller believes the chain has; the list measures the chain
// itself, so a short chain is tolerated rather than trusted.
func (c *Cache) ReturnRange(head block.Pointer, count, index int) {
	if head == nil {
		return
	}
	cl := c.class(index)

	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.stats.Returns++
	cl.free.PushAll(head)
	cl.stats.FreeBlocks = cl.free.Len()
}

// ClassStats snapshots one class's counters.
func (c *Cache) ClassStats(index int) ClassStats {
	cl := c.class(index)
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.stats
}

// Stats sums the counters of every class. Each class is locked in turn, so
// the result is per-class consistent, not a global snapshot.
func (c *Cache) Stats() ClassStats {
	var sum ClassStats
	for i := range c.classes {
		s := c.ClassStats(i)
		sum.Fetches += s.Fetches
		sum.Returns += s.Returns
		sum.CarvedSpans += s.CarvedSpans
		sum.CarvedBlocks += s.CarvedBlocks
		sum.FreeBlocks += s.FreeBlocks
	}
	return sum
}

// carveLocked obtains a span covering at least shortfall blocks of the
// class's size and carves it onto the free list. A page cache failure leaves
// the list as it was; FetchRange then returns whatever is on hand.
// Caller holds cl.mu.
func (c *Cache) carveLocked(cl *classList, index, shortfall int) {
	size := sizeclass.Size(index)
	span, err := c.pages.AllocSpan(pagecache.PagesFor(uintptr(shortfall) * size))
	if err != nil {
		return
	}
	span.SetClass(index)

	n := span.Bytes() / int(size)
	for i := n - 1; i >= 0; i-- {
		cl.free.Push(block.Add(span.Base(), uintptr(i)*size))
	}
	cl.stats.CarvedSpans++
	cl.stats.CarvedBlocks += n
}
