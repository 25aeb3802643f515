// Package pagecache owns every byte of memory the allocator obtains from the
// operating system, organized as spans of whole pages. It grows on demand,
// splits oversized spans, and coalesces address-adjacent free spans back
// together.
//
// A single process-wide mutex guards the whole structure. Page-level
// operations are rare next to block-level ones, so the coarse lock is not a
// bottleneck; the fine-grained locking lives in the tiers above.
//
// Spans are never returned to the operating system while the cache lives;
// Close unmaps everything at once. Spans carved into a size class by the
// central cache are likewise never reclaimed back here (documented design
// decision: reclaim would need per-span live-block accounting that nothing
// else in the design pays for).
package pagecache

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/zpool/mempool/internal/osmem"
)

// ErrMappedLimit is returned by AllocSpan when growing would push the total
// mapped bytes over the configured cap.
var ErrMappedLimit = errors.New("pagecache: mapped-byte limit reached")

const (
	// PageSize is the span granularity in bytes.
	PageSize = 4096

	// minGrowPages is the smallest request made to the operating system.
	// Small span requests ride along on one mapping and amortize the
	// syscall.
	minGrowPages = 32

	// maxBucketPages bounds the exact-size free buckets. Larger free spans
	// go on a single overflow list searched first-fit.
	maxBucketPages = 128
)

// PagesFor returns the page count covering the given byte size, at least one.
func PagesFor(bytes uintptr) int {
	if bytes == 0 {
		return 1
	}
	return int((bytes + PageSize - 1) / PageSize)
}

// Stats holds page cache counters. MappedBytes always equals
// FreeBytes + InUseBytes: splitting and coalescing neither create nor lose
// coverage.
type Stats struct {
	GrowCalls    int   // OS memory requests
	MappedBytes  int64 // total bytes ever obtained from the OS
	FreeBytes    int64 // bytes sitting in free spans
	InUseBytes   int64 // bytes in spans currently handed out
	SpanAllocs   int
	SpanReleases int
	Splits       int
	Merges       int
}

// Cache is the page-granular backing store manager.
type Cache struct {
	mu       sync.Mutex
	buckets  [maxBucketPages + 1]*Span // exact page-count free lists
	large    *Span                     // free spans above maxBucketPages
	byStart  map[uintptr]*Span         // free spans keyed by first byte
	byEnd    map[uintptr]*Span         // free spans keyed by one-past-last byte
	mappings [][]byte                  // OS regions, retained until Close
	limit    int64                     // mapped-byte cap, 0 means unlimited
	stats    Stats
}

// New returns an empty page cache. No memory is reserved until the first
// span request; the union of spans only ever grows from what callers need.
func New() *Cache {
	return &Cache{
		byStart: make(map[uintptr]*Span),
		byEnd:   make(map[uintptr]*Span),
	}
}

// AllocSpan hands out a span of exactly pages pages. The free index is
// searched for the smallest-bucketed fit; a larger span is split and its
// tail reinserted. If nothing fits, a new region is requested from the
// operating system. A failed OS request propagates as an error, never a
// retry.
func (c *Cache) AllocSpan(pages int) (*Span, error) {
	if pages <= 0 {
		return nil, fmt.Errorf("pagecache: bad span size %d pages", pages)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.take(pages)
	if s == nil {
		grow := pages
		if grow < minGrowPages {
			grow = minGrowPages
		}
		if c.limit > 0 && c.stats.MappedBytes+int64(grow*PageSize) > c.limit {
			return nil, fmt.Errorf("%w: %d pages would exceed %d bytes", ErrMappedLimit, grow, c.limit)
		}
		mem, err := osmem.Reserve(grow * PageSize)
		if err != nil {
			return nil, fmt.Errorf("pagecache: grow %d pages: %w", grow, err)
		}
		c.mappings = append(c.mappings, mem)
		c.stats.GrowCalls++
		c.stats.MappedBytes += int64(len(mem))

		c.insertFree(&Span{
			base:  unsafe.Pointer(&mem[0]),
			pages: grow,
			class: Unassigned,
		})
		s = c.take(pages)
	}

	c.stats.SpanAllocs++
	c.stats.InUseBytes += int64(s.Bytes())
	return s, nil
}

// ReleaseSpan reinserts a span into the free index, first merging it with
// any address-adjacent free neighbor, repeatedly, until no contiguous free
// neighbor exists.
func (c *Cache) ReleaseSpan(s *Span) {
	if s == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.SpanReleases++
	c.stats.InUseBytes -= int64(s.Bytes())
	s.class = Unassigned

	// Absorb free successors.
	for {
		n := c.byStart[s.end()]
		if n == nil {
			break
		}
		c.removeFree(n)
		s.pages += n.pages
		c.stats.Merges++
	}
	// Fold into free predecessors.
	for {
		p := c.byEnd[s.start()]
		if p == nil {
			break
		}
		c.removeFree(p)
		p.pages += s.pages
		s = p
		c.stats.Merges++
	}

	c.insertFree(s)
}

// SetMappedLimit caps how many bytes the cache may obtain from the operating
// system in total. Zero removes the cap. A grow over the cap fails the span
// request with ErrMappedLimit; already-mapped memory is unaffected.
func (c *Cache) SetMappedLimit(bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = bytes
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close returns every OS region. All spans and blocks carved from this cache
// become invalid; the cache must not be used afterwards.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, mem := range c.mappings {
		if err := osmem.Release(mem); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.mappings = nil
	c.buckets = [maxBucketPages + 1]*Span{}
	c.large = nil
	c.byStart = make(map[uintptr]*Span)
	c.byEnd = make(map[uintptr]*Span)
	return firstErr
}

// take removes and returns a free span of exactly pages pages, splitting a
// larger one if needed. Returns nil when no free span is big enough.
// Caller holds c.mu.
func (c *Cache) take(pages int) *Span {
	var s *Span

	if pages <= maxBucketPages {
		for n := pages; n <= maxBucketPages; n++ {
			if c.buckets[n] != nil {
				s = c.buckets[n]
				break
			}
		}
	}
	if s == nil {
		// First fit over the overflow list.
		for cand := c.large; cand != nil; cand = cand.next {
			if cand.pages >= pages {
				s = cand
				break
			}
		}
	}
	if s == nil {
		return nil
	}

	c.removeFree(s)
	if s.pages > pages {
		// Reinsert the unused tail as its own free span. Coverage is
		// preserved exactly: head bytes + tail bytes == original bytes.
		c.insertFree(&Span{
			base:  unsafe.Add(s.base, pages*PageSize),
			pages: s.pages - pages,
			class: Unassigned,
		})
		c.stats.Splits++
		s.pages = pages
	}
	return s
}

// insertFree links a span into its bucket and the adjacency maps.
// Caller holds c.mu.
func (c *Cache) insertFree(s *Span) {
	if s.pages <= maxBucketPages {
		s.next = c.buckets[s.pages]
		c.buckets[s.pages] = s
	} else {
		s.next = c.large
		c.large = s
	}
	c.byStart[s.start()] = s
	c.byEnd[s.end()] = s
	c.stats.FreeBytes += int64(s.Bytes())
}

// removeFree unlinks a span from its bucket and the adjacency maps.
// Caller holds c.mu.
func (c *Cache) removeFree(s *Span) {
	head := &c.large
	if s.pages <= maxBucketPages {
		head = &c.buckets[s.pages]
	}
	for cur := head; *cur != nil; cur = &(*cur).next {
		if *cur == s {
			*cur = s.next
			break
		}
	}
	s.next = nil
	delete(c.byStart, s.start())
	delete(c.byEnd, s.end())
	c.stats.FreeBytes -= int64(s.Bytes())
}
