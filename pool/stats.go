package pool

import (
	"github.com/zpool/mempool/pool/central"
	"github.com/zpool/mempool/pool/pagecache"
)

// Stats aggregates counters across the tiers. Facade counters are exact;
// the tier snapshots are each internally consistent but taken in turn.
type Stats struct {
	AllocCalls uint64 // managed allocations
	FreeCalls  uint64 // managed deallocations
	LargeAlloc uint64 // oversized (unmanaged) allocations
	LargeFree  uint64 // oversized deallocations

	Central central.ClassStats // summed over all size classes
	Pages   pagecache.Stats
}

// Stats snapshots the pool's counters.
func (p *Pool) Stats() Stats {
	return Stats{
		AllocCalls: p.allocs.Load(),
		FreeCalls:  p.frees.Load(),
		LargeAlloc: p.largeAlloc.Load(),
		LargeFree:  p.largeFree.Load(),
		Central:    p.central.Stats(),
		Pages:      p.pages.Stats(),
	}
}

// CentralClassStats exposes one class's central cache counters, mostly for
// tests and instrumentation.
func (p *Pool) CentralClassStats(index int) central.ClassStats {
	return p.central.ClassStats(index)
}
