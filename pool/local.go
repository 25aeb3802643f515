package pool

import (
	"unsafe"

	"github.com/zpool/mempool/internal/block"
	"github.com/zpool/mempool/pool/sizeclass"
)

// Local is the per-worker tier: one unlocked free list per size class. It is
// exclusive to its owner; cross-worker interaction happens only through the
// central cache's locked operations. Blocks allocated through one Local may
// be freed through another.
type Local struct {
	pool  *Pool
	lists [sizeclass.NumClasses]block.List
}

// Allocate allocates size bytes. Size zero is promoted to the minimum
// alignment unit; a size above the managed maximum is forwarded to the
// pool's unmanaged path. Returns ErrNoMemory when the whole system is out
// of memory.
func (l *Local) Allocate(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		size = sizeclass.Alignment
	}
	if !sizeclass.Managed(size) {
		return l.pool.allocateLarge(size)
	}

	index := sizeclass.Index(size)
	if fl := &l.lists[index]; !fl.Empty() {
		l.pool.allocs.Add(1)
		return fl.Pop(), nil
	}
	ptr, err := l.refill(index)
	if err != nil {
		return nil, err
	}
	l.pool.allocs.Add(1)
	return ptr, nil
}

// Deallocate pushes a block back on the local list for its class. When the
// list exceeds the high-water mark, a bounded fraction is returned to the
// central cache; at least one block always stays local. size must equal the
// value passed at allocation.
func (l *Local) Deallocate(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil {
		return
	}
	if size == 0 {
		size = sizeclass.Alignment
	}
	if !sizeclass.Managed(size) {
		l.pool.freeLarge(ptr, size)
		return
	}
	l.pool.frees.Add(1)

	index := sizeclass.Index(size)
	fl := &l.lists[index]
	fl.Push(ptr)

	if fl.Len() > l.pool.cfg.HighWaterMark {
		keep := fl.Len() / 4
		head, n := fl.Split(keep)
		if n > 0 {
			debugf("class %d over high-water mark: keeping %d, returning %d", index, fl.Len(), n)
			l.pool.central.ReturnRange(head, n, index)
		}
	}
}

// Close flushes every block the Local still holds back to the central cache
// and leaves the Local empty. This is the thread-exit policy: held blocks
// are returned, never discarded, since carved spans are not otherwise
// reclaimed. The Local may be reused afterwards but starts cold.
func (l *Local) Close() {
	l.flush()
}

// flush moves every held block back to the central cache. It doubles as the
// finalizer for Locals dropped without Close (the facade's sync.Pool sheds
// its items under GC pressure); after the pool itself has closed the blocks
// point into unmapped memory, so flushing degrades to a no-op.
func (l *Local) flush() {
	if l.pool.closed.Load() {
		return
	}
	for index := range l.lists {
		head, n := l.lists[index].PopAll()
		if n > 0 {
			l.pool.central.ReturnRange(head, n, index)
		}
	}
}

// refill fetches one batch from the central cache, hands the first block to
// the caller, and keeps the rest. The kept count is measured by walking the
// chain: the central cache may legitimately return fewer blocks than asked
// for under memory pressure.
func (l *Local) refill(index int) (unsafe.Pointer, error) {
	want := sizeclass.BatchSize(sizeclass.Size(index))
	head, got := l.pool.central.FetchRange(index, want)
	if got == 0 || head == nil {
		return nil, ErrNoMemory
	}

	rest := block.Next(head)
	l.lists[index].PushAll(rest)
	return head, nil
}
