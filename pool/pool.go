package pool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/zpool/mempool/internal/osmem"
	"github.com/zpool/mempool/pool/central"
	"github.com/zpool/mempool/pool/pagecache"
	"github.com/zpool/mempool/pool/sizeclass"
)

// Pool is the allocator facade. It dispatches by size: managed sizes go
// through a Local (thread cache) into the central and page tiers, oversized
// requests map whole pages directly. A Pool is safe for concurrent use.
type Pool struct {
	cfg     Config
	pages   *pagecache.Cache
	central *central.Cache

	// locals backs Pool.Allocate/Deallocate for callers without an explicit
	// Local handle. sync.Pool discards parked items under GC pressure, so
	// every Local carries a finalizer that flushes its blocks back to the
	// central cache when the collector drops it; nothing is stranded.
	locals sync.Pool

	closed atomic.Bool

	allocs     atomic.Uint64
	frees      atomic.Uint64
	largeAlloc atomic.Uint64
	largeFree  atomic.Uint64
}

// New builds a pool and its shared tiers. cfg nil means DefaultConfig. The
// returned pool is fully initialized; no other setup call is needed before
// allocating.
func New(cfg *Config) *Pool {
	if cfg == nil {
		c := DefaultConfig
		cfg = &c
	}
	pages := pagecache.New()
	if cfg.MaxMappedBytes > 0 {
		pages.SetMappedLimit(cfg.MaxMappedBytes)
	}
	p := &Pool{
		cfg:     *cfg,
		pages:   pages,
		central: central.New(pages),
	}
	p.locals.New = func() any { return p.Local() }
	return p
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process-wide pool, created on first use with
// DefaultConfig. Code that can thread a *Pool handle through its call sites
// should prefer that; Default exists for the rest.
func Default() *Pool {
	defaultOnce.Do(func() { defaultPool = New(nil) })
	return defaultPool
}

// Allocate allocates size bytes from the default pool.
func Allocate(size uintptr) (unsafe.Pointer, error) {
	return Default().Allocate(size)
}

// Deallocate returns a block to the default pool. size must equal the value
// passed to the matching Allocate.
func Deallocate(ptr unsafe.Pointer, size uintptr) {
	Default().Deallocate(ptr, size)
}

// Local returns a fresh thread cache bound to this pool. A Local is
// exclusive to its owner and not safe for concurrent use; keep one per
// goroutine or worker, and Close it when the worker exits so its blocks
// return to the shared tier promptly. A Local that is dropped without Close
// is flushed by its finalizer instead, so held blocks are never stranded,
// only delayed until the collector gets to it.
func (p *Pool) Local() *Local {
	l := &Local{pool: p}
	runtime.SetFinalizer(l, (*Local).flush)
	return l
}

// Allocate allocates size bytes. Size zero is promoted to the minimum
// alignment unit; sizes above the managed maximum are satisfied by the
// unmanaged page-mapping path.
func (p *Pool) Allocate(size uintptr) (unsafe.Pointer, error) {
	if !sizeclass.Managed(size) {
		return p.allocateLarge(size)
	}
	l := p.locals.Get().(*Local)
	ptr, err := l.Allocate(size)
	p.locals.Put(l)
	return ptr, err
}

// Deallocate returns a block. size must equal the value passed to the
// matching Allocate; the allocator cannot detect a mismatch.
func (p *Pool) Deallocate(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil {
		return
	}
	if !sizeclass.Managed(size) {
		p.freeLarge(ptr, size)
		return
	}
	l := p.locals.Get().(*Local)
	l.Deallocate(ptr, size)
	p.locals.Put(l)
}

// Close unmaps every span the pool ever obtained. All outstanding managed
// blocks become invalid. Oversized blocks are individual mappings owned by
// their callers and are not touched. Finalizer flushes racing a closed pool
// become no-ops rather than writing into unmapped memory.
func (p *Pool) Close() error {
	p.closed.Store(true)
	return p.pages.Close()
}

// allocateLarge serves requests above the managed maximum. Each gets its own
// page-granular mapping so Deallocate can unmap from just (ptr, size).
func (p *Pool) allocateLarge(size uintptr) (unsafe.Pointer, error) {
	mem, err := osmem.Reserve(pagecache.PagesFor(size) * pagecache.PageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: oversized request of %d bytes: %v", ErrNoMemory, size, err)
	}
	p.largeAlloc.Add(1)
	debugf("oversized alloc: %d bytes -> %d pages", size, pagecache.PagesFor(size))
	return unsafe.Pointer(&mem[0]), nil
}

func (p *Pool) freeLarge(ptr unsafe.Pointer, size uintptr) {
	mem := unsafe.Slice((*byte)(ptr), pagecache.PagesFor(size)*pagecache.PageSize)
	if err := osmem.Release(mem); err != nil {
		debugf("oversized free failed: %v", err)
	}
	p.largeFree.Add(1)
}
