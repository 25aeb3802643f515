// Package pool provides a tiered fixed-size-class memory allocator for
// workloads with frequent, same-sized allocate/free cycles.
//
// # Overview
//
// Three tiers sit between the caller and the operating system, from fastest
// to coarsest locking:
//
//   - Local: an unlocked per-worker cache of free lists, one per size class.
//     Most allocate/deallocate calls are satisfied here with no contention.
//   - central cache: one shared free list and one mutex per size class,
//     serving Locals in batches.
//   - page cache: spans of whole OS pages under a single process-wide mutex,
//     grown on demand, split and coalesced as spans circulate.
//
// Control flow on a miss runs Local -> central -> page cache -> OS; blocks
// flow back the other way. Requests above 256 bytes bypass every tier and
// map whole pages directly.
//
// # Usage
//
//	p := pool.New(nil)
//	defer p.Close()
//
//	l := p.Local() // one per goroutine/worker, not safe for concurrent use
//	defer l.Close()
//
//	ptr, err := l.Allocate(64)
//	if err != nil {
//		return err
//	}
//	// ... use the 64 bytes at ptr ...
//	l.Deallocate(ptr, 64)
//
// Deallocate must receive the same size that was passed to Allocate. The
// allocator never self-describes a block, so a mismatched size is silent
// corruption, not a checked error.
//
// Callers that cannot carry a Local use Pool.Allocate/Pool.Deallocate (or
// the package-level functions on the Default pool); an internal pool of
// Locals keeps that path mostly contention-free.
//
// # Memory model
//
// Managed blocks live in memory mapped outside the Go heap. The garbage
// collector never scans them: values stored there must not be the only
// reference to anything on the Go heap. Size zero is promoted to the
// minimum alignment unit and always succeeds while memory is available.
//
// A block may be allocated on one goroutine and freed on another; the
// allocator tracks no per-block owner. The only ordering guarantee between
// workers is mutual exclusion on the shared tiers.
package pool
