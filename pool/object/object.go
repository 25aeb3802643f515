// Package object pairs allocation with in-place construction. It is a thin
// convenience layer over Pool.Allocate/Deallocate and holds no allocator
// state of its own: obtain correctly sized raw storage, initialize it in
// place, and run the finalizer before the storage is released.
//
// The allocator remains entirely unaware of the stored type. Two hard
// constraints follow from the arena living outside the Go heap:
//
//   - T must not hold the only reference to anything on the Go heap; the
//     garbage collector never scans pool memory.
//   - T must not require alignment stricter than the pool's alignment unit.
package object

import (
	"errors"
	"unsafe"

	"github.com/zpool/mempool/pool"
	"github.com/zpool/mempool/pool/sizeclass"
)

// ErrAlignment is returned for types whose alignment exceeds the pool's
// alignment unit.
var ErrAlignment = errors.New("object: type alignment exceeds pool alignment unit")

// New allocates zeroed storage for a T and returns it as *T.
func New[T any](p *pool.Pool) (*T, error) {
	var probe T
	if unsafe.Alignof(probe) > sizeclass.Alignment {
		return nil, ErrAlignment
	}
	size := unsafe.Sizeof(probe)

	ptr, err := p.Allocate(size)
	if err != nil {
		return nil, err
	}
	if size > 0 {
		clear(unsafe.Slice((*byte)(ptr), size))
	}
	return (*T)(ptr), nil
}

// NewWith allocates zeroed storage for a T and runs init on it in place.
func NewWith[T any](p *pool.Pool, init func(*T)) (*T, error) {
	v, err := New[T](p)
	if err != nil {
		return nil, err
	}
	if init != nil {
		init(v)
	}
	return v, nil
}

// Delete releases the storage behind v. v must come from New/NewWith on the
// same pool and must not be used afterwards.
func Delete[T any](p *pool.Pool, v *T) {
	DeleteWith(p, v, nil)
}

// DeleteWith runs fini on v in place, then releases its storage.
func DeleteWith[T any](p *pool.Pool, v *T, fini func(*T)) {
	if v == nil {
		return
	}
	if fini != nil {
		fini(v)
	}
	p.Deallocate(unsafe.Pointer(v), unsafe.Sizeof(*v))
}
