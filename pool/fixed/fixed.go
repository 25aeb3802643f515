// Package fixed is the single-tier precursor of the tiered allocator: one
// pool per slot size, built from a grow-only arena and an intrusive reuse
// list. It survives here for workloads that only ever allocate one size and
// want the absolute minimum of machinery.
//
// Two separate mutexes express the design's one idea worth keeping: the
// "reuse already-freed memory" path and the "grow the backing arena" path
// are locked independently, so one worker growing the arena never blocks
// another worker recycling a slot.
package fixed

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/zpool/mempool/internal/block"
	"github.com/zpool/mempool/pool/sizeclass"
)

// DefaultChunkBytes is the arena growth unit.
const DefaultChunkBytes = 4096

// ErrBadSlotSize is returned for a zero slot size.
var ErrBadSlotSize = errors.New("fixed: slot size must be positive")

// Pool hands out fixed-size slots. Safe for concurrent use.
type Pool struct {
	slotSize   uintptr
	chunkBytes uintptr

	// freeMu guards the reuse list only.
	freeMu sync.Mutex
	free   block.List

	// growMu guards the bump region and arena growth only.
	growMu sync.Mutex
	arenas [][]byte
	cur    []byte  // arena currently being bumped
	off    uintptr // next unused byte in cur
}

// New builds a pool of slots of the given size, rounded up to the alignment
// unit. Nothing is reserved until the first Get.
func New(slotSize uintptr) (*Pool, error) {
	if slotSize == 0 {
		return nil, ErrBadSlotSize
	}
	slot := sizeclass.RoundUp(slotSize)
	chunk := uintptr(DefaultChunkBytes)
	for chunk < slot+sizeclass.Alignment {
		chunk *= 2
	}
	return &Pool{slotSize: slot, chunkBytes: chunk}, nil
}

// SlotSize returns the rounded-up slot size in bytes.
func (p *Pool) SlotSize() uintptr { return p.slotSize }

// Get returns a slot. Previously released slots are reused first; otherwise
// the slot is bumped off the current arena, growing it when exhausted.
func (p *Pool) Get() unsafe.Pointer {
	p.freeMu.Lock()
	if ptr := p.free.Pop(); ptr != nil {
		p.freeMu.Unlock()
		return ptr
	}
	p.freeMu.Unlock()

	p.growMu.Lock()
	defer p.growMu.Unlock()

	if p.cur == nil || p.off+p.slotSize > uintptr(len(p.cur)) {
		p.grow()
	}
	ptr := unsafe.Pointer(&p.cur[p.off])
	p.off += p.slotSize
	return ptr
}

// Put releases a slot back to the reuse list. ptr must come from Get on the
// same pool; the slot's contents are dead after Put.
func (p *Pool) Put(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	p.freeMu.Lock()
	p.free.Push(ptr)
	p.freeMu.Unlock()
}

// grow appends a fresh arena and aligns the bump offset so every slot falls
// on an alignment-unit boundary. Arenas are kept for the pool's lifetime;
// the pool only ever grows. Caller holds growMu.
func (p *Pool) grow() {
	arena := make([]byte, p.chunkBytes)
	p.arenas = append(p.arenas, arena)
	p.cur = arena

	base := uintptr(unsafe.Pointer(&arena[0]))
	p.off = (sizeclass.Alignment - base%sizeclass.Alignment) % sizeclass.Alignment
}
