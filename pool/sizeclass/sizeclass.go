// Package sizeclass maps requested byte sizes to size-class indexes and
// canonical block sizes. The mapping is a pure function of its input; the
// thread cache and the central cache both call it and must never disagree on
// which class a size belongs to.
package sizeclass

const (
	// Alignment is the alignment unit. Every canonical block size is a
	// multiple of it, and no block may be smaller than one unit (the free
	// list needs a machine word per block).
	Alignment = 8

	// MaxBytes is the largest managed request. Anything bigger bypasses
	// every cache tier and is served by the unmanaged backing allocator.
	MaxBytes = 256

	// NumClasses is the number of size classes. Class i holds blocks of
	// (i+1)*Alignment bytes.
	NumClasses = MaxBytes / Alignment
)

// Batch sizing constants. Fetching from the central cache has a fixed cost
// (a lock crossing), so small blocks are moved in larger batches. The byte
// budget keeps a batch of any class around the same total size.
const (
	batchBytes    = 2048
	minBatchCount = 2
	maxBatchCount = 64
)

// RoundUp rounds bytes up to the nearest multiple of Alignment. Bit masking,
// not division; this sits on the allocation fast path.
func RoundUp(bytes uintptr) uintptr {
	return (bytes + Alignment - 1) &^ (Alignment - 1)
}

// Index returns the size-class index for a request of the given size.
// Requests below one alignment unit are clamped up to it. The result is
// monotonic non-decreasing in bytes and satisfies Index(Size(i)) == i.
//
// Callers must not pass bytes > MaxBytes; such requests belong to the
// unmanaged path and never reach the class table.
func Index(bytes uintptr) int {
	if bytes < Alignment {
		bytes = Alignment
	}
	return int((bytes+Alignment-1)/Alignment) - 1
}

// Size returns the canonical block size of a class. An index outside the
// configured table is a programming error, not a recoverable condition.
func Size(index int) uintptr {
	if index < 0 || index >= NumClasses {
		panic("sizeclass: index out of range")
	}
	return uintptr(index+1) * Alignment
}

// Managed reports whether a request of the given size is served by the cache
// tiers at all.
func Managed(bytes uintptr) bool {
	return bytes <= MaxBytes
}

// BatchSize returns how many blocks of the given size the thread cache
// fetches from the central cache in one crossing. Scales inversely with the
// block size and is capped in both directions. Sizes below one alignment
// unit are clamped up to it, like Index.
func BatchSize(bytes uintptr) int {
	if bytes < Alignment {
		bytes = Alignment
	}
	n := batchBytes / int(RoundUp(bytes))
	if n < minBatchCount {
		return minBatchCount
	}
	if n > maxBatchCount {
		return maxBatchCount
	}
	return n
}
