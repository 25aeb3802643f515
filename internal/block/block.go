// Package block implements the intrusive free-list mechanics shared by every
// cache tier. A free block's first machine word is reinterpreted as a pointer
// to the next free block in the same list; once a block is handed to a caller
// that word belongs to the caller and the allocator never touches it again.
//
// This is the only package that reinterprets raw memory. Everything above it
// works in terms of opaque Pointer values and list operations.
//
// Blocks live in memory obtained from the operating system (see
// internal/osmem), outside the Go heap, so the embedded next pointers are
// invisible to the garbage collector by construction.
package block

import "unsafe"

// WordSize is the size of the embedded next pointer. No block managed by the
// allocator may be smaller than this.
const WordSize = unsafe.Sizeof(uintptr(0))

// Pointer is a raw pointer to a block. Free blocks carry their list linkage
// in their first word; allocated blocks are opaque.
type Pointer = unsafe.Pointer

// Next returns the next pointer embedded in a free block.
func Next(p Pointer) Pointer {
	return *(*Pointer)(p)
}

// SetNext stores the next pointer into a free block's first word.
func SetNext(p, next Pointer) {
	*(*Pointer)(p) = next
}

// Add returns the address off bytes past p. Used when carving a span into
// consecutive blocks.
func Add(p Pointer, off uintptr) Pointer {
	return unsafe.Add(p, off)
}

// Count walks a nil-terminated chain and returns its length.
func Count(head Pointer) int {
	n := 0
	for p := head; p != nil; p = Next(p) {
		n++
	}
	return n
}
