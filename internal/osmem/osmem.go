// Package osmem obtains anonymous, writable memory directly from the
// operating system and releases it again. Regions returned by Reserve live
// outside the Go heap on platforms with virtual memory syscalls, which is
// what lets the allocator embed link words in free blocks without the
// garbage collector ever seeing them.
//
// Platform backends:
//   - unix: mmap/munmap via golang.org/x/sys/unix
//   - windows: VirtualAlloc/VirtualFree via golang.org/x/sys/windows
//   - everything else: heap-backed fallback pinned in a package registry
package osmem

import "errors"

// ErrBadSize is returned when a non-positive reservation size is requested.
var ErrBadSize = errors.New("osmem: reservation size must be positive")
