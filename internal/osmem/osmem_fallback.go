//go:build !unix && !windows

package osmem

import (
	"sync"
	"unsafe"
)

// Platforms without virtual memory syscalls fall back to heap buffers. The
// registry pins every outstanding reservation so the garbage collector keeps
// the backing array alive even when callers only hold raw interior pointers.
var (
	regMu    sync.Mutex
	registry = make(map[uintptr][]byte)
)

// Reserve allocates size bytes of zeroed memory.
func Reserve(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrBadSize
	}
	mem := make([]byte, size)
	regMu.Lock()
	registry[uintptr(unsafe.Pointer(&mem[0]))] = mem
	regMu.Unlock()
	return mem, nil
}

// Release drops the registry pin; the memory is reclaimed by the collector.
func Release(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	regMu.Lock()
	delete(registry, uintptr(unsafe.Pointer(&mem[0])))
	regMu.Unlock()
	return nil
}
