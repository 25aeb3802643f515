//go:build unix

package osmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Reserve maps size bytes of zeroed anonymous memory.
func Reserve(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrBadSize
	}
	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("osmem: mmap %d bytes: %w", size, err)
	}
	return mem, nil
}

// Release unmaps a region previously returned by Reserve.
func Release(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("osmem: munmap: %w", err)
	}
	return nil
}
