//go:build unix

package cowdata

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mmap is an [Allocator] backed by anonymous memory mappings. Unlike
// [Heap], its blocks live outside the Go heap: Alloc can genuinely fail
// under address-space pressure, and Free returns pages to the kernel
// immediately.
//
// Blocks are page-granular. Realloc within the block's page capacity
// reslices in place, so reused tail bytes keep whatever they held before.
type Mmap struct{}

// pageSize is read once; mappings are multiples of it.
var pageSize = os.Getpagesize()

// Alloc maps size bytes of fresh anonymous memory (rounded up to whole
// pages, with the page remainder kept as slice capacity).
func (Mmap) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("alloc size %d is negative: %w", size, ErrInvalidParameter)
	}

	mapLen := ((size + pageSize - 1) / pageSize) * pageSize
	if mapLen == 0 {
		mapLen = pageSize
	}

	block, err := unix.Mmap(-1, 0, mapLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", mapLen, err)
	}

	return block[:size:mapLen], nil
}

// Realloc reslices within the mapping when possible; otherwise it maps a
// new region, copies the preserved prefix, and unmaps the old one.
func (m Mmap) Realloc(buf []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("realloc size %d is negative: %w", size, ErrInvalidParameter)
	}

	if size <= cap(buf) {
		return buf[:size:cap(buf)], nil
	}

	grown, err := m.Alloc(size)
	if err != nil {
		return nil, err
	}

	copy(grown, buf)
	m.Free(buf)

	return grown, nil
}

// Free unmaps the block's whole mapping.
func (Mmap) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}

	_ = unix.Munmap(buf[:cap(buf)])
}
