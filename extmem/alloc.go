package extmem

import "unsafe"

// Allocator is the allocation policy handed to firmware components.
// It mirrors the C primitives: exhaustion yields nil, never a panic.
type Allocator interface {
	Malloc(size int) []byte
	Calloc(n, size int) []byte
	Realloc(buf []byte, size int) []byte
	Free(buf []byte)
}

// SDRAMSize is the external memory fitted to the Daisy Seed.
const SDRAMSize = 64 << 20

// Global pool backing the board's SDRAM window.
var sdram Pool

// Default returns the process-wide SDRAM pool. It still has to be
// initialized by the firmware start sequence before use.
func Default() *Pool {
	return &sdram
}

// NewRegion returns a unit-aligned host buffer of size bytes for use as a
// simulated external memory window.
func NewRegion(size int) []byte {
	words := make([]uint64, (size+unitSize-1)/unitSize)
	if len(words) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
}

// MakeSlice allocates n elements of T from a. T must not contain Go
// pointers: the garbage collector does not scan external memory.
// Returns nil on exhaustion or when n is not positive.
func MakeSlice[T any](a Allocator, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return make([]T, n)
	}
	buf := a.Calloc(n, size)
	if buf == nil {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(buf))), n)
}

// FreeSlice releases a slice obtained from MakeSlice.
func FreeSlice[T any](a Allocator, s []T) {
	if cap(s) == 0 {
		return
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return
	}
	a.Free(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), cap(s)*size))
}
