// Package extmem routes dynamic allocation to the board's external SDRAM
// window instead of the Go heap.
//
// The pool keeps its bookkeeping in-band: the region is carved into 8-byte
// units and every block starts with a one-unit header holding the index of
// the next and previous block. The free flag lives in the top bit of the
// next index. Allocation is first-fit with splitting, and free blocks are
// merged with free neighbours on release.
package extmem

import (
	"encoding/binary"
	"errors"
	"unsafe"
)

const (
	unitSize = 8

	freeMask  = 0x80000000
	indexMask = 0x7FFFFFFF

	// minimum region: one data block (header + one unit) plus the end marker
	minUnits = 3
)

var (
	// ErrNotInitialized is the panic value raised when the pool is used
	// before Init. The SDRAM window is not addressable until the memory
	// controller is configured, so this is a fatal ordering error.
	ErrNotInitialized = errors.New("extmem: pool used before Init")

	// ErrAlreadyInitialized is the panic value raised by a second Init.
	ErrAlreadyInitialized = errors.New("extmem: pool initialized twice")

	// ErrRegionTooSmall is the panic value raised when Init is given a
	// region that cannot hold a single block.
	ErrRegionTooSmall = errors.New("extmem: region too small")
)

// Pool is an allocator over a fixed external memory region.
// The zero value is an uninitialized pool.
type Pool struct {
	mu     poolLock // safe to take from the audio interrupt
	region []byte
	base   uintptr
	last   uint32 // index of the end marker block
}

// Stats describes pool occupancy.
type Stats struct {
	Total       int // payload bytes of the empty pool
	Used        int // payload bytes held by allocated blocks
	Free        int // payload bytes available in free blocks
	FreeBlocks  int
	LargestFree int
	Allocations int
}

// Init takes ownership of region. Must be called once, after hardware
// bring-up and before the first allocation.
func (p *Pool) Init(region []byte) {
	defer p.mu.unlock(p.mu.lock())

	if p.region != nil {
		panic(ErrAlreadyInitialized)
	}

	// align the start to a unit boundary
	if len(region) > 0 {
		if mis := uintptr(unsafe.Pointer(&region[0])) % unitSize; mis != 0 {
			skip := int(unitSize - mis)
			if skip >= len(region) {
				region = nil
			} else {
				region = region[skip:]
			}
		}
	}

	units := len(region) / unitSize
	if units < minUnits {
		panic(ErrRegionTooSmall)
	}
	if units > indexMask {
		units = indexMask
	}

	p.region = region[:units*unitSize : units*unitSize]
	p.base = uintptr(unsafe.Pointer(&p.region[0]))
	p.last = uint32(units - 1)

	// one huge free block followed by the end marker
	p.setNext(0, p.last|freeMask)
	p.setPrev(0, 0)
	p.setNext(p.last, p.last)
	p.setPrev(p.last, 0)
}

// Initialized reports whether Init has been called.
func (p *Pool) Initialized() bool {
	defer p.mu.unlock(p.mu.lock())
	return p.region != nil
}

func (p *Pool) hdr(b uint32) []byte {
	off := int(b) * unitSize
	return p.region[off : off+unitSize]
}

func (p *Pool) rawNext(b uint32) uint32 { return binary.LittleEndian.Uint32(p.hdr(b)[0:4]) }
func (p *Pool) next(b uint32) uint32    { return p.rawNext(b) & indexMask }
func (p *Pool) isFree(b uint32) bool    { return p.rawNext(b)&freeMask != 0 }
func (p *Pool) prev(b uint32) uint32    { return binary.LittleEndian.Uint32(p.hdr(b)[4:8]) }
func (p *Pool) setNext(b, v uint32)     { binary.LittleEndian.PutUint32(p.hdr(b)[0:4], v) }
func (p *Pool) setPrev(b, v uint32)     { binary.LittleEndian.PutUint32(p.hdr(b)[4:8], v) }
func (p *Pool) capacity(b uint32) int   { return int(p.next(b)-b-1) * unitSize }
func (p *Pool) markFree(b uint32)       { p.setNext(b, p.next(b)|freeMask) }
func (p *Pool) markUsed(b uint32)       { p.setNext(b, p.next(b)) }
func (p *Pool) payload(b uint32, size int) []byte {
	lo := int(b+1) * unitSize
	return p.region[lo : lo+size : lo+p.capacity(b)]
}

// unitsFor returns the block length, header included, for size bytes.
func unitsFor(size int) uint32 {
	if size < 1 {
		size = 1
	}
	return uint32((size+unitSize-1)/unitSize) + 1
}

func (p *Pool) mustInit() {
	if p.region == nil {
		panic(ErrNotInitialized)
	}
}

// split shrinks block b to n units; the tail becomes a new block with the
// given free state. The caller checks that the tail is at least two units.
func (p *Pool) split(b, n uint32, free bool) {
	tail := b + n
	nx := p.next(b)
	if free {
		p.setNext(tail, nx|freeMask)
	} else {
		p.setNext(tail, nx)
	}
	p.setPrev(tail, b)
	p.setPrev(nx, tail)
	if p.isFree(b) {
		p.setNext(b, tail|freeMask)
	} else {
		p.setNext(b, tail)
	}
}

// mergeNext folds the block after b into b. The free state of b is kept.
func (p *Pool) mergeNext(b uint32) {
	nx := p.next(b)
	after := p.next(nx)
	p.setPrev(after, b)
	if p.isFree(b) {
		p.setNext(b, after|freeMask)
	} else {
		p.setNext(b, after)
	}
}

// Malloc returns size bytes of pool memory, or nil when the pool is
// exhausted. Malloc(0) returns a non-nil empty slice that may be freed.
func (p *Pool) Malloc(size int) []byte {
	defer p.mu.unlock(p.mu.lock())
	return p.malloc(size)
}

func (p *Pool) malloc(size int) []byte {
	p.mustInit()
	if size < 0 || size > len(p.region) {
		return nil
	}

	need := unitsFor(size)
	for b := uint32(0); b != p.last; b = p.next(b) {
		if !p.isFree(b) {
			continue
		}
		have := p.next(b) - b
		if have < need {
			continue
		}
		if have-need >= 2 {
			p.split(b, need, true)
		}
		p.markUsed(b)
		return p.payload(b, size)
	}
	return nil
}

// Calloc returns zeroed memory for n elements of size bytes each, or nil
// on exhaustion or overflow.
func (p *Pool) Calloc(n, size int) []byte {
	if n < 0 || size < 0 {
		return nil
	}
	total := n * size
	if size != 0 && total/size != n {
		return nil
	}

	defer p.mu.unlock(p.mu.lock())

	buf := p.malloc(total)
	if buf == nil {
		return nil
	}
	clear(buf)
	return buf
}

// Realloc resizes buf. Growing first tries to absorb a free neighbour and
// otherwise moves the data. On exhaustion nil is returned and buf stays
// valid. Realloc(nil, n) is Malloc(n); Realloc(buf, 0) frees buf.
func (p *Pool) Realloc(buf []byte, size int) []byte {
	defer p.mu.unlock(p.mu.lock())

	p.mustInit()
	if buf == nil {
		return p.malloc(size)
	}
	b, ok := p.block(buf)
	if !ok {
		return nil
	}
	if size <= 0 {
		p.free(b)
		return nil
	}
	if size > len(p.region) {
		return nil
	}

	if size <= p.capacity(b) {
		return p.payload(b, size)
	}

	need := unitsFor(size)
	nx := p.next(b)
	if nx != p.last && p.isFree(nx) && p.next(nx)-b >= need {
		p.mergeNext(b)
		if p.next(b)-b-need >= 2 {
			p.split(b, need, true)
		}
		return p.payload(b, size)
	}

	moved := p.malloc(size)
	if moved == nil {
		return nil
	}
	copy(moved, p.payload(b, p.capacity(b)))
	p.free(b)
	return moved
}

// Free returns buf to the pool. Nil and foreign buffers are ignored.
func (p *Pool) Free(buf []byte) {
	if buf == nil {
		return
	}

	defer p.mu.unlock(p.mu.lock())

	p.mustInit()
	if b, ok := p.block(buf); ok {
		p.free(b)
	}
}

func (p *Pool) free(b uint32) {
	p.markFree(b)

	if nx := p.next(b); nx != p.last && p.isFree(nx) {
		p.mergeNext(b)
	}
	if b != 0 {
		if pv := p.prev(b); p.isFree(pv) {
			p.mergeNext(pv)
		}
	}
}

// block maps a payload slice back to its header index.
func (p *Pool) block(buf []byte) (uint32, bool) {
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if ptr < p.base+unitSize || ptr >= p.base+uintptr(len(p.region)) {
		return 0, false
	}
	off := ptr - p.base
	if off%unitSize != 0 {
		return 0, false
	}
	b := uint32(off/unitSize) - 1
	if b >= p.last || p.isFree(b) {
		return 0, false
	}
	// reject pointers into the middle of a payload
	nx := p.next(b)
	if nx <= b || nx > p.last || p.prev(nx) != b {
		return 0, false
	}
	return b, true
}

// Stats walks the block list.
func (p *Pool) Stats() Stats {
	defer p.mu.unlock(p.mu.lock())

	p.mustInit()
	s := Stats{Total: int(p.last-1) * unitSize}
	for b := uint32(0); b != p.last; b = p.next(b) {
		c := p.capacity(b)
		if p.isFree(b) {
			s.Free += c
			s.FreeBlocks++
			if c > s.LargestFree {
				s.LargestFree = c
			}
		} else {
			s.Used += c
			s.Allocations++
		}
	}
	return s
}
