package cu

import (
	"fmt"
	"sync"
	"unsafe"
)

// MemcpyKind specifies the direction of a memory transfer. On the CPU
// runtime all memory is host-accessible, so the kinds are equivalent;
// they are kept for CUDA API compatibility.
type MemcpyKind int

const (
	MemcpyHostToHost     MemcpyKind = iota // Host to host transfer
	MemcpyHostToDevice                     // Host to device transfer
	MemcpyDeviceToHost                     // Device to host transfer
	MemcpyDeviceToDevice                   // Device to device transfer
)

// DevicePtr is a handle to device memory. Type conversion methods
// (Float32, Byte) give direct views of the underlying storage.
type DevicePtr struct {
	ptr    unsafe.Pointer
	size   int
	offset int
}

// Float32 returns a float32 slice view of the device memory.
func (d DevicePtr) Float32() []float32 {
	if d.ptr == nil {
		return nil
	}
	return (*[1 << 28]float32)(d.ptr)[: d.size/4 : d.size/4]
}

// Byte returns a byte slice view covering the whole region.
func (d DevicePtr) Byte() []byte {
	if d.ptr == nil {
		return nil
	}
	return (*[1 << 30]byte)(d.ptr)[:d.size:d.size]
}

// Offset returns a DevicePtr advanced by the given number of bytes,
// sharing the same underlying memory.
func (d DevicePtr) Offset(bytes int) DevicePtr {
	return DevicePtr{
		ptr:    unsafe.Pointer(uintptr(d.ptr) + uintptr(bytes)),
		size:   d.size - bytes,
		offset: d.offset + bytes,
	}
}

// Size returns the size in bytes of the memory region.
func (d DevicePtr) Size() int {
	return d.size
}

// Overlaps reports whether the two regions share any bytes. Kernels that
// require distinct source and destination buffers use this to enforce
// the no-aliasing precondition.
func (d DevicePtr) Overlaps(o DevicePtr) bool {
	if d.ptr == nil || o.ptr == nil {
		return false
	}
	a0, a1 := uintptr(d.ptr), uintptr(d.ptr)+uintptr(d.size)
	b0, b1 := uintptr(o.ptr), uintptr(o.ptr)+uintptr(o.size)
	return a0 < b1 && b0 < a1
}

// MemoryPool manages device memory with free-list reuse. Allocations are
// aligned to cache lines and capped at the device's total memory;
// exceeding the cap is a resource failure.
type MemoryPool struct {
	mu         sync.Mutex
	capacity   uint64
	allocated  map[uintptr]*allocation
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
}

type allocation struct {
	buf  []byte // keeps the backing array reachable
	ptr  unsafe.Pointer
	size int
	used bool
}

// NewMemoryPool creates a pool with the given capacity in bytes.
func NewMemoryPool(capacity uint64) *MemoryPool {
	return &MemoryPool{
		capacity:  capacity,
		allocated: make(map[uintptr]*allocation),
	}
}

// Malloc allocates device memory of the specified size in bytes.
func (ctx *Context) Malloc(size int) (DevicePtr, error) {
	return ctx.memory.Allocate(size)
}

// Free releases device memory allocated by Malloc.
func (ctx *Context) Free(ptr DevicePtr) error {
	return ctx.memory.Free(ptr)
}

// Allocate hands out an aligned block, reusing a free-listed one when
// large enough.
func (mp *MemoryPool) Allocate(size int) (DevicePtr, error) {
	if size <= 0 {
		return DevicePtr{}, ErrInvalidSize
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	if mp.capacity > 0 && uint64(mp.totalAlloc)+uint64(alignedSize) > mp.capacity {
		return DevicePtr{}, NewMemoryError("Malloc",
			fmt.Sprintf("allocation of %d bytes exceeds device capacity (%d in use of %d)",
				alignedSize, mp.totalAlloc, mp.capacity), nil)
	}

	for i, alloc := range mp.freeList {
		if alloc.size >= alignedSize {
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true
			mp.totalAlloc += int64(alloc.size)
			if mp.totalAlloc > mp.peakAlloc {
				mp.peakAlloc = mp.totalAlloc
			}
			return DevicePtr{ptr: alloc.ptr, size: size}, nil
		}
	}

	buf := make([]byte, alignedSize)
	alloc := &allocation{
		buf:  buf,
		ptr:  unsafe.Pointer(&buf[0]),
		size: alignedSize,
		used: true,
	}
	mp.allocated[uintptr(alloc.ptr)] = alloc

	mp.totalAlloc += int64(alignedSize)
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}

	return DevicePtr{ptr: alloc.ptr, size: size}, nil
}

// Free returns a block to the pool. Freeing an unknown pointer or the
// same block twice is an error.
func (mp *MemoryPool) Free(ptr DevicePtr) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	alloc, ok := mp.allocated[uintptr(ptr.ptr)]
	if !ok {
		return NewMemoryError("Free", "pointer not found in allocation pool", nil)
	}
	if !alloc.used {
		return ErrDoubleFree
	}

	alloc.used = false
	mp.freeList = append(mp.freeList, alloc)
	mp.totalAlloc -= int64(alloc.size)
	return nil
}

// GetStats returns current and peak allocated bytes.
func (mp *MemoryPool) GetStats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// Memcpy copies memory between host and device. Supported operands are
// DevicePtr, []float32 and []byte on either side. The byte count is
// validated against both operands; a short buffer is a transfer failure.
func (ctx *Context) Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	if size < 0 {
		return NewInvalidArgError("Memcpy", fmt.Sprintf("negative size: %d", size))
	}

	dstPtr, dstLen, err := memcpyOperand("Memcpy dst", dst)
	if err != nil {
		return err
	}
	srcPtr, srcLen, err := memcpyOperand("Memcpy src", src)
	if err != nil {
		return err
	}

	if size > dstLen {
		return NewMemoryError("Memcpy", fmt.Sprintf("destination too small: %d bytes, need %d", dstLen, size), nil)
	}
	if size > srcLen {
		return NewMemoryError("Memcpy", fmt.Sprintf("source too small: %d bytes, need %d", srcLen, size), nil)
	}

	if dstPtr != nil && srcPtr != nil && size > 0 {
		copy((*[1 << 30]byte)(dstPtr)[:size:size], (*[1 << 30]byte)(srcPtr)[:size:size])
	}
	return nil
}

// memcpyOperand resolves a transfer operand to a raw pointer and its
// extent in bytes.
func memcpyOperand(op string, v interface{}) (unsafe.Pointer, int, error) {
	switch x := v.(type) {
	case DevicePtr:
		return x.ptr, x.size, nil
	case []float32:
		if len(x) == 0 {
			return nil, 0, nil
		}
		return unsafe.Pointer(&x[0]), len(x) * 4, nil
	case []byte:
		if len(x) == 0 {
			return nil, 0, nil
		}
		return unsafe.Pointer(&x[0]), len(x), nil
	default:
		return nil, 0, NewInvalidArgError(op, fmt.Sprintf("unsupported type: %T", v))
	}
}
