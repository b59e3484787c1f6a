// Package cu provides a small CUDA-style execution runtime on the CPU.
// It exposes the familiar device/stream/kernel-launch surface (Malloc,
// Memcpy, Launch with grid/block dimensions, events) and maps it onto
// goroutine worker pools and ordinary host memory.
//
// Example usage:
//
//	d_data, _ := cu.Malloc(n * 4) // n float32s
//	defer cu.Free(d_data)
//
//	grid := cu.Dim3{X: (n + 255) / 256, Y: 1, Z: 1}
//	block := cu.Dim3{X: 256, Y: 1, Z: 1}
//	cu.Launch(myKernel, grid, block)
//	err := cu.Synchronize()
package cu

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Device represents a compute device. Here this is always the host CPU
// with its cores and installed memory.
type Device struct {
	ID         int    // Unique device identifier
	Name       string // Human-readable device name
	TotalMem   uint64 // Total available memory in bytes
	NumCores   int    // Number of CPU cores
	MaxThreads int    // Maximum concurrent threads
}

// Context manages device resources, memory allocation, and stream
// execution. A single default context is created at init; most callers
// use the package-level convenience functions bound to it.
type Context struct {
	device        *Device
	mu            sync.Mutex
	streams       map[int]*Stream
	streamID      int32
	memory        *MemoryPool
	defaultStream *Stream
}

// Dim3 represents 3D dimensions for grid and block configurations,
// matching CUDA's dim3 launch parameters.
type Dim3 struct {
	X, Y, Z int
}

// Size returns the total number of elements spanned by the dimensions.
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

// ThreadID identifies a thread's position within the execution hierarchy,
// with the same semantics as CUDA's blockIdx/threadIdx/blockDim/gridDim.
type ThreadID struct {
	BlockIdx  Dim3
	ThreadIdx Dim3
	BlockDim  Dim3
	GridDim   Dim3
}

// Global returns the global linear thread index along X.
func (tid ThreadID) Global() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// GlobalX returns the global X coordinate of the thread.
func (tid ThreadID) GlobalX() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// GlobalY returns the global Y coordinate of the thread.
func (tid ThreadID) GlobalY() int {
	return tid.BlockIdx.Y*tid.BlockDim.Y + tid.ThreadIdx.Y
}

// GlobalZ returns the global Z coordinate of the thread.
func (tid ThreadID) GlobalZ() int {
	return tid.BlockIdx.Z*tid.BlockDim.Z + tid.ThreadIdx.Z
}

// KernelFunc is a function launched once per thread of a grid.
// Implementations must be safe for concurrent invocation: threads make no
// assumptions about the order or progress of other threads.
type KernelFunc func(tid ThreadID, args ...interface{})

// Global runtime state
var (
	defaultDevice  *Device
	defaultContext *Context
	initOnce       sync.Once
)

func init() {
	initOnce.Do(func() {
		defaultDevice = &Device{
			ID:         0,
			Name:       deviceName(),
			TotalMem:   systemMemory(),
			NumCores:   runtime.NumCPU(),
			MaxThreads: runtime.NumCPU() * 2,
		}

		defaultContext = &Context{
			device:  defaultDevice,
			streams: make(map[int]*Stream),
			memory:  NewMemoryPool(defaultDevice.TotalMem),
		}
		defaultContext.defaultStream = defaultContext.CreateStream()
	})
}

// Malloc allocates device memory of the specified size in bytes on the
// default context. The memory is aligned for SIMD access.
func Malloc(size int) (DevicePtr, error) {
	return defaultContext.Malloc(size)
}

// Free releases device memory allocated by Malloc.
func Free(ptr DevicePtr) error {
	return defaultContext.Free(ptr)
}

// Memcpy copies memory between host and device on the default context.
func Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	return defaultContext.Memcpy(dst, src, size, kind)
}

// Launch executes a kernel function on the default stream across a grid
// of thread blocks.
func Launch(fn KernelFunc, grid, block Dim3, args ...interface{}) error {
	return defaultContext.Launch(fn, grid, block, args...)
}

// Synchronize waits for all operations on all streams of the default
// context to complete and returns the first execution error, if any.
func Synchronize() error {
	return defaultContext.Synchronize()
}

// GetDevice returns the current device information.
func GetDevice() *Device {
	return defaultDevice
}

// SetDevice sets the active device. Only device 0 exists.
func SetDevice(id int) error {
	if id != 0 {
		return ErrInvalidDevice
	}
	return nil
}

// GetDeviceCount returns the number of available devices, always 1.
func GetDeviceCount() int {
	return 1
}

// GetDeviceProperties returns device properties for the given ID.
func GetDeviceProperties(id int) (*Device, error) {
	if id != 0 {
		return nil, NewInvalidArgError("GetDeviceProperties", fmt.Sprintf("invalid device ID: %d", id))
	}
	return defaultDevice, nil
}

// CreateStream creates a new in-order execution stream on the context.
func (ctx *Context) CreateStream() *Stream {
	id := int(atomic.AddInt32(&ctx.streamID, 1))
	stream := newStream(id)

	ctx.mu.Lock()
	ctx.streams[id] = stream
	ctx.mu.Unlock()
	return stream
}

// Launch executes a kernel function on the context's default stream.
func (ctx *Context) Launch(fn KernelFunc, grid, block Dim3, args ...interface{}) error {
	return ctx.LaunchStream(fn, grid, block, ctx.defaultStream, args...)
}

// Synchronize waits for all streams to complete and returns the first
// recorded execution error.
func (ctx *Context) Synchronize() error {
	ctx.mu.Lock()
	streams := make([]*Stream, 0, len(ctx.streams))
	for _, s := range ctx.streams {
		streams = append(streams, s)
	}
	ctx.mu.Unlock()

	var first error
	for _, s := range streams {
		if err := s.Synchronize(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stream is an ordered sequence of asynchronously executed operations.
// Operations within a stream execute in submission order; operations in
// different streams may execute concurrently.
type Stream struct {
	id    int
	tasks chan func() error
	wg    sync.WaitGroup

	mu  sync.Mutex
	err error
}

func newStream(id int) *Stream {
	s := &Stream{
		id:    id,
		tasks: make(chan func() error, 1000),
	}
	go s.worker()
	return s
}

// worker drains tasks in order, recording the first failure.
func (s *Stream) worker() {
	for task := range s.tasks {
		if err := task(); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
		}
		s.wg.Done()
	}
}

// Submit adds a task to the stream.
func (s *Stream) Submit(task func() error) {
	s.wg.Add(1)
	s.tasks <- task
}

// Synchronize waits for all submitted tasks to complete and returns the
// first error recorded on the stream since the last call. Retrieving the
// error clears it, so one failed launch does not poison later work.
func (s *Stream) Synchronize() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}
