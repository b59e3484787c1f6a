// Package cu configuration constants
package cu

// Thread and block dimensions
const (
	// Default block size for 1D kernels
	DefaultBlockSize = 256

	// Maximum threads per block (CUDA compatibility)
	MaxThreadsPerBlock = 1024
)

// Memory pool parameters
const (
	// Memory alignment for allocations (cache line)
	MemoryAlignment = 64

	// Fallback capacity when the OS cannot report total memory
	defaultSystemMemory = 16 * 1024 * 1024 * 1024
)

// Numerical constants
const (
	// Machine epsilon for float32
	Float32Epsilon = 1.192092896e-07
)
