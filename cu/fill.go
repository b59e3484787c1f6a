package cu

import (
	"fmt"
)

// Fill sets the first n float32 elements of dst to value, as a 1D kernel
// launch on the default stream. The launch is asynchronous; completion is
// observed through stream ordering or Synchronize.
func Fill(dst DevicePtr, n int, value float32) error {
	if n < 0 {
		return NewInvalidArgError("Fill", fmt.Sprintf("negative count: %d", n))
	}
	if n*4 > dst.Size() {
		return NewMemoryError("Fill",
			fmt.Sprintf("buffer too small: %d bytes for %d float32s", dst.Size(), n), nil)
	}

	out := dst.Float32()
	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < n {
			out[idx] = value
		}
	})

	grid := Dim3{X: (n + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}
	return Launch(kernel, grid, block)
}
