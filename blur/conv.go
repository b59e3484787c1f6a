// Package blur implements a data-parallel box-blur benchmark on the cu
// runtime: a 2D stencil convolution with zero-padding, decomposed into
// fixed-size work-groups of one thread per output pixel.
package blur

import (
	"fmt"

	"github.com/rbaygildin/cudaexamples/cu"
)

// Params defines parameters for a stencil convolution over a single
// row-major float32 image.
type Params struct {
	// Image dimensions
	Width  int
	Height int

	// Side length of the square weight kernel; must be odd so the
	// neighborhood is center-aligned
	KernelSize int

	// Work-group dimensions of the launch
	Tile cu.Dim3
}

// Validate checks the convolution parameters. Malformed parameters are a
// caller contract violation and are rejected before any thread runs.
func (p *Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return cu.NewInvalidArgError("Convolve",
			fmt.Sprintf("invalid image dimensions %dx%d", p.Width, p.Height))
	}
	if p.KernelSize <= 0 || p.KernelSize%2 == 0 {
		return cu.NewInvalidArgError("Convolve",
			fmt.Sprintf("kernel size must be positive and odd, got %d", p.KernelSize))
	}
	if p.Tile.X <= 0 || p.Tile.Y <= 0 || p.Tile.Z != 1 {
		return cu.NewInvalidArgError("Convolve",
			fmt.Sprintf("invalid tile dimensions %+v", p.Tile))
	}
	if p.Tile.Size() > cu.MaxThreadsPerBlock {
		return cu.NewInvalidArgError("Convolve",
			fmt.Sprintf("tile of %d threads exceeds the %d per-block limit", p.Tile.Size(), cu.MaxThreadsPerBlock))
	}
	return nil
}

// checkImages validates the image buffers against the parameters: each
// holds at least Width*Height float32s and the two never alias.
func checkImages(src, dst cu.DevicePtr, p Params) error {
	imgBytes := p.Width * p.Height * 4
	if src.Size() < imgBytes {
		return cu.NewInvalidArgError("Convolve",
			fmt.Sprintf("source buffer too small: %d bytes for %dx%d image", src.Size(), p.Width, p.Height))
	}
	if dst.Size() < imgBytes {
		return cu.NewInvalidArgError("Convolve",
			fmt.Sprintf("destination buffer too small: %d bytes for %dx%d image", dst.Size(), p.Width, p.Height))
	}
	if src.Overlaps(dst) {
		return cu.NewInvalidArgError("Convolve", "source and destination buffers must not overlap")
	}
	return nil
}

// Convolve computes dst[x,y] = Σ kernel(k,l) · src(x-h+k, y-h+l) for every
// pixel of the image, where h = KernelSize/2 and out-of-range neighbors
// contribute zero. Weights are not renormalized at borders, so edge
// pixels of a uniform-kernel blur are systematically darker than the
// interior; that artifact is part of the contract.
//
// src and dst must be distinct buffers holding at least Width*Height
// float32s each; kernel holds KernelSize² weights, read-only for the
// duration of the launch. Convolve blocks until every thread has
// completed.
func Convolve(src, kernel, dst cu.DevicePtr, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if err := checkImages(src, dst, p); err != nil {
		return err
	}
	if kernel.Size() < p.KernelSize*p.KernelSize*4 {
		return cu.NewInvalidArgError("Convolve",
			fmt.Sprintf("kernel buffer too small: %d bytes for %dx%d weights", kernel.Size(), p.KernelSize, p.KernelSize))
	}

	grid := PlanLaunch(p.Width, p.Height, p.Tile)
	fn := convolveKernel(src.Float32(), kernel.Float32(), p.Width, p.Height, p.KernelSize, dst.Float32())

	if err := cu.Launch(fn, grid, p.Tile); err != nil {
		return err
	}
	// Barrier: the caller may read dst as soon as Convolve returns.
	return cu.Synchronize()
}

// convolveKernel builds the per-thread stencil body. Each thread owns one
// output pixel; threads of over-sized edge tiles whose coordinate falls
// outside the image are no-ops.
func convolveKernel(src, weights []float32, width, height, size int, dst []float32) cu.KernelFunc {
	half := size / 2
	return func(tid cu.ThreadID, _ ...interface{}) {
		x := tid.GlobalX()
		y := tid.GlobalY()
		if x >= width || y >= height {
			return
		}

		var sum float32
		for l := 0; l < size; l++ {
			j := y - half + l
			if j < 0 || j >= height {
				continue
			}
			for k := 0; k < size; k++ {
				i := x - half + k
				if i < 0 || i >= width {
					continue
				}
				sum += weights[k+l*size] * src[i+j*width]
			}
		}
		dst[x+y*width] = sum
	}
}
