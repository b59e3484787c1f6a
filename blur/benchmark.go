package blur

import (
	"github.com/rbaygildin/cudaexamples/cu"
)

// Benchmark drives one end-to-end blur run: synthesize a random source
// image, blur it, time the convolution alone, and retrieve both buffers
// to host memory.
type Benchmark struct {
	Width  int
	Height int
	Seed   int64
	Tile   cu.Dim3
}

// Result holds the host-visible outcome of a run.
type Result struct {
	Src []float32 // synthesized source image, row-major
	Dst []float32 // blurred image, row-major

	// ElapsedMillis measures the convolution launch only; input
	// synthesis and result retrieval are outside the bracket.
	ElapsedMillis float32
}

// New returns a Benchmark for the given image size with the reference
// seed and tile configuration.
func New(width, height int) *Benchmark {
	return &Benchmark{
		Width:  width,
		Height: height,
		Seed:   DefaultSeed,
		Tile:   DefaultTile,
	}
}

// Run executes the benchmark once. Any allocation, transfer or launch
// failure aborts the run; the workload is a single deterministic batch,
// so there is nothing to retry and no partial result to salvage.
func (b *Benchmark) Run() (*Result, error) {
	n := b.Width * b.Height
	bytes := n * 4

	dSrc, err := cu.Malloc(bytes)
	if err != nil {
		return nil, err
	}
	defer cu.Free(dSrc)

	dDst, err := cu.Malloc(bytes)
	if err != nil {
		return nil, err
	}
	defer cu.Free(dDst)

	if err := cu.FillUniform(dSrc, n, b.Seed); err != nil {
		return nil, err
	}

	start := cu.NewEvent()
	stop := cu.NewEvent()

	start.Record(nil)
	if err := BlurTiled(dSrc, dDst, b.Width, b.Height, b.Tile); err != nil {
		return nil, err
	}
	stop.Record(nil)

	if err := cu.Synchronize(); err != nil {
		return nil, err
	}

	elapsed, err := cu.ElapsedTime(start, stop)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Src:           make([]float32, n),
		Dst:           make([]float32, n),
		ElapsedMillis: elapsed,
	}
	if err := cu.Memcpy(res.Src, dSrc, bytes, cu.MemcpyDeviceToHost); err != nil {
		return nil, err
	}
	if err := cu.Memcpy(res.Dst, dDst, bytes, cu.MemcpyDeviceToHost); err != nil {
		return nil, err
	}
	return res, nil
}
