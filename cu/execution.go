package cu

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// LaunchStream executes a kernel function on a specific stream.
//
// The grid is linearized and its blocks are chunked across NumCPU worker
// goroutines; threads within a block run sequentially on one worker to
// maximize cache reuse. The launch is asynchronous: it enqueues onto the
// stream and returns immediately. Errors raised during execution (a
// panicking kernel) surface from Stream.Synchronize.
func (ctx *Context) LaunchStream(fn KernelFunc, grid, block Dim3, stream *Stream, args ...interface{}) error {
	if err := checkLaunchDims(grid, block); err != nil {
		return err
	}

	gridSize := grid.Size()
	blockSize := block.Size()

	if gridSize == 0 {
		// Empty task keeps stream ordering intact.
		stream.Submit(func() error { return nil })
		return nil
	}

	numWorkers := runtime.NumCPU()
	if gridSize < numWorkers {
		numWorkers = gridSize
	}
	blocksPerWorker := (gridSize + numWorkers - 1) / numWorkers

	stream.Submit(func() error {
		var g errgroup.Group
		for workerID := 0; workerID < numWorkers; workerID++ {
			startBlock := workerID * blocksPerWorker
			endBlock := startBlock + blocksPerWorker
			if endBlock > gridSize {
				endBlock = gridSize
			}

			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = &Error{
							Type:    ErrTypeExecution,
							Op:      "Launch",
							Message: fmt.Sprintf("kernel panicked: %v", r),
							Context: r,
						}
					}
				}()

				for blockID := startBlock; blockID < endBlock; blockID++ {
					blockIdx := linearTo3D(blockID, grid)
					for threadID := 0; threadID < blockSize; threadID++ {
						tid := ThreadID{
							BlockIdx:  blockIdx,
							ThreadIdx: linearTo3D(threadID, block),
							BlockDim:  block,
							GridDim:   grid,
						}
						fn(tid, args...)
					}
				}
				return nil
			})
		}
		return g.Wait()
	})

	return nil
}

// checkLaunchDims rejects malformed launch configurations before any
// thread runs. Dimension errors are caller contract violations, not
// runtime failures.
func checkLaunchDims(grid, block Dim3) error {
	if grid.X < 0 || grid.Y < 0 || grid.Z < 0 {
		return NewInvalidArgError("Launch", fmt.Sprintf("negative grid dimensions: %+v", grid))
	}
	if block.X <= 0 || block.Y <= 0 || block.Z <= 0 {
		return NewInvalidArgError("Launch", fmt.Sprintf("block dimensions must be positive: %+v", block))
	}
	if block.Size() > MaxThreadsPerBlock {
		return NewInvalidArgError("Launch", fmt.Sprintf("block size %d exceeds limit %d", block.Size(), MaxThreadsPerBlock))
	}
	return nil
}

// linearTo3D converts a linear index to 3D coordinates within dim.
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}
