package cu

import (
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAllocation(t *testing.T) {
	sizes := []int{100, 1000, 10000, 1000000}

	for _, size := range sizes {
		ptr, err := Malloc(size * 4)
		require.NoError(t, err, "failed to allocate %d bytes", size*4)

		slice := ptr.Float32()
		require.Len(t, slice, size)

		for i := 0; i < min(100, size); i++ {
			slice[i] = float32(i)
		}
		for i := 0; i < min(100, size); i++ {
			assert.Equal(t, float32(i), slice[i], "memory corruption at index %d", i)
		}

		require.NoError(t, Free(ptr))
	}
}

func TestMallocRejectsBadSizes(t *testing.T) {
	_, err := Malloc(0)
	assert.True(t, IsInvalidArgError(err))

	_, err = Malloc(-4)
	assert.True(t, IsInvalidArgError(err))
}

func TestMallocRejectsOverCapacity(t *testing.T) {
	over := int(GetDevice().TotalMem) + (1 << 20)
	if over < 0 {
		t.Skip("device capacity exceeds int range")
	}
	_, err := Malloc(over)
	require.Error(t, err)
	assert.True(t, IsMemoryError(err))
}

func TestDoubleFree(t *testing.T) {
	ptr, err := Malloc(100)
	require.NoError(t, err)
	require.NoError(t, Free(ptr))

	err = Free(ptr)
	require.Error(t, err, "double free should have failed")
	assert.True(t, IsMemoryError(err))
}

func TestMemcpy(t *testing.T) {
	const N = 1000

	h_src := make([]float32, N)
	h_dst := make([]float32, N)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < N; i++ {
		h_src[i] = rng.Float32()
	}

	d_src, err := Malloc(N * 4)
	require.NoError(t, err)
	defer Free(d_src)
	d_dst, err := Malloc(N * 4)
	require.NoError(t, err)
	defer Free(d_dst)

	require.NoError(t, Memcpy(d_src, h_src, N*4, MemcpyHostToDevice))
	require.NoError(t, Memcpy(d_dst, d_src, N*4, MemcpyDeviceToDevice))
	require.NoError(t, Memcpy(h_dst, d_dst, N*4, MemcpyDeviceToHost))

	assert.Equal(t, h_src, h_dst)
}

func TestMemcpyRejectsShortBuffers(t *testing.T) {
	d_buf, err := Malloc(16)
	require.NoError(t, err)
	defer Free(d_buf)

	host := make([]float32, 4)

	err = Memcpy(d_buf, host, 64, MemcpyHostToDevice)
	assert.True(t, IsMemoryError(err), "oversized copy into device buffer")

	err = Memcpy(host, d_buf, 64, MemcpyDeviceToHost)
	assert.True(t, IsMemoryError(err), "oversized copy into host buffer")

	err = Memcpy(d_buf, 3.14, 8, MemcpyHostToDevice)
	assert.True(t, IsInvalidArgError(err), "unsupported operand type")
}

func TestKernelLaunch1D(t *testing.T) {
	const N = 10000

	d_data, err := Malloc(N * 4)
	require.NoError(t, err)
	defer Free(d_data)

	slice := d_data.Float32()
	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < N {
			slice[idx] = float32(idx)
		}
	})

	require.NoError(t, Launch(kernel, Dim3{X: (N + 255) / 256, Y: 1, Z: 1}, Dim3{X: 256, Y: 1, Z: 1}))
	require.NoError(t, Synchronize())

	for i := 0; i < N; i++ {
		if slice[i] != float32(i) {
			t.Fatalf("incorrect value at index %d: expected %f, got %f", i, float32(i), slice[i])
		}
	}
}

func TestKernelLaunch2D(t *testing.T) {
	const W, H = 37, 21 // not multiples of the tile size

	counts := make([]int32, W*H)
	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		x := tid.GlobalX()
		y := tid.GlobalY()
		if x < W && y < H {
			atomic.AddInt32(&counts[x+y*W], 1)
		}
	})

	grid := Dim3{X: (W + 15) / 16, Y: (H + 15) / 16, Z: 1}
	block := Dim3{X: 16, Y: 16, Z: 1}
	require.NoError(t, Launch(kernel, grid, block))
	require.NoError(t, Synchronize())

	for i, c := range counts {
		if c != 1 {
			t.Fatalf("coordinate %d covered %d times, want exactly once", i, c)
		}
	}
}

func TestLaunchZeroGrid(t *testing.T) {
	ran := false
	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		ran = true
	})

	require.NoError(t, Launch(kernel, Dim3{X: 0, Y: 0, Z: 0}, Dim3{X: 16, Y: 1, Z: 1}))
	require.NoError(t, Synchronize())
	assert.False(t, ran, "zero grid must not execute any thread")
}

func TestLaunchRejectsBadDims(t *testing.T) {
	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {})

	err := Launch(kernel, Dim3{X: -1, Y: 1, Z: 1}, Dim3{X: 16, Y: 1, Z: 1})
	assert.True(t, IsInvalidArgError(err), "negative grid")

	err = Launch(kernel, Dim3{X: 1, Y: 1, Z: 1}, Dim3{X: 0, Y: 1, Z: 1})
	assert.True(t, IsInvalidArgError(err), "empty block")

	err = Launch(kernel, Dim3{X: 1, Y: 1, Z: 1}, Dim3{X: 64, Y: 64, Z: 1})
	assert.True(t, IsInvalidArgError(err), "block over thread limit")
}

func TestKernelPanicSurfacesOnSynchronize(t *testing.T) {
	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		panic("boom")
	})

	require.NoError(t, Launch(kernel, Dim3{X: 1, Y: 1, Z: 1}, Dim3{X: 1, Y: 1, Z: 1}))
	err := Synchronize()
	require.Error(t, err)
	assert.True(t, IsExecutionError(err))

	// The recovered panic value travels as diagnostic context.
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "boom", e.Context)

	// The error is consumed; the stream is usable again.
	require.NoError(t, Synchronize())
}

func TestGlobalThreadIndexing(t *testing.T) {
	tid := ThreadID{
		BlockIdx:  Dim3{X: 2, Y: 3, Z: 1},
		ThreadIdx: Dim3{X: 5, Y: 7, Z: 0},
		BlockDim:  Dim3{X: 16, Y: 8, Z: 2},
		GridDim:   Dim3{X: 4, Y: 4, Z: 2},
	}

	assert.Equal(t, 2*16+5, tid.GlobalX())
	assert.Equal(t, 3*8+7, tid.GlobalY())
	assert.Equal(t, 1*2+0, tid.GlobalZ())
	assert.Equal(t, tid.GlobalX(), tid.Global())
}

func TestDeviceQueries(t *testing.T) {
	assert.Equal(t, 1, GetDeviceCount())
	assert.Error(t, SetDevice(1))
	assert.NoError(t, SetDevice(0))

	dev := GetDevice()
	require.NotNil(t, dev)
	assert.Positive(t, dev.NumCores)
	assert.Positive(t, dev.TotalMem)

	_, err := GetDeviceProperties(3)
	assert.True(t, IsInvalidArgError(err))
}

func TestMemoryPoolStats(t *testing.T) {
	allocated1, _ := defaultContext.memory.GetStats()

	ptrs := make([]DevicePtr, 10)
	for i := range ptrs {
		var err error
		ptrs[i], err = Malloc(1 << 20)
		require.NoError(t, err)
	}

	allocated2, peak2 := defaultContext.memory.GetStats()
	assert.Greater(t, allocated2, allocated1)
	assert.GreaterOrEqual(t, peak2, allocated2)

	for i := 0; i < 5; i++ {
		require.NoError(t, Free(ptrs[i]))
	}

	allocated3, peak3 := defaultContext.memory.GetStats()
	assert.Less(t, allocated3, allocated2)
	assert.Equal(t, peak2, peak3, "peak must not move on free")

	for i := 5; i < 10; i++ {
		require.NoError(t, Free(ptrs[i]))
	}
}

func TestDevicePtrOverlaps(t *testing.T) {
	d_buf, err := Malloc(64 * 4)
	require.NoError(t, err)
	defer Free(d_buf)

	head := d_buf
	tail := d_buf.Offset(32 * 4)

	assert.True(t, head.Overlaps(head))
	assert.True(t, head.Overlaps(tail), "second half starts inside full buffer")

	d_other, err := Malloc(64 * 4)
	require.NoError(t, err)
	defer Free(d_other)

	assert.False(t, d_buf.Overlaps(d_other))
	assert.False(t, DevicePtr{}.Overlaps(d_buf))
}
