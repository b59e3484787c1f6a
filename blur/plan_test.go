package blur

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbaygildin/cudaexamples/cu"
)

func TestPlanLaunch(t *testing.T) {
	tile := cu.Dim3{X: 32, Y: 32, Z: 1}

	cases := []struct {
		name          string
		width, height int
		wantX, wantY  int
	}{
		{"exact multiple", 64, 96, 2, 3},
		{"partial tiles", 65, 97, 3, 4},
		{"single pixel", 1, 1, 1, 1},
		{"one row", 100, 1, 4, 1},
		{"reference image", 512 * 200, 512, 3200, 16},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grid := PlanLaunch(tc.width, tc.height, tile)
			assert.Equal(t, cu.Dim3{X: tc.wantX, Y: tc.wantY, Z: 1}, grid)

			// Tiles must cover the image...
			assert.GreaterOrEqual(t, grid.X*tile.X, tc.width)
			assert.GreaterOrEqual(t, grid.Y*tile.Y, tc.height)
			// ...with less than one spare tile per axis.
			assert.Less(t, (grid.X-1)*tile.X, tc.width)
			assert.Less(t, (grid.Y-1)*tile.Y, tc.height)
		})
	}
}

// Every in-bounds coordinate is visited by exactly one thread of the
// planned grid; excess threads of edge tiles fall outside.
func TestPlanCoversImageExactlyOnce(t *testing.T) {
	const W, H = 45, 23
	tile := cu.Dim3{X: 16, Y: 8, Z: 1}

	counts := make([]int32, W*H)
	kernel := cu.KernelFunc(func(tid cu.ThreadID, args ...interface{}) {
		x := tid.GlobalX()
		y := tid.GlobalY()
		if x < W && y < H {
			atomic.AddInt32(&counts[x+y*W], 1)
		}
	})

	require.NoError(t, cu.Launch(kernel, PlanLaunch(W, H, tile), tile))
	require.NoError(t, cu.Synchronize())

	for i, c := range counts {
		if c != 1 {
			t.Fatalf("coordinate (%d,%d) covered %d times, want exactly once", i%W, i/W, c)
		}
	}
}
