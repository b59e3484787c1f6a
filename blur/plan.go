package blur

import (
	"github.com/rbaygildin/cudaexamples/cu"
)

// PlanLaunch computes the 2D grid of work-groups covering a
// width × height image with the given tile size: ceil(width/tile.X) by
// ceil(height/tile.Y). Edge tiles may extend past the image; their excess
// threads fail the kernel's bounds check and write nothing, so every
// in-bounds coordinate is covered exactly once.
func PlanLaunch(width, height int, tile cu.Dim3) cu.Dim3 {
	return cu.Dim3{
		X: (width + tile.X - 1) / tile.X,
		Y: (height + tile.Y - 1) / tile.Y,
		Z: 1,
	}
}
