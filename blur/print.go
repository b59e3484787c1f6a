package blur

import (
	"bufio"
	"fmt"
	"io"
)

// WriteImage dumps a row-major float32 image as text, one image row per
// line.
func WriteImage(w io.Writer, img []float32, width, height int) error {
	bw := bufio.NewWriter(w)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(bw, "%.4f", img[x+y*width]); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
