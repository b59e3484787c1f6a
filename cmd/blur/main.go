// Command blur runs the box-blur benchmark: it synthesizes a random
// image, blurs it with a uniform 3×3 kernel on the cu runtime, and
// reports the kernel execution time.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rbaygildin/cudaexamples/blur"
	"github.com/rbaygildin/cudaexamples/cu"
)

var (
	flagWidth  int
	flagHeight int
	flagSeed   int64
	flagTileX  int
	flagTileY  int
	flagDump   bool
)

func main() {
	cmd := &cobra.Command{
		Use:   "blur",
		Short: "Box-blur stencil benchmark on the CPU device runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntVar(&flagWidth, "width", blur.DefaultWidth, "image width in pixels")
	cmd.Flags().IntVar(&flagHeight, "height", blur.DefaultHeight, "image height in pixels")
	cmd.Flags().Int64Var(&flagSeed, "seed", blur.DefaultSeed, "seed for the synthetic source image")
	cmd.Flags().IntVar(&flagTileX, "tile-x", blur.DefaultTile.X, "work-group width")
	cmd.Flags().IntVar(&flagTileY, "tile-y", blur.DefaultTile.Y, "work-group height")
	cmd.Flags().BoolVar(&flagDump, "dump", false, "dump source and blurred images to stdout")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	dev := cu.GetDevice()
	fmt.Printf("Device: %s, %d cores, %.1f GiB\n",
		dev.Name, dev.NumCores, float64(dev.TotalMem)/(1<<30))
	fmt.Printf("Image: %dx%d, tile %dx%d, seed %d\n",
		flagWidth, flagHeight, flagTileX, flagTileY, flagSeed)

	b := blur.New(flagWidth, flagHeight)
	b.Seed = flagSeed
	b.Tile = cu.Dim3{X: flagTileX, Y: flagTileY, Z: 1}

	res, err := b.Run()
	if err != nil {
		return err
	}

	if flagDump {
		fmt.Println("Source image:")
		if err := blur.WriteImage(os.Stdout, res.Src, flagWidth, flagHeight); err != nil {
			return err
		}
		fmt.Println("Blurred image:")
		if err := blur.WriteImage(os.Stdout, res.Dst, flagWidth, flagHeight); err != nil {
			return err
		}
	}

	fmt.Printf("Elapsed time: %.6f s\n", float64(res.ElapsedMillis)/1e3)
	return nil
}
