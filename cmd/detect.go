package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/fimd/fimd/internal/detect"
	"github.com/fimd/fimd/internal/imageio"
	"github.com/spf13/cobra"
)

var (
	detectInPath     string
	detectOutPath    string
	detectFormat     string
	detectWidth      int
	detectHeight     int
	detectRadius     int
	detectTc         uint8
	detectTd         uint8
	detectTs         uint8
	detectMmax       int
	detectSmax       int
	detectCPUProfile string
	detectMemProfile string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan a single image for markers and suns",
	Long:  `Runs the isolated-marker detector against one image and writes an annotated output.`,
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectInPath, "in", "", "Input image path (required)")
	detectCmd.Flags().StringVar(&detectOutPath, "out", "out.png", "Annotated output image path")
	detectCmd.Flags().StringVar(&detectFormat, "format", "auto", "Input format: auto, raw, png, jpeg, bmp")
	detectCmd.Flags().IntVar(&detectWidth, "width", 0, "Image width (required for raw format)")
	detectCmd.Flags().IntVar(&detectHeight, "height", 0, "Image height (required for raw format)")
	detectCmd.Flags().IntVar(&detectRadius, "radius", 2, "Bresenham circle radius (2, 3, 4, or 5)")
	detectCmd.Flags().Uint8Var(&detectTc, "tc", 120, "Center-brightness gate")
	detectCmd.Flags().Uint8Var(&detectTd, "td", 40, "Center-to-ring difference gate")
	detectCmd.Flags().Uint8Var(&detectTs, "ts", 250, "Sun-saturation gate")
	detectCmd.Flags().IntVar(&detectMmax, "mmax", 64, "Maximum markers to report")
	detectCmd.Flags().IntVar(&detectSmax, "smax", 64, "Maximum sun pixels to report")

	detectCmd.Flags().StringVar(&detectCPUProfile, "cpuprofile", "", "Write CPU profile to file")
	detectCmd.Flags().StringVar(&detectMemProfile, "memprofile", "", "Write memory profile to file")

	detectCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	if detectCPUProfile != "" {
		f, err := os.Create(detectCPUProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		slog.Info("CPU profiling enabled", "output", detectCPUProfile)
	}

	slog.Info("loading image", "path", detectInPath, "format", detectFormat)
	img, err := imageio.Load(detectInPath, imageio.Format(detectFormat), detectWidth, detectHeight)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	snapshot := img.Clone()

	d, err := detect.New(detectRadius)
	if err != nil {
		return fmt.Errorf("failed to build detector: %w", err)
	}

	th := detect.Thresholds{Tc: detectTc, Td: detectTd, Ts: detectTs}
	caps := detect.Caps{Mmax: detectMmax, Smax: detectSmax}

	start := time.Now()
	res, err := d.Detect(img, th, caps)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("detect failed: %w", err)
	}

	if err := imageio.WriteAnnotated(detectOutPath, snapshot, res); err != nil {
		return fmt.Errorf("failed to write annotated output: %w", err)
	}

	bps := float64(res.BytesScanned) / elapsed.Seconds()
	slog.Info("detect complete",
		"elapsed", elapsed,
		"markers", len(res.Markers),
		"suns", len(res.Suns),
		"bytes_scanned", res.BytesScanned,
		"bytes_per_second", fmt.Sprintf("%.0f", bps),
	)

	fmt.Printf("Wrote %s (%d markers, %d suns, %s elapsed)\n", detectOutPath, len(res.Markers), len(res.Suns), elapsed.Round(time.Millisecond))

	if detectMemProfile != "" {
		f, err := os.Create(detectMemProfile)
		if err != nil {
			return fmt.Errorf("failed to create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
		slog.Info("memory profile written", "output", detectMemProfile)
	}

	return nil
}
