package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/fimd/fimd/internal/batch"
	"github.com/fimd/fimd/internal/detect"
	"github.com/fimd/fimd/internal/imageio"
	"github.com/fimd/fimd/internal/store"
	"github.com/spf13/cobra"
)

var (
	scanImageDir           string
	scanFormat             string
	scanWidth              int
	scanHeight             int
	scanRadii              []int
	scanTc                 uint8
	scanTd                 uint8
	scanTs                 uint8
	scanMmax               int
	scanSmax               int
	scanPatience           int
	scanDataDir            string
	scanJobID              string
	scanCheckpointInterval int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan every image in a directory",
	Long: `Scans every supported image in a directory, trying each radius in
order per image and stopping at the first one that finds anything.
Progress is checkpointed periodically so an interrupted scan can be
resumed with 'fimd resume'.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanImageDir, "dir", "", "Directory of images to scan (required)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "auto", "Image format: auto, raw, png, jpeg, bmp")
	scanCmd.Flags().IntVar(&scanWidth, "width", 0, "Image width (required for raw format)")
	scanCmd.Flags().IntVar(&scanHeight, "height", 0, "Image height (required for raw format)")
	scanCmd.Flags().IntSliceVar(&scanRadii, "radii", []int{2, 3, 4, 5}, "Ordered radii to attempt per image")
	scanCmd.Flags().Uint8Var(&scanTc, "tc", 120, "Center-brightness gate")
	scanCmd.Flags().Uint8Var(&scanTd, "td", 40, "Center-to-ring difference gate")
	scanCmd.Flags().Uint8Var(&scanTs, "ts", 250, "Sun-saturation gate")
	scanCmd.Flags().IntVar(&scanMmax, "mmax", 64, "Maximum markers per image")
	scanCmd.Flags().IntVar(&scanSmax, "smax", 64, "Maximum sun pixels per image")
	scanCmd.Flags().IntVar(&scanPatience, "patience", 20, "Stale-streak patience before the run is flagged mostly empty")
	scanCmd.Flags().StringVar(&scanDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	scanCmd.Flags().StringVar(&scanJobID, "job-id", "", "Job ID to checkpoint under (default: a generated ID)")
	scanCmd.Flags().IntVar(&scanCheckpointInterval, "checkpoint-interval", 10, "Seconds between checkpoint saves (0 disables)")

	scanCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	config := store.JobConfig{
		ImageDir:           scanImageDir,
		Radii:              batch.RadiusPolicy(scanRadii),
		Thresholds:         detect.Thresholds{Tc: scanTc, Td: scanTd, Ts: scanTs},
		Caps:               detect.Caps{Mmax: scanMmax, Smax: scanSmax},
		Format:             scanFormat,
		Width:              scanWidth,
		Height:             scanHeight,
		Patience:           scanPatience,
		CheckpointInterval: scanCheckpointInterval,
	}

	if err := config.Radii.Validate(); err != nil {
		return err
	}
	if err := config.Thresholds.Validate(); err != nil {
		return err
	}

	paths, err := listImages(scanImageDir)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no supported images found in %s", scanImageDir)
	}

	jobID := scanJobID
	if jobID == "" {
		jobID = time.Now().UTC().Format("20060102T150405Z")
	}

	checkpointStore, err := store.NewFSStore(scanDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	slog.Info("starting scan", "job_id", jobID, "image_dir", scanImageDir, "images", len(paths))
	fmt.Printf("Scanning %d image(s) in %s (job %s)\n", len(paths), scanImageDir, jobID)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sum, err := scanWithCheckpointing(ctx, checkpointStore, jobID, paths, 0, batch.Summary{}, config, scanDataDir)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("Processed %d/%d image(s): %d markers, %d suns\n", sum.ProcessedLast+1, len(paths), sum.TotalMarkers, sum.TotalSuns)
	if sum.MostlyEmpty {
		fmt.Println("Warning: a run of consecutive images reaching the patience limit came back empty; the image set may not contain markers at the configured thresholds")
	}
	if ctx.Err() != nil {
		fmt.Printf("Interrupted. Resume with: fimd resume %s --local --data-dir %s\n", jobID, scanDataDir)
	}

	return nil
}

// scanWithCheckpointing runs batch.Run while periodically saving a
// checkpoint, mirroring the server's background worker but driven
// synchronously from the CLI.
func scanWithCheckpointing(ctx context.Context, checkpointStore store.Store, jobID string, paths []string, startAt int, seed batch.Summary, config store.JobConfig, dataDir string) (batch.Summary, error) {
	cfg := batch.Config{
		Radii:      config.Radii,
		Thresholds: config.Thresholds,
		Caps:       config.Caps,
		Format:     imageio.Format(config.Format),
		Width:      config.Width,
		Height:     config.Height,
		Patience:   config.Patience,
	}

	var traceWriter *store.TraceWriter
	if config.CheckpointInterval > 0 {
		tw, err := store.NewTraceWriter(dataDir, jobID, startAt > 0)
		if err != nil {
			slog.Warn("failed to create trace writer", "job_id", jobID, "error", err)
		} else {
			traceWriter = tw
			defer func() {
				if err := traceWriter.Close(); err != nil {
					slog.Warn("failed to close trace writer", "job_id", jobID, "error", err)
				}
			}()
		}
	}

	lastSave := time.Now()
	progress := func(idx int, res batch.PerImageResult, sum batch.Summary) error {
		if traceWriter != nil {
			entry := store.TraceEntry{
				Index:       idx,
				Path:        res.Path,
				Radius:      res.Radius,
				MarkerCount: res.MarkerCount(),
				SunCount:    res.SunCount(),
				Timestamp:   time.Now(),
			}
			if err := traceWriter.Write(entry); err != nil {
				slog.Error("failed to write trace entry", "job_id", jobID, "error", err)
			}
		}

		if config.CheckpointInterval <= 0 {
			return nil
		}
		if time.Since(lastSave) < time.Duration(config.CheckpointInterval)*time.Second {
			return nil
		}
		checkpoint := store.NewCheckpoint(jobID, sum, config)
		if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
			slog.Warn("failed to save checkpoint", "job_id", jobID, "error", err)
		} else {
			lastSave = time.Now()
			slog.Info("checkpoint saved", "job_id", jobID, "processed", sum.ProcessedLast)
		}
		return nil
	}

	sum, err := batch.Run(ctx, paths, startAt, cfg, seed, progress)

	if config.CheckpointInterval > 0 && len(sum.Results) > 0 {
		checkpoint := store.NewCheckpoint(jobID, sum, config)
		if saveErr := checkpointStore.SaveCheckpoint(jobID, checkpoint); saveErr != nil {
			slog.Warn("failed to save final checkpoint", "job_id", jobID, "error", saveErr)
		}
	}

	return sum, err
}
