package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fimd/fimd/internal/detect"
	"github.com/fimd/fimd/internal/imageio"
)

// Config holds the parameters of one batch run.
type Config struct {
	Radii      RadiusPolicy
	Thresholds detect.Thresholds
	Caps       detect.Caps
	Format     imageio.Format
	Width      int // only used for imageio.FormatRaw
	Height     int // only used for imageio.FormatRaw
	Patience   int // 0 disables the stale-streak heuristic
}

// Summary aggregates a completed (or interrupted) batch run.
type Summary struct {
	Results       []PerImageResult
	TotalMarkers  int
	TotalSuns     int
	MostlyEmpty   bool
	MaxEmptyRun   int
	ProcessedLast int // index into the image list of the last image processed
}

// ProgressFunc is called once per image, after it has been scanned, with
// the cumulative summary so far. Returning an error aborts the run (the
// caller's checkpoint-write failure, for example); ctx cancellation is
// checked independently between images.
type ProgressFunc func(idx int, res PerImageResult, sum Summary) error

// Run scans every image in paths in order, applying cfg's radius policy
// to each, and calls progress after each one. It returns the final
// Summary and the first error encountered (from loading, scanning, or
// progress), along with however much of the batch completed.
//
// Run resumes cleanly: callers that pass the same paths with startAt set
// to the first unprocessed index (in sorted order), together with a
// Summary seeded from a prior checkpoint, get identical aggregate results
// to an uninterrupted run, since per-image scanning has no cross-image
// state beyond the stale tracker (which the caller can also seed).
func Run(ctx context.Context, paths []string, startAt int, cfg Config, seed Summary, progress ProgressFunc) (Summary, error) {
	if err := cfg.Radii.Validate(); err != nil {
		return seed, err
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return seed, fmt.Errorf("batch: %w", err)
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	sum := seed
	tracker := NewStaleTracker(cfg.Patience)
	tracker.staleCount = sum.MaxEmptyRun

	for i := startAt; i < len(sorted); i++ {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		path := sorted[i]
		img, err := imageio.Load(path, cfg.Format, cfg.Width, cfg.Height)
		if err != nil {
			return sum, fmt.Errorf("batch: image %d (%s): %w", i, path, err)
		}

		res, err := ScanImage(path, img, cfg.Radii, cfg.Thresholds, cfg.Caps)
		if err != nil {
			return sum, err
		}

		sum.Results = append(sum.Results, res)
		sum.TotalMarkers += res.MarkerCount()
		sum.TotalSuns += res.SunCount()
		sum.ProcessedLast = i

		if tracker.Update(res) {
			sum.MostlyEmpty = true
		}
		if tracker.MaxStreak() > sum.MaxEmptyRun {
			sum.MaxEmptyRun = tracker.MaxStreak()
		}

		slog.Debug("batch: image scanned",
			"index", i, "path", path, "radius", res.Radius,
			"markers", res.MarkerCount(), "suns", res.SunCount(),
		)

		if progress != nil {
			if err := progress(i, res, sum); err != nil {
				return sum, fmt.Errorf("batch: progress callback: %w", err)
			}
		}
	}

	return sum, nil
}
