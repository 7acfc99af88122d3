package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fimd/fimd/internal/detect"
	"github.com/fimd/fimd/internal/imageio"
)

const (
	runW, runH = 32, 32
)

func writeRawImage(t *testing.T, dir, name string, markerAt *detect.Point2D) string {
	t.Helper()
	pix := make([]byte, runW*runH)
	if markerAt != nil {
		pix[markerAt.Y*runW+markerAt.X] = 200
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pix, 0o644); err != nil {
		t.Fatalf("write raw image: %v", err)
	}
	return path
}

func baseConfig() Config {
	return Config{
		Radii:      RadiusPolicy{2, 3, 4, 5},
		Thresholds: scanThresholds(),
		Caps:       scanCaps(),
		Format:     imageio.FormatRaw,
		Width:      runW,
		Height:     runH,
	}
}

func TestRunScansEveryImageInOrder(t *testing.T) {
	dir := t.TempDir()
	center := detect.Point2D{X: 16, Y: 16}
	paths := []string{
		writeRawImage(t, dir, "b.bin", nil),
		writeRawImage(t, dir, "a.bin", &center),
		writeRawImage(t, dir, "c.bin", nil),
	}

	sum, err := Run(context.Background(), paths, 0, baseConfig(), Summary{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(sum.Results))
	}
	// sorted order: a.bin, b.bin, c.bin
	if got := filepath.Base(sum.Results[0].Path); got != "a.bin" {
		t.Errorf("Results[0].Path = %s, want a.bin", got)
	}
	if sum.TotalMarkers != 1 {
		t.Errorf("TotalMarkers = %d, want 1", sum.TotalMarkers)
	}
}

func TestRunResumeEquivalence(t *testing.T) {
	dir := t.TempDir()
	center := detect.Point2D{X: 16, Y: 16}
	paths := []string{
		writeRawImage(t, dir, "a.bin", &center),
		writeRawImage(t, dir, "b.bin", nil),
		writeRawImage(t, dir, "c.bin", &center),
	}
	cfg := baseConfig()

	full, err := Run(context.Background(), paths, 0, cfg, Summary{}, nil)
	if err != nil {
		t.Fatalf("Run (full): %v", err)
	}

	// paths[:1] is a.bin, the first image in sorted order.
	partial, err := Run(context.Background(), paths[:1], 0, cfg, Summary{}, nil)
	if err != nil {
		t.Fatalf("Run (first half): %v", err)
	}

	resumed, err := Run(context.Background(), paths, 1, cfg, Summary{
		Results:      append([]PerImageResult{}, partial.Results...),
		TotalMarkers: partial.TotalMarkers,
		TotalSuns:    partial.TotalSuns,
	}, nil)
	if err != nil {
		t.Fatalf("Run (resumed): %v", err)
	}

	if resumed.TotalMarkers != full.TotalMarkers || resumed.TotalSuns != full.TotalSuns {
		t.Fatalf("resume mismatch: resumed=%+v full=%+v", resumed, full)
	}
	if len(resumed.Results) != len(full.Results) {
		t.Fatalf("resumed results = %d, want %d", len(resumed.Results), len(full.Results))
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeRawImage(t, dir, "a.bin", nil),
		writeRawImage(t, dir, "b.bin", nil),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := Run(ctx, paths, 0, baseConfig(), Summary{}, nil)
	if err == nil {
		t.Fatal("Run: expected context cancellation error, got nil")
	}
	if len(sum.Results) != 0 {
		t.Fatalf("Results = %d, want 0 on immediate cancellation", len(sum.Results))
	}
}

func TestRunProgressCallback(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeRawImage(t, dir, "a.bin", nil)}
	calls := 0
	_, err := Run(context.Background(), paths, 0, baseConfig(), Summary{}, func(idx int, res PerImageResult, sum Summary) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Fatalf("progress calls = %d, want 1", calls)
	}
}

func TestStaleTrackerFlagsEmptyStreak(t *testing.T) {
	tracker := NewStaleTracker(2)
	empty := PerImageResult{}
	if tracker.Update(empty) {
		t.Fatal("Update: flagged too early")
	}
	if !tracker.Update(empty) {
		t.Fatal("Update: expected flag on 2nd consecutive empty result")
	}
	if !tracker.Flagged() {
		t.Fatal("Flagged: want true")
	}
}
