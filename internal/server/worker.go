package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fimd/fimd/internal/batch"
	"github.com/fimd/fimd/internal/store"
)

// runJob executes a batch scan from the start of paths.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, paths []string) error {
	return runBatchJob(ctx, jm, checkpointStore, jobID, paths, 0, batch.Summary{})
}

// runResumedJob continues a batch scan from resumeAt, seeded with the
// summary recovered from a checkpoint.
func runResumedJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, paths []string, resumeAt int, seed batch.Summary) error {
	return runBatchJob(ctx, jm, checkpointStore, jobID, paths, resumeAt, seed)
}

// runBatchJob is the shared worker body for both a fresh scan and a
// resumed one. If checkpointStore is not nil and the job's
// CheckpointInterval is > 0, periodic checkpoints are saved while the
// scan runs.
func runBatchJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, paths []string, startAt int, seed batch.Summary) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}

	slog.Info("starting job", "job_id", jobID, "image_dir", job.Config.ImageDir, "images", len(paths), "start_at", startAt)

	var traceWriter *store.TraceWriter
	if job.Config.CheckpointInterval > 0 {
		tw, err := store.NewTraceWriter("./data", jobID, startAt > 0)
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

	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	var snapMu sync.Mutex
	latestSummary := seed

	checkpointDone := make(chan struct{})
	checkpointEnabled := checkpointStore != nil && job.Config.CheckpointInterval > 0
	if checkpointEnabled {
		go monitorCheckpoints(ctx, jm, checkpointStore, jobID, &snapMu, &latestSummary, job.Config.CheckpointInterval, checkpointDone)
	} else {
		close(checkpointDone)
	}

	start := time.Now()
	cfg := batchConfig(job.Config)

	progress := func(idx int, res batch.PerImageResult, sum batch.Summary) error {
		snapMu.Lock()
		latestSummary = sum
		snapMu.Unlock()

		results := append([]batch.PerImageResult(nil), sum.Results...)
		if err := jm.UpdateJob(jobID, func(j *Job) {
			j.ProcessedIndex = sum.ProcessedLast
			j.TotalMarkers = sum.TotalMarkers
			j.TotalSuns = sum.TotalSuns
			j.MostlyEmpty = sum.MostlyEmpty
			j.Results = results
		}); err != nil {
			return err
		}

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
		return nil
	}

	sum, err := batch.Run(ctx, paths, startAt, cfg, seed, progress)
	close(checkpointDone)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
			return ctx.Err()
		}
		markJobFailed(jm, jobID, err)
		return err
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.ProcessedIndex = sum.ProcessedLast
		j.TotalMarkers = sum.TotalMarkers
		j.TotalSuns = sum.TotalSuns
		j.MostlyEmpty = sum.MostlyEmpty
		j.Results = sum.Results
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	ips := float64(len(paths)-startAt) / elapsed.Seconds()
	slog.Info("job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"total_markers", sum.TotalMarkers,
		"total_suns", sum.TotalSuns,
		"images_per_second", ips,
	)

	return nil
}

func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("job failed", "job_id", jobID, "error", err)
}

func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("job cancelled", "job_id", jobID)
}

// monitorCheckpoints periodically saves a checkpoint of the most recently
// observed summary snapshot while a scan runs.
func monitorCheckpoints(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, snapMu *sync.Mutex, latest *batch.Summary, intervalSeconds int, done chan struct{}) {
	ticker := time.NewTicker(time.Duration(intervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}
			snapMu.Lock()
			sum := *latest
			snapMu.Unlock()

			if len(sum.Results) == 0 {
				slog.Debug("skipping checkpoint, no results yet", "job_id", jobID)
				continue
			}

			checkpoint := store.NewCheckpoint(jobID, sum, job.Config)
			if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
				slog.Error("failed to save checkpoint", "job_id", jobID, "error", err)
				continue
			}
			slog.Info("checkpoint saved", "job_id", jobID, "processed", sum.ProcessedLast, "total_markers", sum.TotalMarkers)
		}
	}
}
