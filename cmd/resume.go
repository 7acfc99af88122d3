package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/fimd/fimd/internal/store"
	"github.com/spf13/cobra"
)

var (
	resumeServerURL string
	resumeLocalMode bool
	resumeDataDir   string
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume a scan from a checkpoint",
	Long: `Resume a batch scan job from a saved checkpoint.

Supports two modes:
  1. Server mode (default): POST to the server's resume endpoint
  2. Local mode (--local): load the checkpoint and keep scanning locally

Examples:
  # Resume via server
  fimd resume abc123 --server http://localhost:8080

  # Resume locally
  fimd resume abc123 --local --data-dir ./data`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeServerURL, "server", "http://localhost:8080", "Server URL for remote resume")
	resumeCmd.Flags().BoolVar(&resumeLocalMode, "local", false, "Resume locally instead of via server")
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage (local mode)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	if resumeLocalMode {
		return runResumeLocal(jobID)
	}
	return runResumeServer(jobID)
}

func runResumeServer(jobID string) error {
	url := fmt.Sprintf("%s/api/v1/jobs/%s/resume", resumeServerURL, jobID)

	slog.Info("resuming job via server", "job_id", jobID, "url", url)

	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("checkpoint not found for job %s", jobID)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var result struct {
		JobID         string `json:"jobId"`
		ResumedFrom   string `json:"resumedFrom"`
		State         string `json:"state"`
		ResumeAtIndex int    `json:"resumeAtIndex"`
		Message       string `json:"message,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Job resumed successfully\n")
	fmt.Printf("  New job ID: %s\n", result.JobID)
	fmt.Printf("  Resumed from: %s\n", result.ResumedFrom)
	fmt.Printf("  Resuming at image: %d\n", result.ResumeAtIndex)
	fmt.Printf("\nUse 'fimd status %s' to monitor progress\n", result.JobID)

	return nil
}

func runResumeLocal(jobID string) error {
	slog.Info("resuming job locally", "job_id", jobID)

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}

	fmt.Printf("Loaded checkpoint:\n")
	fmt.Printf("  Job ID: %s\n", checkpoint.JobID)
	fmt.Printf("  Processed: %d images\n", checkpoint.ProcessedIndex+1)
	fmt.Printf("  Markers so far: %d\n", checkpoint.TotalMarkers)
	fmt.Printf("  Suns so far: %d\n", checkpoint.TotalSuns)
	fmt.Printf("  Image dir: %s\n\n", checkpoint.Config.ImageDir)

	paths, err := listImages(checkpoint.Config.ImageDir)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	resumeAt := checkpoint.ProcessedIndex + 1
	if resumeAt >= len(paths) {
		fmt.Println("Nothing left to scan; checkpoint already covers every image in the directory")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Resuming scan at image %d of %d...\n", resumeAt, len(paths))
	sum, err := scanWithCheckpointing(ctx, checkpointStore, jobID, paths, resumeAt, checkpoint.Summary(), checkpoint.Config, resumeDataDir)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("resume failed: %w", err)
	}

	fmt.Printf("Processed %d/%d image(s): %d markers, %d suns\n", sum.ProcessedLast+1, len(paths), sum.TotalMarkers, sum.TotalSuns)
	if ctx.Err() != nil {
		fmt.Printf("Interrupted again. Resume with: fimd resume %s --local --data-dir %s\n", jobID, resumeDataDir)
	}

	return nil
}
