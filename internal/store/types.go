package store

import (
	"fmt"
	"time"

	"github.com/fimd/fimd/internal/batch"
	"github.com/fimd/fimd/internal/detect"
)

// JobConfig holds the configuration of a batch scan job (checkpoint copy,
// to avoid an import cycle with the server package).
type JobConfig struct {
	ImageDir           string             `json:"imageDir"`
	Radii              batch.RadiusPolicy `json:"radii"`
	Thresholds         detect.Thresholds  `json:"thresholds"`
	Caps               detect.Caps        `json:"caps"`
	Format             string             `json:"format"` // "auto", "raw", "png", "jpeg", "bmp"
	Width              int                `json:"width,omitempty"`
	Height             int                `json:"height,omitempty"`
	Patience           int                `json:"patience,omitempty"`
	CheckpointInterval int                `json:"checkpointInterval,omitempty"` // seconds, 0 disables
}

// Checkpoint is a saved batch-scan progress record that can be resumed.
//
// SAVED STATE:
//   - ProcessedIndex: the index (in sorted path order) of the last image
//     scanned, so ProcessedIndex+1 images are done
//   - Results: the cumulative per-image outcomes, in processing order
//   - TotalMarkers / TotalSuns: running aggregate counts
//   - Config: the job's configuration, checked for compatibility on resume
//
// A batch scan has no optimizer-style internal state to discard on
// resume: each image is scanned independently, so resuming is just
// picking the image list back up at ProcessedIndex+1 — the aggregate
// counts and result count match an uninterrupted run (see runner_test.go's
// resume equivalence test).
type Checkpoint struct {
	JobID          string                  `json:"jobId"`
	ProcessedIndex int                     `json:"processedIndex"`
	Results        []batch.PerImageResult  `json:"results"`
	TotalMarkers   int                     `json:"totalMarkers"`
	TotalSuns      int                     `json:"totalSuns"`
	MostlyEmpty    bool                    `json:"mostlyEmpty"`
	MaxEmptyRun    int                     `json:"maxEmptyRun"`
	Timestamp      time.Time               `json:"timestamp"`
	Config         JobConfig               `json:"config"`
}

// CheckpointInfo is checkpoint metadata without the full per-image result
// list, for listing checkpoints cheaply.
type CheckpointInfo struct {
	JobID          string    `json:"jobId"`
	ProcessedIndex int       `json:"processedIndex"`
	TotalMarkers   int       `json:"totalMarkers"`
	TotalSuns      int       `json:"totalSuns"`
	Timestamp      time.Time `json:"timestamp"`
	ImageDir       string    `json:"imageDir"`
}

// NewCheckpoint builds a Checkpoint from a batch.Summary.
func NewCheckpoint(jobID string, sum batch.Summary, config JobConfig) *Checkpoint {
	return &Checkpoint{
		JobID:          jobID,
		ProcessedIndex: sum.ProcessedLast,
		Results:        sum.Results,
		TotalMarkers:   sum.TotalMarkers,
		TotalSuns:      sum.TotalSuns,
		MostlyEmpty:    sum.MostlyEmpty,
		MaxEmptyRun:    sum.MaxEmptyRun,
		Timestamp:      time.Now(),
		Config:         config,
	}
}

// Summary reconstructs a batch.Summary from the checkpoint, for resuming
// a Run call.
func (c *Checkpoint) Summary() batch.Summary {
	return batch.Summary{
		Results:       c.Results,
		TotalMarkers:  c.TotalMarkers,
		TotalSuns:     c.TotalSuns,
		MostlyEmpty:   c.MostlyEmpty,
		MaxEmptyRun:   c.MaxEmptyRun,
		ProcessedLast: c.ProcessedIndex,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:          c.JobID,
		ProcessedIndex: c.ProcessedIndex,
		TotalMarkers:   c.TotalMarkers,
		TotalSuns:      c.TotalSuns,
		Timestamp:      c.Timestamp,
		ImageDir:       c.Config.ImageDir,
	}
}

// Validate checks that the checkpoint has well-formed data.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if c.ProcessedIndex < 0 {
		return &ValidationError{Field: "ProcessedIndex", Reason: "cannot be negative"}
	}
	if c.TotalMarkers < 0 {
		return &ValidationError{Field: "TotalMarkers", Reason: "cannot be negative"}
	}
	if c.TotalSuns < 0 {
		return &ValidationError{Field: "TotalSuns", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.ImageDir == "" {
		return &ValidationError{Field: "Config.ImageDir", Reason: "cannot be empty"}
	}
	if err := c.Config.Radii.Validate(); err != nil {
		return &ValidationError{Field: "Config.Radii", Reason: err.Error()}
	}
	if err := c.Config.Thresholds.Validate(); err != nil {
		return &ValidationError{Field: "Config.Thresholds", Reason: err.Error()}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks if this checkpoint can be resumed with the given
// config: the image directory and radius policy must match, since those
// determine which images get scanned and with what detectors.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if c.Config.ImageDir != config.ImageDir {
		return &CompatibilityError{
			Field:    "ImageDir",
			Expected: c.Config.ImageDir,
			Actual:   config.ImageDir,
		}
	}
	if fmt.Sprint(c.Config.Radii) != fmt.Sprint(config.Radii) {
		return &CompatibilityError{
			Field:    "Radii",
			Expected: fmt.Sprint(c.Config.Radii),
			Actual:   fmt.Sprint(config.Radii),
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
