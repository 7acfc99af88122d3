package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fimd/fimd/internal/batch"
	"github.com/fimd/fimd/internal/store"
)

// JobState is a batch scan job's lifecycle state.
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// JobConfig is the job's scan configuration, shared with the checkpoint
// store so a loaded checkpoint can be resumed without reconstructing it.
type JobConfig = store.JobConfig

// Job is one batch scan's tracked state: its configuration plus the
// running totals a client can poll or subscribe to via SSE.
type Job struct {
	ID             string     `json:"id"`
	State          JobState   `json:"state"`
	Config         JobConfig  `json:"config"`
	ProcessedIndex int        `json:"processedIndex"`
	TotalImages    int        `json:"totalImages"`
	TotalMarkers   int        `json:"totalMarkers"`
	TotalSuns      int        `json:"totalSuns"`
	MostlyEmpty    bool       `json:"mostlyEmpty"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	Error          string     `json:"error,omitempty"`

	// Results holds the per-image outcomes accumulated so far, served by
	// GET /api/v1/jobs/{id}/results. Not included in ProgressEvent or the
	// status response's JSON (it's fetched separately, on demand).
	Results []batch.PerImageResult `json:"-"`
}

// JobManager tracks all jobs created by the server in memory and fans out
// progress events through an EventBroadcaster.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *EventBroadcaster
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a new pending job with a fresh ID and total image
// count for the given path list.
func (jm *JobManager) CreateJob(config JobConfig, totalImages int) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:          uuid.New().String(),
		State:       StatePending,
		Config:      config,
		TotalImages: totalImages,
		StartTime:   time.Now(),
	}
	jm.jobs[job.ID] = job
	return job
}

// GetJob returns a copy of the job's current state.
func (jm *JobManager) GetJob(jobID string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[jobID]
	if !exists {
		return nil, false
	}
	jobCopy := *job
	return &jobCopy, true
}

// ListJobs returns copies of every tracked job.
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobCopy := *job
		jobs = append(jobs, &jobCopy)
	}
	return jobs
}

// UpdateJob applies fn to the job under lock, then broadcasts its new
// state to any SSE subscribers.
func (jm *JobManager) UpdateJob(jobID string, fn func(*Job)) error {
	jm.mu.Lock()
	job, exists := jm.jobs[jobID]
	if !exists {
		jm.mu.Unlock()
		return &NotFoundError{JobID: jobID}
	}
	fn(job)
	jobCopy := *job
	jm.mu.Unlock()

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:          jobCopy.ID,
		State:          jobCopy.State,
		ProcessedIndex: jobCopy.ProcessedIndex,
		TotalImages:    jobCopy.TotalImages,
		TotalMarkers:   jobCopy.TotalMarkers,
		TotalSuns:      jobCopy.TotalSuns,
		Timestamp:      time.Now(),
	})
	return nil
}

// GetRunningJobs returns copies of every job currently in StateRunning,
// for checkpointing on shutdown.
func (jm *JobManager) GetRunningJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	var running []*Job
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			jobCopy := *job
			running = append(running, &jobCopy)
		}
	}
	return running
}

// NotFoundError indicates a job ID not known to the manager.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	return "job not found: " + e.JobID
}

// batchConfig converts a job's stored config into a batch.Config for
// passing to batch.Run.
func batchConfig(c JobConfig) batch.Config {
	return batch.Config{
		Radii:      c.Radii,
		Thresholds: c.Thresholds,
		Caps:       c.Caps,
		Format:     formatFromString(c.Format),
		Width:      c.Width,
		Height:     c.Height,
		Patience:   c.Patience,
	}
}
