package server

import (
	"testing"
	"time"

	"github.com/fimd/fimd/internal/batch"
)

func testJobConfig() JobConfig {
	return JobConfig{
		ImageDir: "testdata",
		Radii:    batch.RadiusPolicy{2, 3},
		Format:   "auto",
	}
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testJobConfig(), 5)

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}
	if job.Config.ImageDir != "testdata" {
		t.Errorf("Config not set correctly")
	}
	if job.TotalImages != 5 {
		t.Errorf("TotalImages = %d, want 5", job.TotalImages)
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testJobConfig(), 1)

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should exist")
	}
	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	jm.CreateJob(testJobConfig(), 1)
	jm.CreateJob(testJobConfig(), 2)

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testJobConfig(), 10)

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.ProcessedIndex = 3
		j.TotalMarkers = 7
	})
	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Error("State should be updated")
	}
	if updated.ProcessedIndex != 3 {
		t.Error("ProcessedIndex should be updated")
	}
	if updated.TotalMarkers != 7 {
		t.Error("TotalMarkers should be updated")
	}

	err = jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("Update of nonexistent job should fail")
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testJobConfig(), 10)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(iteration int) {
			jm.UpdateJob(job.ID, func(j *Job) {
				j.ProcessedIndex = iteration
				time.Sleep(time.Millisecond)
			})
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	_, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should still exist after concurrent updates")
	}
}

func TestJobManager_GetRunningJobs(t *testing.T) {
	jm := NewJobManager()

	a := jm.CreateJob(testJobConfig(), 1)
	b := jm.CreateJob(testJobConfig(), 1)
	jm.UpdateJob(a.ID, func(j *Job) { j.State = StateRunning })
	jm.UpdateJob(b.ID, func(j *Job) { j.State = StateCompleted })

	running := jm.GetRunningJobs()
	if len(running) != 1 {
		t.Fatalf("expected 1 running job, got %d", len(running))
	}
	if running[0].ID != a.ID {
		t.Errorf("expected running job %s, got %s", a.ID, running[0].ID)
	}
}
