package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fimd/fimd/internal/batch"
	"github.com/fimd/fimd/internal/detect"
)

func writeTestImageDir(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < n; i++ {
		img := image.NewGray(image.Rect(0, 0, 40, 40))
		for y := 0; y < 40; y++ {
			for x := 0; x < 40; x++ {
				img.SetGray(x, y, color.Gray{Y: 30})
			}
		}
		if i%2 == 0 {
			img.SetGray(20, 20, color.Gray{Y: 250})
		}
		path := filepath.Join(dir, fmt.Sprintf("img%02d.png", i))
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create %s: %v", path, err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatalf("encode %s: %v", path, err)
		}
		f.Close()
	}
	return dir
}

func testScanConfig(dir string) JobConfig {
	return JobConfig{
		ImageDir:   dir,
		Radii:      batch.RadiusPolicy{2},
		Thresholds: detect.Thresholds{Tc: 120, Td: 60, Ts: 240},
		Caps:       detect.Caps{Mmax: 16, Smax: 64},
		Format:     "png",
	}
}

func TestServer_CreateJob(t *testing.T) {
	dir := writeTestImageDir(t, 3)
	s := NewServer(":8080", nil)

	config := testScanConfig(dir)
	body, _ := json.Marshal(config)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.TotalImages != 3 {
		t.Errorf("TotalImages = %d, want 3", job.TotalImages)
	}
}

func TestServer_CreateJob_MissingImageDir(t *testing.T) {
	s := NewServer(":8080", nil)

	body, _ := json.Marshal(JobConfig{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleCreateJob(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestServer_ListJobs(t *testing.T) {
	dir := writeTestImageDir(t, 1)
	s := NewServer(":8080", nil)

	s.jobManager.CreateJob(testScanConfig(dir), 1)
	s.jobManager.CreateJob(testScanConfig(dir), 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()

	s.handleListJobs(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var jobs []*Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestServer_GetJobStatus(t *testing.T) {
	dir := writeTestImageDir(t, 1)
	s := NewServer(":8080", nil)

	job := s.jobManager.CreateJob(testScanConfig(dir), 1)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/status", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["id"] != job.ID {
		t.Error("Response should contain job ID")
	}
	if response["state"] != string(StatePending) {
		t.Errorf("Expected pending state, got %v", response["state"])
	}
}

func TestServer_GetJobStatus_NotFound(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/status", nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_RunJobEndToEnd(t *testing.T) {
	dir := writeTestImageDir(t, 4)
	s := NewServer(":8080", nil)

	job := s.jobManager.CreateJob(testScanConfig(dir), 4)
	paths, err := listImages(dir)
	if err != nil {
		t.Fatalf("listImages: %v", err)
	}

	if err := runJob(context.Background(), s.jobManager, nil, job.ID, paths); err != nil {
		t.Fatalf("runJob: %v", err)
	}

	done, _ := s.jobManager.GetJob(job.ID)
	if done.State != StateCompleted {
		t.Errorf("expected completed state, got %s", done.State)
	}
	if done.ProcessedIndex != len(paths)-1 {
		t.Errorf("ProcessedIndex = %d, want %d", done.ProcessedIndex, len(paths)-1)
	}
	if done.TotalMarkers == 0 {
		t.Error("expected at least one marker detected across the fixture set")
	}
}

func TestServer_JobStream_NotFound(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/events", nil)
	w := httptest.NewRecorder()

	s.handleJobStream(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	event := ProgressEvent{
		JobID:        "job1",
		State:        StateRunning,
		TotalMarkers: 10,
		Timestamp:    time.Now(),
	}
	eb.Broadcast(event)

	select {
	case received := <-ch:
		if received.JobID != "job1" {
			t.Errorf("Expected jobID job1, got %s", received.JobID)
		}
		if received.TotalMarkers != 10 {
			t.Errorf("Expected 10 markers, got %d", received.TotalMarkers)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for event")
	}

	eb.CleanupJob("job1")
}

func TestServer_Index(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	s.handleIndex(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Error("Expected application/json content type")
	}
}
