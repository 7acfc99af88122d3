package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fimd/fimd/internal/batch"
	"github.com/fimd/fimd/internal/detect"
)

func testConfig() JobConfig {
	return JobConfig{
		ImageDir:   "assets/images",
		Radii:      batch.RadiusPolicy{2, 3, 4, 5},
		Thresholds: detect.Thresholds{Tc: 120, Td: 60, Ts: 240},
		Caps:       detect.Caps{Mmax: 16, Smax: 64},
		Format:     "auto",
	}
}

func TestCheckpoint_JSONSerialization(t *testing.T) {
	original := &Checkpoint{
		JobID:          "test-job-123",
		ProcessedIndex: 4,
		Results: []batch.PerImageResult{
			{Path: "a.png", Radius: 3, Markers: []detect.Point2D{{X: 1, Y: 2}}},
		},
		TotalMarkers: 1,
		TotalSuns:    0,
		Timestamp:    time.Date(2025, 10, 23, 10, 30, 0, 0, time.UTC),
		Config:       testConfig(),
	}

	// Serialize to JSON
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal checkpoint: %v", err)
	}

	// Verify JSON is not empty
	if len(data) == 0 {
		t.Fatal("Marshaled JSON is empty")
	}

	// Deserialize from JSON
	var restored Checkpoint
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal checkpoint: %v", err)
	}

	// Verify all fields match
	if restored.JobID != original.JobID {
		t.Errorf("JobID mismatch: expected %s, got %s", original.JobID, restored.JobID)
	}
	if restored.TotalMarkers != original.TotalMarkers {
		t.Errorf("TotalMarkers mismatch: expected %d, got %d", original.TotalMarkers, restored.TotalMarkers)
	}
	if restored.ProcessedIndex != original.ProcessedIndex {
		t.Errorf("ProcessedIndex mismatch: expected %d, got %d", original.ProcessedIndex, restored.ProcessedIndex)
	}
	if !restored.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp mismatch: expected %v, got %v", original.Timestamp, restored.Timestamp)
	}
	if len(restored.Results) != len(original.Results) {
		t.Fatalf("Results length mismatch: expected %d, got %d", len(original.Results), len(restored.Results))
	}
	if restored.Config.ImageDir != original.Config.ImageDir {
		t.Errorf("Config.ImageDir mismatch: expected %s, got %s", original.Config.ImageDir, restored.Config.ImageDir)
	}
}

func TestCheckpoint_JSONIndented(t *testing.T) {
	checkpoint := &Checkpoint{
		JobID:          "test-job",
		ProcessedIndex: 1,
		TotalMarkers:   1,
		Timestamp:      time.Now(),
		Config:         testConfig(),
	}

	// Serialize with indentation (like FSStore does)
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal with indent: %v", err)
	}

	// Verify it's valid JSON and can be unmarshaled
	var restored Checkpoint
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal indented JSON: %v", err)
	}

	if restored.JobID != checkpoint.JobID {
		t.Errorf("JobID mismatch after indented serialization")
	}
}

func TestCheckpoint_Validate_Valid(t *testing.T) {
	checkpoint := &Checkpoint{
		JobID:          "valid-job",
		ProcessedIndex: 10,
		Timestamp:      time.Now(),
		Config:         testConfig(),
	}

	err := checkpoint.Validate()
	if err != nil {
		t.Errorf("Valid checkpoint should not have validation error: %v", err)
	}
}

func TestCheckpoint_Validate_EmptyJobID(t *testing.T) {
	checkpoint := &Checkpoint{
		JobID:     "",
		Timestamp: time.Now(),
		Config:    testConfig(),
	}

	err := checkpoint.Validate()
	if err == nil {
		t.Fatal("Expected validation error for empty JobID")
	}

	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("Expected ValidationError, got %T", err)
	}
}

func TestCheckpoint_Validate_NegativeProcessedIndex(t *testing.T) {
	checkpoint := &Checkpoint{
		JobID:          "test",
		ProcessedIndex: -1,
		Timestamp:      time.Now(),
		Config:         testConfig(),
	}

	err := checkpoint.Validate()
	if err == nil {
		t.Fatal("Expected validation error for negative ProcessedIndex")
	}
}

func TestCheckpoint_Validate_NegativeCounts(t *testing.T) {
	testCases := []struct {
		name         string
		totalMarkers int
		totalSuns    int
	}{
		{"negative markers", -1, 0},
		{"negative suns", 0, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checkpoint := &Checkpoint{
				JobID:        "test",
				TotalMarkers: tc.totalMarkers,
				TotalSuns:    tc.totalSuns,
				Timestamp:    time.Now(),
				Config:       testConfig(),
			}

			err := checkpoint.Validate()
			if err == nil {
				t.Fatalf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestCheckpoint_Validate_ZeroTimestamp(t *testing.T) {
	checkpoint := &Checkpoint{
		JobID:     "test",
		Timestamp: time.Time{}, // Zero value
		Config:    testConfig(),
	}

	err := checkpoint.Validate()
	if err == nil {
		t.Fatal("Expected validation error for zero timestamp")
	}
}

func TestCheckpoint_Validate_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		config JobConfig
	}{
		{"empty image dir", JobConfig{ImageDir: "", Radii: batch.RadiusPolicy{2}, Thresholds: detect.Thresholds{Tc: 1, Td: 1, Ts: 1}}},
		{"empty radii", JobConfig{ImageDir: "x", Radii: batch.RadiusPolicy{}, Thresholds: detect.Thresholds{Tc: 1, Td: 1, Ts: 1}}},
		{"unsupported radius", JobConfig{ImageDir: "x", Radii: batch.RadiusPolicy{99}, Thresholds: detect.Thresholds{Tc: 1, Td: 1, Ts: 1}}},
		{"invalid thresholds", JobConfig{ImageDir: "x", Radii: batch.RadiusPolicy{2}, Thresholds: detect.Thresholds{Tc: 0, Td: 1, Ts: 1}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checkpoint := &Checkpoint{
				JobID:     "test",
				Timestamp: time.Now(),
				Config:    tc.config,
			}

			err := checkpoint.Validate()
			if err == nil {
				t.Fatalf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestCheckpoint_IsCompatible_Compatible(t *testing.T) {
	checkpoint := &Checkpoint{Config: testConfig()}
	err := checkpoint.IsCompatible(testConfig())
	if err != nil {
		t.Errorf("Compatible configs should not return error: %v", err)
	}
}

func TestCheckpoint_IsCompatible_DifferentImageDir(t *testing.T) {
	checkpoint := &Checkpoint{Config: testConfig()}
	other := testConfig()
	other.ImageDir = "other/dir"

	err := checkpoint.IsCompatible(other)
	if err == nil {
		t.Fatal("Expected compatibility error for different ImageDir")
	}

	if _, ok := err.(*CompatibilityError); !ok {
		t.Errorf("Expected CompatibilityError, got %T", err)
	}
}

func TestCheckpoint_IsCompatible_DifferentRadii(t *testing.T) {
	checkpoint := &Checkpoint{Config: testConfig()}
	other := testConfig()
	other.Radii = batch.RadiusPolicy{3, 4}

	err := checkpoint.IsCompatible(other)
	if err == nil {
		t.Fatal("Expected compatibility error for different Radii")
	}
}

func TestCheckpointInfo_FromCheckpoint(t *testing.T) {
	checkpoint := &Checkpoint{
		JobID:          "test-job",
		TotalMarkers:   3,
		ProcessedIndex: 500,
		Timestamp:      time.Now(),
		Config:         testConfig(),
	}

	info := checkpoint.ToInfo()

	if info.JobID != checkpoint.JobID {
		t.Errorf("JobID mismatch: expected %s, got %s", checkpoint.JobID, info.JobID)
	}
	if info.TotalMarkers != checkpoint.TotalMarkers {
		t.Errorf("TotalMarkers mismatch: expected %d, got %d", checkpoint.TotalMarkers, info.TotalMarkers)
	}
	if info.ProcessedIndex != checkpoint.ProcessedIndex {
		t.Errorf("ProcessedIndex mismatch: expected %d, got %d", checkpoint.ProcessedIndex, info.ProcessedIndex)
	}
	if !info.Timestamp.Equal(checkpoint.Timestamp) {
		t.Errorf("Timestamp mismatch")
	}
	if info.ImageDir != checkpoint.Config.ImageDir {
		t.Errorf("ImageDir mismatch: expected %s, got %s", checkpoint.Config.ImageDir, info.ImageDir)
	}
}

func TestNewCheckpoint(t *testing.T) {
	jobID := "test-job"
	sum := batch.Summary{
		Results:       []batch.PerImageResult{{Path: "a.png", Radius: 2}},
		TotalMarkers:  1,
		ProcessedLast: 0,
	}
	config := testConfig()

	checkpoint := NewCheckpoint(jobID, sum, config)

	if checkpoint.JobID != jobID {
		t.Errorf("JobID mismatch: expected %s, got %s", jobID, checkpoint.JobID)
	}
	if checkpoint.TotalMarkers != sum.TotalMarkers {
		t.Errorf("TotalMarkers mismatch: expected %d, got %d", sum.TotalMarkers, checkpoint.TotalMarkers)
	}
	if checkpoint.ProcessedIndex != sum.ProcessedLast {
		t.Errorf("ProcessedIndex mismatch: expected %d, got %d", sum.ProcessedLast, checkpoint.ProcessedIndex)
	}
	if checkpoint.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if len(checkpoint.Results) != len(sum.Results) {
		t.Errorf("Results length mismatch")
	}
}
