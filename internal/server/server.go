package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/fimd/fimd/internal/batch"
	"github.com/fimd/fimd/internal/store"
)

// Server is the HTTP front end for submitting and monitoring batch scan
// jobs over a directory of images.
type Server struct {
	jobManager *JobManager
	store      store.Store
	addr       string
	server     *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewServer creates a new HTTP server with an optional checkpoint store.
// If store is nil, checkpointing and resume are disabled.
func NewServer(addr string, checkpointStore store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobManager: NewJobManager(),
		store:      checkpointStore,
		addr:       addr,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start registers routes and blocks serving HTTP until the server stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)

	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	handler := s.loggingMiddleware(s.corsMiddleware(mux))

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}

	slog.Info("starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, checkpointing any running jobs
// first.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")

	s.cancel()

	if s.store != nil {
		s.checkpointRunningJobs(ctx)
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// checkpointRunningJobs saves a checkpoint for every job still running at
// shutdown time, using each job's most recent progress snapshot.
func (s *Server) checkpointRunningJobs(ctx context.Context) {
	running := s.jobManager.GetRunningJobs()
	if len(running) == 0 {
		slog.Info("no running jobs to checkpoint")
		return
	}

	slog.Info("checkpointing running jobs", "count", len(running))

	type result struct {
		jobID string
		err   error
	}
	results := make(chan result, len(running))

	for _, job := range running {
		go func(j *Job) {
			sum := jobSummary(j)
			checkpoint := store.NewCheckpoint(j.ID, sum, j.Config)
			err := s.store.SaveCheckpoint(j.ID, checkpoint)
			if err != nil {
				slog.Error("failed to checkpoint job on shutdown", "job_id", j.ID, "error", err)
			} else {
				slog.Info("job checkpointed on shutdown", "job_id", j.ID, "processed", j.ProcessedIndex)
			}
			results <- result{jobID: j.ID, err: err}
		}(job)
	}

	checkpointed, failed := 0, 0
	for i := 0; i < len(running); i++ {
		select {
		case r := <-results:
			if r.err == nil {
				checkpointed++
			} else {
				failed++
			}
		case <-ctx.Done():
			slog.Warn("checkpoint timeout during shutdown", "checkpointed", checkpointed, "failed", failed)
			return
		}
	}

	slog.Info("shutdown checkpoint complete", "checkpointed", checkpointed, "failed", failed)
}

// jobSummary reconstructs a batch.Summary from a Job's running totals and
// its mirrored per-image Results, sufficient to seed a checkpoint.
func jobSummary(j *Job) batch.Summary {
	return batch.Summary{
		Results:       j.Results,
		TotalMarkers:  j.TotalMarkers,
		TotalSuns:     j.TotalSuns,
		MostlyEmpty:   j.MostlyEmpty,
		ProcessedLast: j.ProcessedIndex,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service": "fimd",
		"routes": []string{
			"POST /api/v1/jobs",
			"GET  /api/v1/jobs",
			"GET  /api/v1/jobs/{id}",
			"GET  /api/v1/jobs/{id}/events",
			"GET  /api/v1/jobs/{id}/results",
			"POST /api/v1/jobs/{id}/resume",
		},
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	switch {
	case len(parts) == 1 || parts[1] == "status":
		s.handleGetJobStatus(w, r, jobID)
	case parts[1] == "events":
		s.handleJobStream(w, r, jobID)
	case parts[1] == "results":
		s.handleGetJobResults(w, r, jobID)
	case parts[1] == "resume":
		s.handleResumeJob(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleGetJobResults handles GET /api/v1/jobs/{id}/results: it returns
// the per-image results accumulated so far (the full list once the job
// has completed).
func (s *Server) handleGetJobResults(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"jobId":   job.ID,
		"state":   job.State,
		"results": job.Results,
	})
}

// handleCreateJob handles POST /api/v1/jobs: it lists the image
// directory, validates the config, and starts the scan in the
// background.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var config JobConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if config.ImageDir == "" {
		http.Error(w, "imageDir is required", http.StatusBadRequest)
		return
	}
	if len(config.Radii) == 0 {
		config.Radii = batch.DefaultRadiusPolicy()
	}
	if config.Format == "" {
		config.Format = "auto"
	}

	paths, err := listImages(config.ImageDir)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list images: %v", err), http.StatusBadRequest)
		return
	}
	if len(paths) == 0 {
		http.Error(w, "imageDir contains no supported images", http.StatusBadRequest)
		return
	}

	job := s.jobManager.CreateJob(config, len(paths))
	go runJob(s.ctx, s.jobManager, s.store, job.ID, paths)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobManager.ListJobs()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	ips := float64(0)
	if elapsed.Seconds() > 0 {
		ips = float64(job.ProcessedIndex+1) / elapsed.Seconds()
	}

	response := map[string]any{
		"id":              job.ID,
		"state":           job.State,
		"config":          job.Config,
		"processedIndex":  job.ProcessedIndex,
		"totalImages":     job.TotalImages,
		"totalMarkers":    job.TotalMarkers,
		"totalSuns":       job.TotalSuns,
		"mostlyEmpty":     job.MostlyEmpty,
		"elapsed":         elapsed.Seconds(),
		"imagesPerSecond": ips,
		"startTime":       job.StartTime,
		"endTime":         job.EndTime,
		"error":           job.Error,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleResumeJob handles POST /api/v1/jobs/{id}/resume: it loads the
// checkpoint, re-lists the image directory, and starts a new job
// continuing from the checkpoint's ProcessedIndex+1.
func (s *Server) handleResumeJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.store == nil {
		http.Error(w, "Checkpoint feature not enabled", http.StatusServiceUnavailable)
		return
	}

	checkpoint, err := s.store.LoadCheckpoint(jobID)
	if err != nil {
		if _, ok := err.(*store.NotFoundError); ok {
			http.Error(w, fmt.Sprintf("Checkpoint not found for job %s", jobID), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to load checkpoint: %v", err), http.StatusInternalServerError)
		return
	}

	if err := checkpoint.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid checkpoint: %v", err), http.StatusBadRequest)
		return
	}

	slog.Info("resuming job from checkpoint", "job_id", jobID, "processed", checkpoint.ProcessedIndex)

	paths, err := listImages(checkpoint.Config.ImageDir)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list images: %v", err), http.StatusInternalServerError)
		return
	}

	newJob := s.jobManager.CreateJob(checkpoint.Config, len(paths))
	s.jobManager.UpdateJob(newJob.ID, func(j *Job) {
		j.ProcessedIndex = checkpoint.ProcessedIndex
		j.TotalMarkers = checkpoint.TotalMarkers
		j.TotalSuns = checkpoint.TotalSuns
		j.MostlyEmpty = checkpoint.MostlyEmpty
	})

	resumeAt := checkpoint.ProcessedIndex + 1
	go runResumedJob(s.ctx, s.jobManager, s.store, newJob.ID, paths, resumeAt, checkpoint.Summary())

	response := map[string]any{
		"jobId":         newJob.ID,
		"resumedFrom":   jobID,
		"state":         string(newJob.State),
		"resumeAtIndex": resumeAt,
		"previousTotal": checkpoint.TotalMarkers,
		"message":       "job resumed from checkpoint",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
