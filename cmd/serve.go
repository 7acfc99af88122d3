package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/fimd/fimd/internal/server"
	"github.com/fimd/fimd/internal/store"
	"github.com/spf13/cobra"
)

var (
	serverAddr      string
	serverPort      int
	serveDataDir    string
	serveCPUProfile string
	serveMemProfile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for background scan jobs",
	Long: `Starts an HTTP server that accepts batch scan jobs via REST API.
Jobs run in the background and progress can be monitored via SSE or the
status endpoint.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serverAddr, "addr", "localhost", "Server bind address")
	serveCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Base directory for checkpoint storage")

	serveCmd.Flags().StringVar(&serveCPUProfile, "cpuprofile", "", "Write CPU profile to file")
	serveCmd.Flags().StringVar(&serveMemProfile, "memprofile", "", "Write memory profile to file on shutdown")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveCPUProfile != "" {
		f, err := os.Create(serveCPUProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		slog.Info("CPU profiling enabled", "output", serveCPUProfile)
	}

	addr := fmt.Sprintf("%s:%d", serverAddr, serverPort)

	slog.Info("starting fimd server", "addr", addr)
	fmt.Printf("Server listening on http://%s\n", addr)
	fmt.Println("API endpoints:")
	fmt.Println("  POST   /api/v1/jobs               - Create new scan job")
	fmt.Println("  GET    /api/v1/jobs               - List all jobs")
	fmt.Println("  GET    /api/v1/jobs/:id            - Get job status")
	fmt.Println("  GET    /api/v1/jobs/:id/events     - Stream progress (SSE)")
	fmt.Println("  GET    /api/v1/jobs/:id/results    - Get per-image results")
	fmt.Println("  POST   /api/v1/jobs/:id/resume     - Resume from checkpoint")
	fmt.Println("\nProfiling endpoints:")
	fmt.Printf("  GET    http://%s/debug/pprof/        - pprof index\n", addr)
	fmt.Printf("  GET    http://%s/debug/pprof/profile - CPU profile (30s)\n", addr)
	fmt.Println("\nPress Ctrl+C to shutdown")

	checkpointStore, err := store.NewFSStore(serveDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	srv := server.NewServer(addr, checkpointStore)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutdown signal received", "signal", sig)
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}

		if serveMemProfile != "" {
			f, err := os.Create(serveMemProfile)
			if err != nil {
				return fmt.Errorf("failed to create memory profile: %w", err)
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				return fmt.Errorf("failed to write memory profile: %w", err)
			}
			slog.Info("memory profile written", "output", serveMemProfile)
		}

		fmt.Println("Server stopped gracefully")
	}

	return nil
}
