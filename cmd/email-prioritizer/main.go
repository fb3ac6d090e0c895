package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/di"
	"github.com/mikey/email-prioritizer/internal/metrics"
	"github.com/mikey/email-prioritizer/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	emailFilter ports.EmailFilter,
	classifier core.Classifier,
	index core.VectorIndex,
	collector core.MetricsRecorder,
) error {
	defer logger.Sync()

	// Start the filter
	if err := emailFilter.Start(); err != nil {
		logger.Fatal("Failed to start filter", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the filter
	if err := emailFilter.Stop(); err != nil {
		logger.Error("Failed to stop filter", zap.Error(err))
	}

	// Log final metrics
	if snapshotter, ok := collector.(interface{ Snapshot() metrics.Snapshot }); ok {
		snap := snapshotter.Snapshot()
		logger.Info("Final metrics",
			zap.Int64("emails_processed", snap.EmailsProcessed),
			zap.Int64("errors", snap.Errors),
			zap.Int64("replies_generated", snap.RepliesGenerated),
			zap.Float64("avg_latency_ms", snap.AverageLatencyMs))
	}

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM classifier", zap.Error(err))
		}
	}
	if closer, ok := index.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close vector index", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
