package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/DevinHarlan/lotboard/internal/repositories"
)

// CleanupManager periodically prunes email log rows past the retention window
type CleanupManager struct {
	emailLogRepo *repositories.EmailLogRepository
	logger       *slog.Logger
	interval     time.Duration
	retention    time.Duration
	stopCh       chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	emailLogRepo *repositories.EmailLogRepository,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *CleanupManager {
	return &CleanupManager{
		emailLogRepo: emailLogRepo,
		logger:       logger,
		interval:     interval,
		retention:    retention,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup removes email log rows older than the retention window
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cm.logger.Info("starting email log cleanup")

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-cm.retention)

	rowsDeleted, err := cm.emailLogRepo.DeleteOlderThan(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to cleanup email logs", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("email log cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
