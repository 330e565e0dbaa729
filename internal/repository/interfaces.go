package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/badgegen/internal/models"
)

// RunRepository records pipeline invocations
type RunRepository interface {
	StartRun(ctx context.Context, mode string, startedAt time.Time) (string, error)
	FinishRun(ctx context.Context, id, status string, rendered, skipped, failed int, finishedAt time.Time) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
}

// BadgeRepository records rendered badges and per-position failures
type BadgeRepository interface {
	RecordBadge(ctx context.Context, badge models.BadgeRecord) error
	GetBadge(ctx context.Context, code string) (*models.BadgeRecord, error)
	ListBadges(ctx context.Context, orderCode string) ([]models.BadgeRecord, error)
	RecordFailure(ctx context.Context, failure models.BadgeFailure) error
	ListFailures(ctx context.Context, runID string) ([]models.BadgeFailure, error)
}

// FullRepository combines all repository interfaces
type FullRepository interface {
	RunRepository
	BadgeRepository
	Stats(ctx context.Context) (*models.LedgerStats, error)
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
