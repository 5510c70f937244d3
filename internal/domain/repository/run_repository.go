package repository

import (
	"context"

	"tripgen-service/internal/domain/entity"
)

// RunRepository journals pipeline runs for troubleshooting.
type RunRepository interface {
	Save(ctx context.Context, run *entity.PipelineRun) error
	UpdateStatus(ctx context.Context, runID, status string) error
	MarkFinished(ctx context.Context, runID, status, errorDetail string, steps entity.RunSteps) error
	FindByStatus(ctx context.Context, status string, limit int) ([]*entity.PipelineRun, error)
}
