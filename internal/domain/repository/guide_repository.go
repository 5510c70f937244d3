package repository

import (
	"context"

	"tripgen-service/internal/domain/entity"
)

// WriteResult is the outcome of a remote table write. Writes never propagate
// raw errors to the caller: after retries are exhausted the last error is
// carried here and Success is false.
type WriteResult struct {
	Success  bool
	RecordID string
	Attempts int
	Err      error
}

// GuideRepository persists travel requests and generated guides in the
// remote table service.
type GuideRepository interface {
	SaveTravelRequest(ctx context.Context, req *entity.TravelRequest) WriteResult
	SaveTravelGuide(ctx context.Context, guide *entity.TravelGuide) WriteResult
	GetGuideByID(ctx context.Context, guideID string) (*entity.TravelGuide, error)
	ListRecentGuides(ctx context.Context, limit int) ([]*entity.TravelGuide, error)
}
