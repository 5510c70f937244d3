package repository

import (
	"context"
	"time"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/internal/infrastructure/config"
	"tripgen-service/pkg/logger"
)

// BitableGuideRepository implements the GuideRepository interface over the
// requests and guides tables.
type BitableGuideRepository struct {
	gateway  *BitableGateway
	requests config.TableConfig
	guides   config.TableConfig
	logger   logger.Logger
}

// NewBitableGuideRepository creates a guide repository bound to the two
// configured tables.
func NewBitableGuideRepository(gateway *BitableGateway, cfg *config.Config, log logger.Logger) repository.GuideRepository {
	return &BitableGuideRepository{
		gateway:  gateway,
		requests: cfg.RequestsTable,
		guides:   cfg.GuidesTable,
		logger:   log,
	}
}

// SaveTravelRequest writes one request row. Dates travel as epoch-ms and the
// preference tags as an ordered string list.
func (r *BitableGuideRepository) SaveTravelRequest(ctx context.Context, req *entity.TravelRequest) repository.WriteResult {
	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result := r.gateway.CreateRecords(ctx, r.requests, map[string]interface{}{
		"request_id":  req.RequestID,
		"username":    req.Username,
		"destination": req.Destination,
		"origin":      req.Origin,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
		"budget":      req.Budget,
		"preferences": req.Preferences,
		"created_at":  createdAt,
	})
	if result.Success {
		r.logger.Info("Travel request saved", "requestId", req.RequestID, "destination", req.Destination)
	}
	return result
}

// SaveTravelGuide writes one guide row.
func (r *BitableGuideRepository) SaveTravelGuide(ctx context.Context, guide *entity.TravelGuide) repository.WriteResult {
	createdAt := guide.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result := r.gateway.CreateRecords(ctx, r.guides, map[string]interface{}{
		"guide_id":      guide.GuideID,
		"request_id":    guide.RequestID,
		"destination":   guide.Destination,
		"weather_info":  guide.WeatherInfo,
		"guide_content": guide.Content,
		"created_at":    createdAt,
	})
	if result.Success {
		r.logger.Info("Travel guide saved", "guideId", guide.GuideID, "destination", guide.Destination)
	}
	return result
}

// GetGuideByID fetches a single guide row by its guide_id field.
func (r *BitableGuideRepository) GetGuideByID(ctx context.Context, guideID string) (*entity.TravelGuide, error) {
	filter := map[string]interface{}{
		"conditions": []map[string]interface{}{
			{"field_name": "guide_id", "operator": "is", "value": []string{guideID}},
		},
	}
	records, err := r.gateway.QueryRecords(ctx, r.guides, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, entity.ErrNotFound
	}
	return guideFromRecord(records[0]), nil
}

// ListRecentGuides returns up to limit guides, newest first. The sort runs
// provider-side so only one page of limit records crosses the wire.
func (r *BitableGuideRepository) ListRecentGuides(ctx context.Context, limit int) ([]*entity.TravelGuide, error) {
	if limit <= 0 {
		limit = 10
	}
	records, err := r.gateway.QueryRecordsPage(ctx, r.guides, nil, []string{"created_at DESC"}, limit)
	if err != nil {
		return nil, err
	}
	guides := make([]*entity.TravelGuide, 0, len(records))
	for _, rec := range records {
		guides = append(guides, guideFromRecord(rec))
	}
	return guides, nil
}

func guideFromRecord(rec Record) *entity.TravelGuide {
	return &entity.TravelGuide{
		GuideID:     fieldString(rec.Fields, "guide_id"),
		RequestID:   fieldString(rec.Fields, "request_id"),
		Destination: fieldString(rec.Fields, "destination"),
		WeatherInfo: fieldString(rec.Fields, "weather_info"),
		Content:     fieldString(rec.Fields, "guide_content"),
		CreatedAt:   time.UnixMilli(fieldInt64(rec.Fields, "created_at")),
	}
}
