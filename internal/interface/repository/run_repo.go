package repository

import (
	"context"
	"time"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRunRepository implements the RunRepository interface
type MongoRunRepository struct {
	collection *mongo.Collection
}

// NewMongoRunRepository creates a new MongoDB pipeline run repository
func NewMongoRunRepository(db *mongo.Database) repository.RunRepository {
	collection := db.Collection("pipeline_runs")

	ctx := context.Background()

	runIDIndex := mongo.IndexModel{
		Keys:    bson.M{"runId": 1},
		Options: options.Index().SetUnique(true),
	}
	statusIndex := mongo.IndexModel{
		Keys: bson.M{"status": 1},
	}
	startedAtIndex := mongo.IndexModel{
		Keys: bson.M{"startedAt": -1},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		runIDIndex,
		statusIndex,
		startedAtIndex,
	})

	return &MongoRunRepository{
		collection: collection,
	}
}

// Save inserts a new run journal entry
func (r *MongoRunRepository) Save(ctx context.Context, run *entity.PipelineRun) error {
	if run.Status == "" {
		run.Status = entity.RunStatusPending
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, run)
	return err
}

// UpdateStatus moves a run to a new status
func (r *MongoRunRepository) UpdateStatus(ctx context.Context, runID, status string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"runId": runID},
		bson.M{"$set": bson.M{"status": status}},
	)
	return err
}

// MarkFinished records the terminal status, error detail and resolved steps
func (r *MongoRunRepository) MarkFinished(ctx context.Context, runID, status, errorDetail string, steps entity.RunSteps) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"runId": runID},
		bson.M{"$set": bson.M{
			"status":      status,
			"errorDetail": errorDetail,
			"steps":       steps,
			"finishedAt":  time.Now(),
		}},
	)
	return err
}

// FindByStatus returns runs with the given status, oldest first
func (r *MongoRunRepository) FindByStatus(ctx context.Context, status string, limit int) ([]*entity.PipelineRun, error) {
	limit64 := int64(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, &options.FindOptions{
		Limit: &limit64,
		Sort:  bson.M{"startedAt": 1},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []*entity.PipelineRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
