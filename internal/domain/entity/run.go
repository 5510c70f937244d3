package entity

import "time"

// Pipeline run status
const (
	RunStatusPending    = "PENDING"
	RunStatusProcessing = "PROCESSING"
	RunStatusCompleted  = "COMPLETED"
	RunStatusFailed     = "FAILED"
)

// RunSteps records which optional stages of a run actually resolved.
type RunSteps struct {
	WeatherFetched  bool     `bson:"weatherFetched"`
	RouteFetched    bool     `bson:"routeFetched"`
	GuidePersisted  bool     `bson:"guidePersisted"`
	MissingSections []string `bson:"missingSections,omitempty"`
}

// PipelineRun is the operational journal entry for one guide generation or
// refinement. It lives in MongoDB and exists for troubleshooting, not as a
// cache of guide content.
type PipelineRun struct {
	RunID       string    `bson:"runId"`
	Kind        string    `bson:"kind"` // generate | refine | pitfall
	Username    string    `bson:"username"`
	RequestID   string    `bson:"requestId,omitempty"`
	GuideID     string    `bson:"guideId,omitempty"`
	Destination string    `bson:"destination"`
	Status      string    `bson:"status"`
	Steps       RunSteps  `bson:"steps"`
	ErrorDetail string    `bson:"errorDetail,omitempty"`
	StartedAt   time.Time `bson:"startedAt"`
	FinishedAt  time.Time `bson:"finishedAt,omitempty"`
}
