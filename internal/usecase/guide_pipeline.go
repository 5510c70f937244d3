package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/internal/infrastructure/config"
	"tripgen-service/pkg/logger"
	"tripgen-service/pkg/metrics"
	"tripgen-service/templates"
)

const (
	refineMaxTokens  = 4000
	pitfallMaxTokens = 2000
)

// PersistWarning is attached to a result when the guide was generated but
// could not be written to the remote tables.
const PersistWarning = "攻略已生成，但保存到云端表格失败，请稍后在历史记录中确认"

// GenerateResult carries a finished guide plus a non-fatal warning, if any.
type GenerateResult struct {
	Guide   *entity.TravelGuide
	Warning string
}

// GuidePipeline orchestrates the full generation flow: validate, gather
// facts, build the prompt, call the generator once, enforce the section
// contract and persist. Persistence failures degrade to a warning; only
// validation and generation failures abort.
type GuidePipeline struct {
	facts   *FactGatherer
	prefs   *PreferenceService
	booking *BookingAdvisor
	llm     repository.GenerationProvider
	guides  repository.GuideRepository
	runs    repository.RunRepository
	metrics *metrics.Metrics
	logger  logger.Logger

	temperature   float64
	maxTokens     int
	sectionPolicy string
	now           func() time.Time
}

// NewGuidePipeline creates a guide pipeline.
func NewGuidePipeline(
	facts *FactGatherer,
	prefs *PreferenceService,
	booking *BookingAdvisor,
	llm repository.GenerationProvider,
	guides repository.GuideRepository,
	runs repository.RunRepository,
	m *metrics.Metrics,
	cfg *config.Config,
	log logger.Logger,
) *GuidePipeline {
	return &GuidePipeline{
		facts:         facts,
		prefs:         prefs,
		booking:       booking,
		llm:           llm,
		guides:        guides,
		runs:          runs,
		metrics:       m,
		logger:        log,
		temperature:   cfg.AITemperature,
		maxTokens:     cfg.AIMaxTokens,
		sectionPolicy: cfg.SectionPolicy,
		now:           time.Now,
	}
}

// Generate runs the pipeline for one travel request and returns the guide.
func (p *GuidePipeline) Generate(ctx context.Context, req *entity.TravelRequest) (*GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = p.now()
	}

	started := p.now()
	run := &entity.PipelineRun{
		RunID:       uuid.New().String(),
		Kind:        "generate",
		Username:    req.Username,
		RequestID:   req.RequestID,
		Destination: req.Destination,
		Status:      entity.RunStatusPending,
		StartedAt:   started,
	}
	p.journal(ctx, run)

	facts := p.facts.Gather(ctx, req)
	run.Steps.WeatherFetched = facts.HasWeather()
	run.Steps.RouteFetched = facts.HasRoute()

	prefs, err := p.prefs.Get(ctx, req.Username)
	if err != nil {
		// Preferences are an enrichment, never a gate.
		p.logger.Warn("Could not load preferences, generating without them",
			"username", req.Username, "error", err)
		prefs = &entity.PreferenceDocument{}
	}

	var route *entity.RouteEstimate
	if facts.HasRoute() {
		route = facts.Route
	}
	booking := p.booking.BuildGuidance(req, route)

	prompt := templates.BuildPrompt(req, facts, prefs, booking)
	content, err := p.complete(ctx, prompt)
	if err != nil {
		p.metrics.ErrorsCount.WithLabelValues("generate").Inc()
		p.finishRun(ctx, run, entity.RunStatusFailed, err.Error())
		return nil, err
	}

	content, missing := p.enforceSections(ctx, prompt, content)
	run.Steps.MissingSections = missing

	guide := &entity.TravelGuide{
		GuideID:     uuid.New().String(),
		RequestID:   req.RequestID,
		Destination: req.Destination,
		WeatherInfo: encodeFacts(facts),
		Content:     content,
		CreatedAt:   p.now(),
	}
	run.GuideID = guide.GuideID

	warning := p.persist(ctx, req, guide, run)

	p.metrics.GuidesGenerated.Inc()
	p.metrics.GenerationTime.Observe(p.now().Sub(started).Seconds())
	p.finishRun(ctx, run, entity.RunStatusCompleted, "")

	p.logger.Info("Guide generated",
		"guideId", guide.GuideID,
		"destination", req.Destination,
		"weather", run.Steps.WeatherFetched,
		"route", run.Steps.RouteFetched,
		"missingSections", len(missing))

	return &GenerateResult{Guide: guide, Warning: warning}, nil
}

// Refine rewrites a prior guide under a user instruction. The result is a
// new immutable guide tied to the same request.
func (p *GuidePipeline) Refine(ctx context.Context, username string, prior *entity.TravelGuide, instruction string) (*GenerateResult, error) {
	if instruction == "" {
		return nil, entity.NewValidationError("instruction", "修改建议不能为空")
	}

	started := p.now()
	run := &entity.PipelineRun{
		RunID:       uuid.New().String(),
		Kind:        "refine",
		Username:    username,
		RequestID:   prior.RequestID,
		Destination: prior.Destination,
		Status:      entity.RunStatusPending,
		StartedAt:   started,
	}
	p.journal(ctx, run)

	prompt := templates.BuildRefinePrompt(prior.Content, instruction)
	content, err := p.completeWith(ctx, prompt, refineMaxTokens)
	if err != nil {
		p.metrics.ErrorsCount.WithLabelValues("refine").Inc()
		p.finishRun(ctx, run, entity.RunStatusFailed, err.Error())
		return nil, err
	}

	content, missing := p.enforceSections(ctx, prompt, content)
	run.Steps.MissingSections = missing

	guide := &entity.TravelGuide{
		GuideID:     uuid.New().String(),
		RequestID:   prior.RequestID,
		Destination: prior.Destination,
		WeatherInfo: prior.WeatherInfo,
		Content:     content,
		CreatedAt:   p.now(),
	}
	run.GuideID = guide.GuideID

	var warning string
	if res := p.guides.SaveTravelGuide(ctx, guide); !res.Success {
		p.logger.Error("Refined guide could not be persisted",
			"guideId", guide.GuideID, "attempts", res.Attempts, "error", res.Err)
		warning = PersistWarning
	} else {
		run.Steps.GuidePersisted = true
	}

	p.metrics.GuidesRefined.Inc()
	p.finishRun(ctx, run, entity.RunStatusCompleted, "")

	return &GenerateResult{Guide: guide, Warning: warning}, nil
}

// PitfallGuide produces a standalone 避坑 briefing for a destination. It is
// not persisted; the caller renders it directly.
func (p *GuidePipeline) PitfallGuide(ctx context.Context, username, destination, preferences string) (string, error) {
	if destination == "" {
		return "", entity.NewValidationError("destination", "目的地不能为空")
	}

	run := &entity.PipelineRun{
		RunID:       uuid.New().String(),
		Kind:        "pitfall",
		Username:    username,
		Destination: destination,
		Status:      entity.RunStatusPending,
		StartedAt:   p.now(),
	}
	p.journal(ctx, run)

	prompt := templates.BuildPitfallPrompt(destination, preferences)
	content, err := p.completeWith(ctx, prompt, pitfallMaxTokens)
	if err != nil {
		p.metrics.ErrorsCount.WithLabelValues("pitfall").Inc()
		p.finishRun(ctx, run, entity.RunStatusFailed, err.Error())
		return "", err
	}

	p.finishRun(ctx, run, entity.RunStatusCompleted, "")
	return content, nil
}

func (p *GuidePipeline) complete(ctx context.Context, prompt templates.Prompt) (string, error) {
	return p.completeWith(ctx, prompt, p.maxTokens)
}

func (p *GuidePipeline) completeWith(ctx context.Context, prompt templates.Prompt, maxTokens int) (string, error) {
	return p.llm.Complete(ctx, repository.CompletionRequest{
		System:      prompt.System,
		User:        prompt.User,
		Temperature: p.temperature,
		MaxTokens:   maxTokens,
	})
}

// enforceSections applies the configured policy to a generated document and
// returns the (possibly repaired) content plus the originally missing
// headings.
func (p *GuidePipeline) enforceSections(ctx context.Context, prompt templates.Prompt, content string) (string, []string) {
	missing := templates.MissingSections(content)
	if len(missing) == 0 {
		return content, nil
	}

	p.logger.Warn("Generated guide is missing sections",
		"missing", missing, "policy", p.sectionPolicy)

	switch p.sectionPolicy {
	case config.SectionPolicyPlaceholder:
		return templates.EnsureSections(content), missing
	case config.SectionPolicyRetry:
		retried, err := p.complete(ctx, prompt)
		if err != nil {
			p.logger.Warn("Section retry call failed, shipping first attempt", "error", err)
			return content, missing
		}
		if len(templates.MissingSections(retried)) < len(missing) {
			return retried, missing
		}
		return content, missing
	default:
		return content, missing
	}
}

// persist writes the request and guide rows. Either failing downgrades to a
// warning on the result.
func (p *GuidePipeline) persist(ctx context.Context, req *entity.TravelRequest, guide *entity.TravelGuide, run *entity.PipelineRun) string {
	warning := ""

	if res := p.guides.SaveTravelRequest(ctx, req); !res.Success {
		p.logger.Error("Travel request could not be persisted",
			"requestId", req.RequestID, "attempts", res.Attempts, "error", res.Err)
		p.metrics.ErrorsCount.WithLabelValues("save_request").Inc()
		warning = PersistWarning
	}
	if res := p.guides.SaveTravelGuide(ctx, guide); !res.Success {
		p.logger.Error("Guide could not be persisted",
			"guideId", guide.GuideID, "attempts", res.Attempts, "error", res.Err)
		p.metrics.ErrorsCount.WithLabelValues("save_guide").Inc()
		warning = PersistWarning
	} else {
		run.Steps.GuidePersisted = true
	}
	return warning
}

// journal writes are best effort: the run log must never fail a generation.
// A run is saved PENDING and promoted to PROCESSING once the pipeline is
// underway, so a crash mid-flight leaves a visible stuck run.
func (p *GuidePipeline) journal(ctx context.Context, run *entity.PipelineRun) {
	if err := p.runs.Save(ctx, run); err != nil {
		p.logger.Warn("Could not journal pipeline run", "runId", run.RunID, "error", err)
		return
	}
	run.Status = entity.RunStatusProcessing
	if err := p.runs.UpdateStatus(ctx, run.RunID, entity.RunStatusProcessing); err != nil {
		p.logger.Warn("Could not update pipeline run status", "runId", run.RunID, "error", err)
	}
}

func (p *GuidePipeline) finishRun(ctx context.Context, run *entity.PipelineRun, status, errorDetail string) {
	if err := p.runs.MarkFinished(ctx, run.RunID, status, errorDetail, run.Steps); err != nil {
		p.logger.Warn("Could not finalize pipeline run", "runId", run.RunID, "error", err)
	}
}

func encodeFacts(facts *entity.FactSet) string {
	blob, err := json.Marshal(facts)
	if err != nil {
		return "{}"
	}
	return string(blob)
}
