package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/infrastructure/config"
	"tripgen-service/pkg/metrics"
	"tripgen-service/templates"
)

var testMetrics = metrics.NewMetrics("tripgen_test")

func completeGuideText() string {
	var b strings.Builder
	b.WriteString("# 杭州三日游\n\n")
	for i, h := range templates.SectionHeadings {
		fmt.Fprintf(&b, "%s\n\n第%d节内容。\n\n", h, i+1)
	}
	return b.String()
}

func guideTextWithout(heading string) string {
	var b strings.Builder
	for i, h := range templates.SectionHeadings {
		if h == heading {
			continue
		}
		fmt.Fprintf(&b, "%s\n\n第%d节内容。\n\n", h, i+1)
	}
	return b.String()
}

type pipelineEnv struct {
	pipeline *GuidePipeline
	llm      *fakeLLM
	guides   *fakeGuides
	runs     *fakeRuns
	users    *fakeUsers
}

func newPipelineEnv(t *testing.T, llm *fakeLLM, policy string) *pipelineEnv {
	t.Helper()
	weather := &fakeWeather{locationID: "101210101", days: sevenDayForecast(t, "2026-03-01")}
	routing := &fakeRouting{route: &entity.RouteEstimate{DistanceKm: 175, DurationMinutes: 130}, level: "畅通", speed: 42}
	users := newFakeUsers(activeUser(`{"version":1,"lodging":{"budget_min":200,"budget_max":300}}`))
	guides := &fakeGuides{}
	runs := newFakeRuns()

	cfg := &config.Config{
		AITemperature: 0.7,
		AIMaxTokens:   4000,
		SectionPolicy: policy,
	}
	p := NewGuidePipeline(
		NewFactGatherer(weather, routing, bothCities(), nopLogger{}),
		NewPreferenceService(users, llm, nopLogger{}),
		NewBookingAdvisor(),
		llm, guides, runs, testMetrics, cfg, nopLogger{},
	)
	return &pipelineEnv{pipeline: p, llm: llm, guides: guides, runs: runs, users: users}
}

func TestGenerate_HappyPath(t *testing.T) {
	llm := &fakeLLM{responses: []string{completeGuideText()}}
	env := newPipelineEnv(t, llm, config.SectionPolicyShip)

	res, err := env.pipeline.Generate(context.Background(), tripRequest(t))

	require.NoError(t, err)
	require.NotNil(t, res.Guide)
	assert.Empty(t, res.Warning)
	assert.NotEmpty(t, res.Guide.GuideID)
	assert.NotEmpty(t, res.Guide.RequestID)
	assert.Equal(t, "杭州", res.Guide.Destination)
	assert.Contains(t, res.Guide.WeatherInfo, "forecast")

	// Exactly one generation call, and it carries the live facts plus the
	// stored lodging constraint.
	require.Len(t, llm.calls, 1)
	assert.Contains(t, llm.calls[0].User, "住宿预算严格控制在每晚 200-300 元")
	assert.Contains(t, llm.calls[0].User, "订票技巧")

	// Both rows persisted, run journal closed out as completed.
	require.Len(t, env.guides.requests, 1)
	require.Len(t, env.guides.guides, 1)
	require.Len(t, env.runs.saved, 1)
	assert.Equal(t, entity.RunStatusCompleted, env.runs.finished[env.runs.saved[0].RunID])
	assert.True(t, env.runs.saved[0].Steps.WeatherFetched)
	assert.True(t, env.runs.saved[0].Steps.RouteFetched)
}

func TestGenerate_RunJournalTransitionsPendingToProcessing(t *testing.T) {
	llm := &fakeLLM{responses: []string{completeGuideText()}}
	env := newPipelineEnv(t, llm, config.SectionPolicyShip)

	_, err := env.pipeline.Generate(context.Background(), tripRequest(t))
	require.NoError(t, err)

	require.Len(t, env.runs.saved, 1)
	runID := env.runs.saved[0].RunID
	assert.Equal(t, entity.RunStatusPending, env.runs.savedStatus[runID],
		"runs enter the journal as pending")
	assert.Equal(t, []string{entity.RunStatusProcessing}, env.runs.transitions[runID],
		"a journaled run is promoted to processing before work starts")
	assert.Equal(t, entity.RunStatusCompleted, env.runs.finished[runID])
}

func TestGenerate_InvalidRequestNeverCallsGenerator(t *testing.T) {
	llm := &fakeLLM{responses: []string{completeGuideText()}}
	env := newPipelineEnv(t, llm, config.SectionPolicyShip)

	req := tripRequest(t)
	req.Destination = ""
	_, err := env.pipeline.Generate(context.Background(), req)

	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, llm.calls)
	assert.Empty(t, env.runs.saved)
}

func TestGenerate_GenerationFailureIsFatal(t *testing.T) {
	llm := &fakeLLM{errs: []error{fmt.Errorf("%w: upstream 500", entity.ErrGeneration)}}
	env := newPipelineEnv(t, llm, config.SectionPolicyShip)

	_, err := env.pipeline.Generate(context.Background(), tripRequest(t))

	require.ErrorIs(t, err, entity.ErrGeneration)
	assert.Empty(t, env.guides.guides)
	require.Len(t, env.runs.saved, 1)
	assert.Equal(t, entity.RunStatusFailed, env.runs.finished[env.runs.saved[0].RunID])
}

func TestGenerate_PersistFailureDowngradesToWarning(t *testing.T) {
	llm := &fakeLLM{responses: []string{completeGuideText()}}
	env := newPipelineEnv(t, llm, config.SectionPolicyShip)
	env.guides.failGuide = true

	res, err := env.pipeline.Generate(context.Background(), tripRequest(t))

	require.NoError(t, err)
	require.NotNil(t, res.Guide)
	assert.Equal(t, PersistWarning, res.Warning)
	assert.False(t, env.runs.saved[0].Steps.GuidePersisted)
}

func TestGenerate_ShipPolicyKeepsIncompleteDocument(t *testing.T) {
	body := guideTextWithout(templates.HeadingSavings)
	llm := &fakeLLM{responses: []string{body}}
	env := newPipelineEnv(t, llm, config.SectionPolicyShip)

	res, err := env.pipeline.Generate(context.Background(), tripRequest(t))

	require.NoError(t, err)
	assert.NotContains(t, res.Guide.Content, templates.HeadingSavings)
	assert.Equal(t, []string{templates.HeadingSavings}, env.runs.saved[0].Steps.MissingSections)
	require.Len(t, llm.calls, 1)
}

func TestGenerate_PlaceholderPolicyRepairsDocument(t *testing.T) {
	llm := &fakeLLM{responses: []string{guideTextWithout(templates.HeadingSavings)}}
	env := newPipelineEnv(t, llm, config.SectionPolicyPlaceholder)

	res, err := env.pipeline.Generate(context.Background(), tripRequest(t))

	require.NoError(t, err)
	assert.Contains(t, res.Guide.Content, templates.HeadingSavings)
	assert.Empty(t, templates.MissingSections(res.Guide.Content))
}

func TestGenerate_RetryPolicyUsesSecondAttemptWhenBetter(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		guideTextWithout(templates.HeadingSavings),
		completeGuideText(),
	}}
	env := newPipelineEnv(t, llm, config.SectionPolicyRetry)

	res, err := env.pipeline.Generate(context.Background(), tripRequest(t))

	require.NoError(t, err)
	require.Len(t, llm.calls, 2)
	assert.Empty(t, templates.MissingSections(res.Guide.Content))
}

func TestRefine_ProducesNewGuideForSameRequest(t *testing.T) {
	llm := &fakeLLM{responses: []string{completeGuideText()}}
	env := newPipelineEnv(t, llm, config.SectionPolicyShip)

	prior := &entity.TravelGuide{
		GuideID:     "guide-1",
		RequestID:   "req-1",
		Destination: "杭州",
		Content:     completeGuideText(),
	}
	res, err := env.pipeline.Refine(context.Background(), "alice", prior, "多安排一些美食")

	require.NoError(t, err)
	assert.NotEqual(t, prior.GuideID, res.Guide.GuideID)
	assert.Equal(t, "req-1", res.Guide.RequestID)
	require.Len(t, llm.calls, 1)
	assert.Contains(t, llm.calls[0].User, "多安排一些美食")
	assert.Contains(t, llm.calls[0].User, "【原攻略】")
	require.Len(t, env.guides.guides, 1)
}

func TestRefine_EmptyInstructionRejected(t *testing.T) {
	llm := &fakeLLM{}
	env := newPipelineEnv(t, llm, config.SectionPolicyShip)

	_, err := env.pipeline.Refine(context.Background(), "alice", &entity.TravelGuide{}, "")

	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, llm.calls)
}

func TestPitfallGuide_ReturnsContentWithoutPersisting(t *testing.T) {
	llm := &fakeLLM{responses: []string{"## 避坑要点\n\n注意景区黑车。"}}
	env := newPipelineEnv(t, llm, config.SectionPolicyShip)

	content, err := env.pipeline.PitfallGuide(context.Background(), "alice", "杭州", "历史文化")

	require.NoError(t, err)
	assert.Contains(t, content, "避坑要点")
	assert.Empty(t, env.guides.guides)
	require.Len(t, env.runs.saved, 1)
	assert.Equal(t, "pitfall", env.runs.saved[0].Kind)
}
