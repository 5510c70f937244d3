package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/internal/infrastructure/config"
	"tripgen-service/internal/usecase"
	"tripgen-service/pkg/logger"
	"tripgen-service/pkg/metrics"
	"tripgen-service/templates"
)

var apiMetrics = metrics.NewMetrics("tripgen_httpapi_test")

type nopLogger struct{}

func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Fatal(msg string, keysAndValues ...interface{}) {}
func (l nopLogger) With(keysAndValues ...interface{}) logger.Logger { return l }

func (nopLogger) Sync() error { return nil }

type memUsers struct {
	users map[string]*entity.UserAccount
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (*entity.UserAccount, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(ctx context.Context, user *entity.UserAccount) repository.WriteResult {
	user.RecordID = "rec_" + user.Username
	m.users[user.Username] = user
	return repository.WriteResult{Success: true, RecordID: user.RecordID, Attempts: 1}
}

func (m *memUsers) UpdateStatus(ctx context.Context, recordID, status string) error {
	for _, u := range m.users {
		if u.RecordID == recordID {
			u.Status = status
			return nil
		}
	}
	return entity.ErrNotFound
}

func (m *memUsers) SavePreferences(ctx context.Context, recordID, preferences string) error {
	for _, u := range m.users {
		if u.RecordID == recordID {
			u.Preferences = preferences
			return nil
		}
	}
	return entity.ErrNotFound
}

func (m *memUsers) ListAll(ctx context.Context) ([]*entity.UserAccount, error) {
	var out []*entity.UserAccount
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

type memGuides struct {
	guides []*entity.TravelGuide
}

func (m *memGuides) SaveTravelRequest(ctx context.Context, req *entity.TravelRequest) repository.WriteResult {
	return repository.WriteResult{Success: true, RecordID: "reqrec", Attempts: 1}
}

func (m *memGuides) SaveTravelGuide(ctx context.Context, guide *entity.TravelGuide) repository.WriteResult {
	m.guides = append(m.guides, guide)
	return repository.WriteResult{Success: true, RecordID: "guiderec", Attempts: 1}
}

func (m *memGuides) GetGuideByID(ctx context.Context, guideID string) (*entity.TravelGuide, error) {
	for _, g := range m.guides {
		if g.GuideID == guideID {
			return g, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (m *memGuides) ListRecentGuides(ctx context.Context, limit int) ([]*entity.TravelGuide, error) {
	return m.guides, nil
}

type memRuns struct{}

func (memRuns) Save(ctx context.Context, run *entity.PipelineRun) error { return nil }

func (memRuns) UpdateStatus(ctx context.Context, runID, status string) error { return nil }

func (memRuns) MarkFinished(ctx context.Context, runID, status, errorDetail string, steps entity.RunSteps) error {
	return nil
}
func (memRuns) FindByStatus(ctx context.Context, status string, limit int) ([]*entity.PipelineRun, error) {
	return nil, nil
}

type stubWeather struct{}

func (stubWeather) LookupCity(ctx context.Context, name string) (string, error) {
	return "", entity.ErrNotFound
}
func (stubWeather) Forecast(ctx context.Context, locationID string, days int) ([]entity.ForecastDay, error) {
	return nil, entity.ErrNotFound
}

type stubRouting struct{}

func (stubRouting) DrivingRoute(ctx context.Context, origin, dest entity.Coordinate) (*entity.RouteEstimate, error) {
	return nil, entity.ErrProvider
}
func (stubRouting) Congestion(ctx context.Context, center entity.Coordinate) (string, float64, error) {
	return "", 0, entity.ErrProvider
}

type stubCities struct{}

func (stubCities) FindByName(ctx context.Context, name string) (*entity.City, error) {
	return nil, nil
}

type stubLLM struct {
	response string
}

func (s *stubLLM) Complete(ctx context.Context, req repository.CompletionRequest) (string, error) {
	return s.response, nil
}

func fullGuideText() string {
	var b strings.Builder
	for i, h := range templates.SectionHeadings {
		fmt.Fprintf(&b, "%s\n\n内容%d。\n\n", h, i+1)
	}
	return b.String()
}

type apiEnv struct {
	server *Server
	users  *memUsers
	guides *memGuides
}

func newAPIEnv(t *testing.T, ratePerMinute int) *apiEnv {
	t.Helper()
	users := &memUsers{users: make(map[string]*entity.UserAccount)}
	guides := &memGuides{}
	llm := &stubLLM{response: fullGuideText()}
	log := nopLogger{}

	cfg := &config.Config{
		AppVersion:            "test",
		AITemperature:         0.7,
		AIMaxTokens:           4000,
		SectionPolicy:         config.SectionPolicyShip,
		GenerateRatePerMinute: ratePerMinute,
	}

	auth := usecase.NewAuthService(users, "test-secret", time.Hour, log)
	prefs := usecase.NewPreferenceService(users, llm, log)
	pipeline := usecase.NewGuidePipeline(
		usecase.NewFactGatherer(stubWeather{}, stubRouting{}, stubCities{}, log),
		prefs,
		usecase.NewBookingAdvisor(),
		llm, guides, memRuns{}, apiMetrics, cfg, log,
	)

	return &apiEnv{
		server: NewServer(auth, pipeline, prefs, guides, cfg, log),
		users:  users,
		guides: guides,
	}
}

func (e *apiEnv) addUser(t *testing.T, username, password, status, role string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	e.users.users[username] = &entity.UserAccount{
		RecordID:     "rec_" + username,
		Username:     username,
		PasswordHash: string(hash),
		Status:       status,
		Role:         role,
	}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", credentialsRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token
}

func TestRegisterThenLoginRequiresApproval(t *testing.T) {
	env := newAPIEnv(t, 0)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", credentialsRequest{Username: "newbie", Password: "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", credentialsRequest{Username: "newbie", Password: "s3cret"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "等待管理员审批")
}

func TestGenerateRequiresSession(t *testing.T) {
	env := newAPIEnv(t, 0)

	rec := env.do(t, http.MethodPost, "/api/v1/guides", "", generateRequest{Destination: "杭州"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/guides", "not-a-token", generateRequest{Destination: "杭州"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateEndToEnd(t *testing.T) {
	env := newAPIEnv(t, 0)
	env.addUser(t, "alice", "s3cret", entity.UserStatusActive, entity.RoleUser)
	token := env.login(t, "alice", "s3cret")

	rec := env.do(t, http.MethodPost, "/api/v1/guides", token, generateRequest{
		Destination: "杭州",
		Origin:      "上海",
		StartDate:   "2026-03-01",
		EndDate:     "2026-03-03",
		Budget:      3000,
		Preferences: []string{"历史文化"},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out guideResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.GuideID)
	assert.Contains(t, out.Content, "## 一、行程总览")

	// The stored guide is readable back through the API.
	rec = env.do(t, http.MethodGet, "/api/v1/guides/"+out.GuideID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateRejectsBadDates(t *testing.T) {
	env := newAPIEnv(t, 0)
	env.addUser(t, "alice", "s3cret", entity.UserStatusActive, entity.RoleUser)
	token := env.login(t, "alice", "s3cret")

	rec := env.do(t, http.MethodPost, "/api/v1/guides", token, generateRequest{
		Destination: "杭州",
		Origin:      "上海",
		StartDate:   "03/01/2026",
		EndDate:     "2026-03-03",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/guides", token, generateRequest{
		Destination: "杭州",
		Origin:      "上海",
		StartDate:   "2026-03-05",
		EndDate:     "2026-03-03",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "返回日期不能早于出发日期")
}

func TestGenerateIsRateLimitedPerUser(t *testing.T) {
	env := newAPIEnv(t, 2)
	env.addUser(t, "alice", "s3cret", entity.UserStatusActive, entity.RoleUser)
	token := env.login(t, "alice", "s3cret")

	body := generateRequest{Destination: "杭州", Origin: "上海", StartDate: "2026-03-01", EndDate: "2026-03-03"}
	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/v1/guides", token, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/api/v1/guides", token, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRefineProducesNewGuide(t *testing.T) {
	env := newAPIEnv(t, 0)
	env.addUser(t, "alice", "s3cret", entity.UserStatusActive, entity.RoleUser)
	token := env.login(t, "alice", "s3cret")

	env.guides.guides = append(env.guides.guides, &entity.TravelGuide{
		GuideID:     "guide-1",
		RequestID:   "req-1",
		Destination: "杭州",
		Content:     fullGuideText(),
		CreatedAt:   time.Now(),
	})

	rec := env.do(t, http.MethodPost, "/api/v1/guides/guide-1/refine", token, refineRequest{Instruction: "多安排美食"})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out guideResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEqual(t, "guide-1", out.GuideID)
	assert.Equal(t, "req-1", out.RequestID)
}

func TestRefineUnknownGuideIs404(t *testing.T) {
	env := newAPIEnv(t, 0)
	env.addUser(t, "alice", "s3cret", entity.UserStatusActive, entity.RoleUser)
	token := env.login(t, "alice", "s3cret")

	rec := env.do(t, http.MethodPost, "/api/v1/guides/ghost/refine", token, refineRequest{Instruction: "改一下"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreferencesRoundTrip(t *testing.T) {
	env := newAPIEnv(t, 0)
	env.addUser(t, "alice", "s3cret", entity.UserStatusActive, entity.RoleUser)
	token := env.login(t, "alice", "s3cret")

	min, max := 200, 300
	rec := env.do(t, http.MethodPut, "/api/v1/preferences", token, &entity.PreferenceDocument{
		Lodging: &entity.LodgingPrefs{BudgetMin: &min, BudgetMax: &max},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/preferences", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"budget_min":200`)
}

func TestAdminEndpointsAreRoleGated(t *testing.T) {
	env := newAPIEnv(t, 0)
	env.addUser(t, "alice", "s3cret", entity.UserStatusActive, entity.RoleUser)
	env.addUser(t, "root", "s3cret", entity.UserStatusActive, entity.RoleAdmin)
	env.addUser(t, "carol", "s3cret", entity.UserStatusPending, entity.RoleUser)

	userToken := env.login(t, "alice", "s3cret")
	rec := env.do(t, http.MethodGet, "/api/v1/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := env.login(t, "root", "s3cret")
	rec = env.do(t, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "carol")

	rec = env.do(t, http.MethodPatch, "/api/v1/admin/users/rec_carol/status", adminToken, statusRequest{Status: entity.UserStatusActive})
	require.Equal(t, http.StatusOK, rec.Code)

	// Carol can log in once activated.
	env.login(t, "carol", "s3cret")
}

func TestHealthEndpoint(t *testing.T) {
	env := newAPIEnv(t, 0)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
