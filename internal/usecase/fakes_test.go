package usecase

import (
	"context"
	"errors"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/pkg/logger"
)

// nopLogger discards everything. Usecase tests assert on behavior, not on
// log output.
type nopLogger struct{}

func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Fatal(msg string, keysAndValues ...interface{}) {}
func (l nopLogger) With(keysAndValues ...interface{}) logger.Logger {
	return l
}
func (nopLogger) Sync() error { return nil }

type fakeWeather struct {
	locationID  string
	lookupErr   error
	days        []entity.ForecastDay
	forecastErr error
}

func (f *fakeWeather) LookupCity(ctx context.Context, name string) (string, error) {
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	return f.locationID, nil
}

func (f *fakeWeather) Forecast(ctx context.Context, locationID string, days int) ([]entity.ForecastDay, error) {
	if f.forecastErr != nil {
		return nil, f.forecastErr
	}
	return f.days, nil
}

type fakeRouting struct {
	route    *entity.RouteEstimate
	routeErr error
	level    string
	speed    float64
	congErr  error
}

func (f *fakeRouting) DrivingRoute(ctx context.Context, origin, dest entity.Coordinate) (*entity.RouteEstimate, error) {
	if f.routeErr != nil {
		return nil, f.routeErr
	}
	r := *f.route
	return &r, nil
}

func (f *fakeRouting) Congestion(ctx context.Context, center entity.Coordinate) (string, float64, error) {
	if f.congErr != nil {
		return "", 0, f.congErr
	}
	return f.level, f.speed, nil
}

type fakeCities struct {
	coords map[string]entity.Coordinate
}

func (f *fakeCities) FindByName(ctx context.Context, name string) (*entity.City, error) {
	c, ok := f.coords[name]
	if !ok {
		return nil, nil
	}
	return &entity.City{Name: name, Lng: c.Lng, Lat: c.Lat}, nil
}

// fakeLLM replays canned completions in order and records every request.
type fakeLLM struct {
	responses []string
	errs      []error
	calls     []repository.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req repository.CompletionRequest) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no canned response left")
}

// fakeUsers is an in-memory users table keyed by username.
type fakeUsers struct {
	users      map[string]*entity.UserAccount
	savedPrefs map[string]string
}

func newFakeUsers(users ...*entity.UserAccount) *fakeUsers {
	f := &fakeUsers{
		users:      make(map[string]*entity.UserAccount),
		savedPrefs: make(map[string]string),
	}
	for _, u := range users {
		f.users[u.Username] = u
	}
	return f
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*entity.UserAccount, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Create(ctx context.Context, user *entity.UserAccount) repository.WriteResult {
	user.RecordID = "rec_" + user.Username
	f.users[user.Username] = user
	return repository.WriteResult{Success: true, RecordID: user.RecordID, Attempts: 1}
}

func (f *fakeUsers) UpdateStatus(ctx context.Context, recordID, status string) error {
	for _, u := range f.users {
		if u.RecordID == recordID {
			u.Status = status
			return nil
		}
	}
	return entity.ErrNotFound
}

func (f *fakeUsers) SavePreferences(ctx context.Context, recordID, preferences string) error {
	f.savedPrefs[recordID] = preferences
	for _, u := range f.users {
		if u.RecordID == recordID {
			u.Preferences = preferences
			return nil
		}
	}
	return entity.ErrNotFound
}

func (f *fakeUsers) ListAll(ctx context.Context) ([]*entity.UserAccount, error) {
	var out []*entity.UserAccount
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// fakeGuides records persisted rows and can be told to fail writes.
type fakeGuides struct {
	requests    []*entity.TravelRequest
	guides      []*entity.TravelGuide
	failRequest bool
	failGuide   bool
}

func (f *fakeGuides) SaveTravelRequest(ctx context.Context, req *entity.TravelRequest) repository.WriteResult {
	if f.failRequest {
		return repository.WriteResult{Attempts: 3, Err: entity.ErrTransport}
	}
	f.requests = append(f.requests, req)
	return repository.WriteResult{Success: true, RecordID: "reqrec", Attempts: 1}
}

func (f *fakeGuides) SaveTravelGuide(ctx context.Context, guide *entity.TravelGuide) repository.WriteResult {
	if f.failGuide {
		return repository.WriteResult{Attempts: 3, Err: entity.ErrTransport}
	}
	f.guides = append(f.guides, guide)
	return repository.WriteResult{Success: true, RecordID: "guiderec", Attempts: 1}
}

func (f *fakeGuides) GetGuideByID(ctx context.Context, guideID string) (*entity.TravelGuide, error) {
	for _, g := range f.guides {
		if g.GuideID == guideID {
			return g, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (f *fakeGuides) ListRecentGuides(ctx context.Context, limit int) ([]*entity.TravelGuide, error) {
	return f.guides, nil
}

// fakeRuns is an in-memory run journal.
type fakeRuns struct {
	saved       []*entity.PipelineRun
	savedStatus map[string]string
	transitions map[string][]string
	finished    map[string]string
	saveErr     error
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{
		savedStatus: make(map[string]string),
		transitions: make(map[string][]string),
		finished:    make(map[string]string),
	}
}

func (f *fakeRuns) Save(ctx context.Context, run *entity.PipelineRun) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, run)
	f.savedStatus[run.RunID] = run.Status
	return nil
}

func (f *fakeRuns) UpdateStatus(ctx context.Context, runID, status string) error {
	f.transitions[runID] = append(f.transitions[runID], status)
	return nil
}

func (f *fakeRuns) MarkFinished(ctx context.Context, runID, status, errorDetail string, steps entity.RunSteps) error {
	f.finished[runID] = status
	return nil
}

func (f *fakeRuns) FindByStatus(ctx context.Context, status string, limit int) ([]*entity.PipelineRun, error) {
	var out []*entity.PipelineRun
	for _, run := range f.saved {
		if run.Status == status {
			out = append(out, run)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
