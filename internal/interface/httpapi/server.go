package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/internal/infrastructure/config"
	"tripgen-service/internal/usecase"
	"tripgen-service/pkg/logger"
)

// Server is the HTTP surface of the service. All payloads are JSON; errors
// use a single {"error": ...} envelope.
type Server struct {
	router   *httprouter.Router
	auth     *usecase.AuthService
	pipeline *usecase.GuidePipeline
	prefs    *usecase.PreferenceService
	guides   repository.GuideRepository
	limiter  *userLimiter
	version  string
	logger   logger.Logger
}

// NewServer wires every route.
func NewServer(
	auth *usecase.AuthService,
	pipeline *usecase.GuidePipeline,
	prefs *usecase.PreferenceService,
	guides repository.GuideRepository,
	cfg *config.Config,
	log logger.Logger,
) *Server {
	s := &Server{
		router:   httprouter.New(),
		auth:     auth,
		pipeline: pipeline,
		prefs:    prefs,
		guides:   guides,
		limiter:  newUserLimiter(cfg.GenerateRatePerMinute),
		version:  cfg.AppVersion,
		logger:   log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.POST("/api/v1/auth/register", s.handleRegister)
	s.router.POST("/api/v1/auth/login", s.handleLogin)

	s.router.POST("/api/v1/guides", s.authenticated(s.rateLimited(s.handleGenerate)))
	s.router.GET("/api/v1/guides", s.authenticated(s.handleListGuides))
	s.router.GET("/api/v1/guides/:guideId", s.authenticated(s.handleGetGuide))
	s.router.POST("/api/v1/guides/:guideId/refine", s.authenticated(s.rateLimited(s.handleRefine)))
	s.router.POST("/api/v1/pitfalls", s.authenticated(s.rateLimited(s.handlePitfalls)))

	s.router.GET("/api/v1/preferences", s.authenticated(s.handleGetPreferences))
	s.router.PUT("/api/v1/preferences", s.authenticated(s.handlePutPreferences))
	s.router.POST("/api/v1/preferences/extract", s.authenticated(s.handleExtractPreferences))

	s.router.GET("/api/v1/admin/users", s.adminOnly(s.handleListUsers))
	s.router.PATCH("/api/v1/admin/users/:recordId/status", s.adminOnly(s.handleSetUserStatus))

	s.router.GET("/health", s.handleHealth)
	s.router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Could not encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeUsecaseError maps domain failures onto HTTP statuses.
func (s *Server) writeUsecaseError(w http.ResponseWriter, err error) {
	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrPendingApproval),
		errors.Is(err, usecase.ErrAccountBanned):
		s.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, usecase.ErrUsernameTaken):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, entity.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "记录不存在")
	case errors.Is(err, entity.ErrGeneration):
		s.writeError(w, http.StatusBadGateway, "攻略生成服务暂时不可用，请稍后重试")
	default:
		s.logger.Error("Unhandled request error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "服务内部错误")
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
