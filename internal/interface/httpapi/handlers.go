package httpapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"tripgen-service/internal/domain/entity"
)

const dateLayout = "2006-01-02"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body credentialsRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "请求体不是合法的 JSON")
		return
	}
	if err := s.auth.Register(r.Context(), body.Username, body.Password); err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"message": "注册成功，请等待管理员审批后登录",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body credentialsRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "请求体不是合法的 JSON")
		return
	}
	token, user, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loginResponse{
		Token:    token,
		Username: user.Username,
		Role:     user.Role,
	})
}

type generateRequest struct {
	Destination string   `json:"destination"`
	Origin      string   `json:"origin"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Budget      int      `json:"budget"`
	Preferences []string `json:"preferences"`
}

type guideResponse struct {
	GuideID     string `json:"guide_id"`
	RequestID   string `json:"request_id"`
	Destination string `json:"destination"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
	Warning     string `json:"warning,omitempty"`
}

func guidePayload(g *entity.TravelGuide, warning string) guideResponse {
	return guideResponse{
		GuideID:     g.GuideID,
		RequestID:   g.RequestID,
		Destination: g.Destination,
		Content:     g.Content,
		CreatedAt:   g.CreatedAt.Format(time.RFC3339),
		Warning:     warning,
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body generateRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "请求体不是合法的 JSON")
		return
	}

	start, err := time.Parse(dateLayout, body.StartDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "出发日期格式应为 YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, body.EndDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "返回日期格式应为 YYYY-MM-DD")
		return
	}

	req := &entity.TravelRequest{
		Username:    sessionFrom(r).Username,
		Destination: body.Destination,
		Origin:      body.Origin,
		StartDate:   start,
		EndDate:     end,
		Budget:      body.Budget,
		Preferences: body.Preferences,
	}
	res, err := s.pipeline.Generate(r.Context(), req)
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, guidePayload(res.Guide, res.Warning))
}

type refineRequest struct {
	Instruction string `json:"instruction"`
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body refineRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "请求体不是合法的 JSON")
		return
	}

	prior, err := s.guides.GetGuideByID(r.Context(), ps.ByName("guideId"))
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}

	res, err := s.pipeline.Refine(r.Context(), sessionFrom(r).Username, prior, body.Instruction)
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, guidePayload(res.Guide, res.Warning))
}

func (s *Server) handleGetGuide(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	guide, err := s.guides.GetGuideByID(r.Context(), ps.ByName("guideId"))
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, guidePayload(guide, ""))
}

func (s *Server) handleListGuides(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	guides, err := s.guides.ListRecentGuides(r.Context(), 20)
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	out := make([]guideResponse, 0, len(guides))
	for _, g := range guides {
		out = append(out, guidePayload(g, ""))
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"guides": out})
}

type pitfallRequest struct {
	Destination string `json:"destination"`
	Preferences string `json:"preferences"`
}

func (s *Server) handlePitfalls(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body pitfallRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "请求体不是合法的 JSON")
		return
	}
	content, err := s.pipeline.PitfallGuide(r.Context(), sessionFrom(r).Username, body.Destination, body.Preferences)
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	doc, err := s.prefs.Get(r.Context(), sessionFrom(r).Username)
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	doc := &entity.PreferenceDocument{}
	if err := decodeBody(r, doc); err != nil {
		s.writeError(w, http.StatusBadRequest, "偏好文档不符合格式要求")
		return
	}
	if err := s.prefs.Save(r.Context(), sessionFrom(r).Username, doc); err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

type extractRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleExtractPreferences(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body extractRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "请求体不是合法的 JSON")
		return
	}
	if body.Text == "" {
		s.writeError(w, http.StatusBadRequest, "偏好描述不能为空")
		return
	}
	doc, err := s.prefs.ExtractAndMerge(r.Context(), sessionFrom(r).Username, body.Text)
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

type userResponse struct {
	RecordID string `json:"record_id"`
	Username string `json:"username"`
	Status   string `json:"status"`
	Role     string `json:"role"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	users, err := s.auth.ListUsers(r.Context())
	if err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			RecordID: u.RecordID,
			Username: u.Username,
			Status:   u.Status,
			Role:     u.Role,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"users": out})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetUserStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body statusRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "请求体不是合法的 JSON")
		return
	}
	if err := s.auth.SetUserStatus(r.Context(), ps.ByName("recordId"), body.Status); err != nil {
		s.writeUsecaseError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "状态已更新"})
}
