package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/usecase"
)

type contextKey string

const claimsKey contextKey = "sessionClaims"

// authenticated requires a valid Bearer session token and stores the claims
// on the request context.
func (s *Server) authenticated(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, http.StatusUnauthorized, "请先登录")
			return
		}
		claims, err := s.auth.ParseToken(token)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "登录已过期，请重新登录")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx), ps)
	}
}

// adminOnly is authenticated plus a role gate.
func (s *Server) adminOnly(next httprouter.Handle) httprouter.Handle {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if sessionFrom(r).Role != entity.RoleAdmin {
			s.writeError(w, http.StatusForbidden, "需要管理员权限")
			return
		}
		next(w, r, ps)
	})
}

// rateLimited throttles the generation endpoints per user. Generation is the
// expensive path; everything else stays unthrottled.
func (s *Server) rateLimited(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !s.limiter.allow(sessionFrom(r).Username) {
			s.writeError(w, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
			return
		}
		next(w, r, ps)
	}
}

// sessionFrom returns the claims stored by the authenticated middleware. It
// must only be called behind that middleware.
func sessionFrom(r *http.Request) *usecase.SessionClaims {
	return r.Context().Value(claimsKey).(*usecase.SessionClaims)
}

// userLimiter keeps one token bucket per username.
type userLimiter struct {
	mu        sync.Mutex
	perMinute int
	buckets   map[string]*rate.Limiter
}

func newUserLimiter(perMinute int) *userLimiter {
	return &userLimiter{
		perMinute: perMinute,
		buckets:   make(map[string]*rate.Limiter),
	}
}

func (l *userLimiter) allow(username string) bool {
	if l.perMinute <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.buckets[username]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute)
		l.buckets[username] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
