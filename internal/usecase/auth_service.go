package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/pkg/logger"
)

// Login failure modes. The messages are user-facing; the credential one is
// deliberately identical for unknown users and wrong passwords.
var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrPendingApproval    = errors.New("您的账号正在等待管理员审批")
	ErrAccountBanned      = errors.New("您的账号已被禁用")
	ErrUsernameTaken      = errors.New("该用户名已被注册")
)

var timingPadHash, _ = bcrypt.GenerateFromPassword([]byte("timing-pad"), bcrypt.DefaultCost)

// SessionClaims is the JWT payload issued on login.
type SessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and account administration on top
// of the remote users table.
type AuthService struct {
	users     repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    logger.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(users repository.UserRepository, jwtSecret string, tokenTTL time.Duration, log logger.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    log,
	}
}

// Register creates a pending account. New accounts cannot log in until an
// administrator activates them.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if err := entity.ValidateUsername(username); err != nil {
		return err
	}
	if err := entity.ValidatePassword(password); err != nil {
		return err
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	res := s.users.Create(ctx, &entity.UserAccount{
		Username:     username,
		PasswordHash: string(hash),
		Status:       entity.UserStatusPending,
		Role:         entity.RoleUser,
	})
	if !res.Success {
		return res.Err
	}

	s.logger.Info("User registered, awaiting approval", "username", username, "recordId", res.RecordID)
	return nil
}

// Login verifies the credentials and issues a signed session token. Only
// active accounts pass; pending and banned accounts get their own message.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *entity.UserAccount, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		// Burn a comparison so unknown users cost the same as wrong passwords.
		_ = bcrypt.CompareHashAndPassword(timingPadHash, []byte(password))
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	switch user.Status {
	case entity.UserStatusActive:
	case entity.UserStatusPending:
		return "", nil, ErrPendingApproval
	default:
		return "", nil, ErrAccountBanned
	}

	now := time.Now()
	claims := SessionClaims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("User logged in", "username", username, "role", user.Role)
	return token, user, nil
}

// ParseToken validates a session token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrAuth, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid session token", entity.ErrAuth)
	}
	return claims, nil
}

// ListUsers returns every account for the admin view.
func (s *AuthService) ListUsers(ctx context.Context) ([]*entity.UserAccount, error) {
	return s.users.ListAll(ctx)
}

// SetUserStatus moves an account between pending, active and banned.
func (s *AuthService) SetUserStatus(ctx context.Context, recordID, status string) error {
	switch status {
	case entity.UserStatusPending, entity.UserStatusActive, entity.UserStatusBanned:
	default:
		return entity.NewValidationError("status", "无效的账号状态")
	}
	if err := s.users.UpdateStatus(ctx, recordID, status); err != nil {
		return err
	}
	s.logger.Info("User status updated", "recordId", recordID, "status", status)
	return nil
}
