package repository

import (
	"context"

	"tripgen-service/internal/domain/entity"
)

// UserRepository manages user accounts in the remote users table.
type UserRepository interface {
	// FindByUsername returns (nil, nil) when no account matches.
	FindByUsername(ctx context.Context, username string) (*entity.UserAccount, error)
	Create(ctx context.Context, user *entity.UserAccount) WriteResult
	UpdateStatus(ctx context.Context, recordID, status string) error
	SavePreferences(ctx context.Context, recordID, preferences string) error
	ListAll(ctx context.Context) ([]*entity.UserAccount, error)
}
