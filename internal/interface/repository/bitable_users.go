package repository

import (
	"context"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/internal/infrastructure/config"
	"tripgen-service/pkg/logger"
)

// BitableUserRepository implements the UserRepository interface over the
// users table.
type BitableUserRepository struct {
	gateway *BitableGateway
	users   config.TableConfig
	logger  logger.Logger
}

// NewBitableUserRepository creates a user repository bound to the users table.
func NewBitableUserRepository(gateway *BitableGateway, cfg *config.Config, log logger.Logger) repository.UserRepository {
	return &BitableUserRepository{
		gateway: gateway,
		users:   cfg.UsersTable,
		logger:  log,
	}
}

// FindByUsername looks a user up by exact, case-sensitive username. Absence
// is not an error: the caller gets (nil, nil).
func (r *BitableUserRepository) FindByUsername(ctx context.Context, username string) (*entity.UserAccount, error) {
	filter := map[string]interface{}{
		"conditions": []map[string]interface{}{
			{"field_name": "username", "operator": "is", "value": []string{username}},
		},
	}
	records, err := r.gateway.QueryRecords(ctx, r.users, filter, 10)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		// The filter is advisory; the name match is authoritative here.
		if fieldString(rec.Fields, "username") == username {
			return userFromRecord(rec), nil
		}
	}
	return nil, nil
}

// Create writes a new user row.
func (r *BitableUserRepository) Create(ctx context.Context, user *entity.UserAccount) repository.WriteResult {
	role := user.Role
	if role == "" {
		role = entity.RoleUser
	}
	status := user.Status
	if status == "" {
		status = entity.UserStatusPending
	}
	result := r.gateway.CreateRecords(ctx, r.users, map[string]interface{}{
		"username":    user.Username,
		"password":    user.PasswordHash,
		"status":      status,
		"role":        role,
		"preferences": user.Preferences,
	})
	if result.Success {
		r.logger.Info("User created", "username", user.Username, "status", status)
	}
	return result
}

// UpdateStatus moves an account between pending/active/banned.
func (r *BitableUserRepository) UpdateStatus(ctx context.Context, recordID, status string) error {
	return r.gateway.UpdateRecord(ctx, r.users, recordID, map[string]interface{}{
		"status": status,
	})
}

// SavePreferences replaces the stored preference JSON blob (last write wins).
func (r *BitableUserRepository) SavePreferences(ctx context.Context, recordID, preferences string) error {
	return r.gateway.UpdateRecord(ctx, r.users, recordID, map[string]interface{}{
		"preferences": preferences,
	})
}

// ListAll returns every user row, for the admin approval surface.
func (r *BitableUserRepository) ListAll(ctx context.Context) ([]*entity.UserAccount, error) {
	records, err := r.gateway.QueryRecords(ctx, r.users, nil, 100)
	if err != nil {
		return nil, err
	}
	users := make([]*entity.UserAccount, 0, len(records))
	for _, rec := range records {
		users = append(users, userFromRecord(rec))
	}
	return users, nil
}

func userFromRecord(rec Record) *entity.UserAccount {
	role := fieldString(rec.Fields, "role")
	if role == "" {
		role = entity.RoleUser
	}
	status := fieldString(rec.Fields, "status")
	if status == "" {
		status = entity.UserStatusPending
	}
	return &entity.UserAccount{
		RecordID:     rec.RecordID,
		Username:     fieldString(rec.Fields, "username"),
		PasswordHash: fieldString(rec.Fields, "password"),
		Status:       status,
		Role:         role,
		Preferences:  fieldString(rec.Fields, "preferences"),
	}
}
