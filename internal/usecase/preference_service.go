package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dario.cat/mergo"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/pkg/logger"
	"tripgen-service/templates"
)

const extractMaxTokens = 500

// PreferenceService reads and writes per-user preference documents and runs
// the free-text extraction flow. The stored blob is the single source of
// truth; extraction only ever produces partial updates merged into it.
type PreferenceService struct {
	users  repository.UserRepository
	llm    repository.GenerationProvider
	logger logger.Logger
}

// NewPreferenceService creates a preference service.
func NewPreferenceService(users repository.UserRepository, llm repository.GenerationProvider, log logger.Logger) *PreferenceService {
	return &PreferenceService{users: users, llm: llm, logger: log}
}

// Get returns the stored preference document for a user. A missing user or
// an empty blob yields an empty document, never an error the caller has to
// branch on.
func (s *PreferenceService) Get(ctx context.Context, username string) (*entity.PreferenceDocument, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || strings.TrimSpace(user.Preferences) == "" {
		return &entity.PreferenceDocument{Version: entity.PreferenceVersion}, nil
	}

	doc := &entity.PreferenceDocument{}
	if err := json.Unmarshal([]byte(user.Preferences), doc); err != nil {
		// A corrupt blob is not fatal for reads. The next save replaces it.
		s.logger.Warn("Stored preference blob is not valid JSON, treating as empty",
			"username", username, "error", err)
		return &entity.PreferenceDocument{Version: entity.PreferenceVersion}, nil
	}
	if doc.Version == 0 {
		doc.Version = entity.PreferenceVersion
	}
	return doc, nil
}

// Save replaces the user's preference document wholesale.
func (s *PreferenceService) Save(ctx context.Context, username string, doc *entity.PreferenceDocument) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user %q", entity.ErrNotFound, username)
	}

	if doc == nil {
		doc = &entity.PreferenceDocument{}
	}
	doc.Version = entity.PreferenceVersion
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return s.users.SavePreferences(ctx, user.RecordID, string(blob))
}

// ExtractAndMerge turns a free-text description into a partial preference
// update, deep-merges it into the stored document and persists the result.
// A generation failure or a schema-violating response leaves the stored
// document untouched and returns it unchanged.
func (s *PreferenceService) ExtractAndMerge(ctx context.Context, username, freeText string) (*entity.PreferenceDocument, error) {
	existing, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	prompt := templates.BuildExtractPrompt(freeText)
	raw, err := s.llm.Complete(ctx, repository.CompletionRequest{
		System:      prompt.System,
		User:        prompt.User,
		Temperature: 0,
		MaxTokens:   extractMaxTokens,
	})
	if err != nil {
		s.logger.Warn("Preference extraction call failed, keeping stored preferences",
			"username", username, "error", err)
		return existing, nil
	}

	update := &entity.PreferenceDocument{}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), update); err != nil {
		s.logger.Warn("Preference extraction returned non-schema output, keeping stored preferences",
			"username", username, "error", err)
		return existing, nil
	}
	if update.IsEmpty() {
		return existing, nil
	}

	if err := mergo.Merge(existing, update, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge preferences: %w", err)
	}
	if err := s.Save(ctx, username, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// stripCodeFence removes a markdown code fence the generator sometimes wraps
// JSON in despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
