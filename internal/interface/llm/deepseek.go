package llm

import (
	"context"
	"fmt"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const completionsPath = "/chat/completions"

// Client talks to an OpenAI-compatible chat completion API.
type Client struct {
	api    *resty.Client
	apiKey string
	model  string
	logger logger.Logger
}

// NewClient creates a generation client for the given model.
func NewClient(api *resty.Client, apiKey, model string, log logger.Logger) repository.GenerationProvider {
	return &Client{api: api, apiKey: apiKey, model: model, logger: log}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete performs one chat completion. Any failure, transport, auth or
// quota, is fatal to the calling pipeline and wraps ErrGeneration.
func (c *Client) Complete(ctx context.Context, req repository.CompletionRequest) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	var body chatResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
			Stream:      false,
		}).
		SetResult(&body).
		SetError(&body).
		Post(completionsPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrGeneration, err)
	}
	switch resp.StatusCode() {
	case 200:
	case 401, 403:
		return "", fmt.Errorf("%w: %w: %s", entity.ErrGeneration, entity.ErrAuth, body.Error.Message)
	case 429:
		return "", fmt.Errorf("%w: rate limited: %s", entity.ErrGeneration, body.Error.Message)
	default:
		return "", fmt.Errorf("%w: status=%d: %s", entity.ErrGeneration, resp.StatusCode(), body.Error.Message)
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", entity.ErrGeneration)
	}

	c.logger.Info("Completion finished",
		"model", c.model,
		"promptTokens", body.Usage.PromptTokens,
		"completionTokens", body.Usage.CompletionTokens)
	return body.Choices[0].Message.Content, nil
}
