package credential

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/pkg/logger"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

const tokenPath = "/open-apis/auth/v3/tenant_access_token/internal"

// Options configures a Cache. Clock is injectable so expiry behaviour can be
// tested deterministically.
type Options struct {
	AppID        string
	AppSecret    string
	TTLFallback  time.Duration
	SafetyMargin time.Duration
	Clock        func() time.Time
}

// Cache holds the tenant access token for the remote table service. The
// token is fetched lazily and reused until it comes within SafetyMargin of
// expiry. Refresh races are harmless: the exchange is idempotent and the
// last writer wins.
type Cache struct {
	client *resty.Client
	opts   Options
	logger logger.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewCache creates a credential cache talking through the given resty client.
func NewCache(client *resty.Client, opts Options, log logger.Logger) *Cache {
	if opts.TTLFallback <= 0 {
		opts.TTLFallback = 2 * time.Hour
	}
	if opts.SafetyMargin <= 0 {
		opts.SafetyMargin = 5 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Cache{client: client, opts: opts, logger: log}
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

// Token returns a bearer token for the table service. A cached token is
// reused while now < expiry - margin; forceRefresh skips the cache.
func (c *Cache) Token(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock()
	if !forceRefresh && c.token != nil && now.Before(c.token.Expiry.Add(-c.opts.SafetyMargin)) {
		return c.token.AccessToken, nil
	}

	// ForceContentType: the response must decode even when the provider
	// omits or mislabels the Content-Type header.
	var body tokenResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetBody(map[string]string{"app_id": c.opts.AppID, "app_secret": c.opts.AppSecret}).
		SetResult(&body).
		ForceContentType("application/json").
		Post(tokenPath)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange: %v", entity.ErrAuth, err)
	}
	if resp.StatusCode() != 200 || body.Code != 0 {
		return "", fmt.Errorf("%w: token exchange: status=%d code=%d msg=%s",
			entity.ErrAuth, resp.StatusCode(), body.Code, body.Msg)
	}
	if body.TenantAccessToken == "" {
		return "", fmt.Errorf("%w: token exchange: declared success without a token", entity.ErrAuth)
	}

	ttl := time.Duration(body.Expire) * time.Second
	if ttl <= 0 {
		ttl = c.opts.TTLFallback
	}
	c.token = &oauth2.Token{
		AccessToken: body.TenantAccessToken,
		TokenType:   "Bearer",
		Expiry:      now.Add(ttl),
	}
	c.logger.Info("Tenant access token refreshed", "expiresIn", ttl.String())
	return c.token.AccessToken, nil
}

// Invalidate drops the cached token so the next call performs a fresh
// exchange. Called by the gateway after an authentication failure.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
}
