package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"EternalJukebox/logger"
	"EternalJukebox/model"
)

// ExchangeToken 用 client-credentials 换取 bearer 令牌，basic 为预编码的 client:secret
func (c *Client) ExchangeToken(ctx context.Context, basic string) (*model.SpotifyToken, error) {
	req, err := c.createRequest(ctx, http.MethodPost, c.tokenURL, "", strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token model.SpotifyToken
	if err := c.do(req, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("token response without access_token")
	}
	return &token, nil
}

// TokenExchanger performs the client-credentials exchange.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, basic string) (*model.SpotifyToken, error)
}

// TokenManager owns the single process-wide bearer token and refreshes it
// lazily once it has expired. The check-refresh-write sequence runs under a
// mutex so concurrent callers share one exchange.
type TokenManager struct {
	basic     string
	exchanger TokenExchanger
	now       func() time.Time

	mu     sync.Mutex
	bearer string
	expiry time.Time
}

// NewTokenManager 创建令牌管理器，basic 为空表示未配置凭据
func NewTokenManager(basic string, exchanger TokenExchanger) *TokenManager {
	return &TokenManager{
		basic:     basic,
		exchanger: exchanger,
		now:       time.Now,
	}
}

// Configured reports whether a credential pair is available.
func (m *TokenManager) Configured() bool {
	return m.basic != ""
}

// ValidToken returns a bearer token, refreshing it first when expired. A
// failed refresh keeps the stale token; the provider rejects it later and
// that rejection is what the caller sees.
func (m *TokenManager) ValidToken(ctx context.Context) (string, error) {
	if !m.Configured() {
		return "", ErrNotConfigured
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Before(m.expiry) {
		return m.bearer, nil
	}

	token, err := m.exchanger.ExchangeToken(ctx, m.basic)
	if err != nil {
		logger.Warn("[TokenManager] 刷新令牌失败，继续使用旧令牌",
			logger.ErrorField(err),
			logger.Bool("hasStale", m.bearer != ""))
		return m.bearer, nil
	}

	m.bearer = token.AccessToken
	m.expiry = now.Add(time.Duration(token.ExpiresIn) * time.Second)
	logger.Info("[TokenManager] 令牌已刷新",
		logger.Duration("lifetime", time.Duration(token.ExpiresIn)*time.Second))
	return m.bearer, nil
}
