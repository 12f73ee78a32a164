// Package wxauth provides a LoginExchanger for the WeChat jscode2session
// endpoint: it resolves a one-time js_code from the client into the user's
// stable openid.
package wxauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	authcore "github.com/chimerakang/authcore-go"
	"github.com/chimerakang/authcore-go/metrics"
)

// DefaultBaseURL is the production WeChat API endpoint.
const DefaultBaseURL = "https://api.weixin.qq.com"

// Provider error categories, mapped from the errcode field of the
// jscode2session response. The auth core does not interpret these beyond
// "login resolution failed"; they exist so operators can tell the cases
// apart in logs.
var (
	ErrSystem      = errors.New("wxauth: provider system error")
	ErrInvalidCode = errors.New("wxauth: invalid js_code")
	ErrUserBlocked = errors.New("wxauth: user blocked")
	ErrRateLimited = errors.New("wxauth: rate limited")
)

// Exchanger implements authcore.LoginExchanger against the WeChat API.
type Exchanger struct {
	appID      string
	secret     string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics

	// js_code is single-use upstream: if a client retries while the first
	// exchange is still in flight, both callers must share one round trip
	// or the retry burns the code.
	sf singleflight.Group
}

// compile-time check
var _ authcore.LoginExchanger = (*Exchanger)(nil)

// Option configures the Exchanger.
type Option func(*Exchanger)

// WithHTTPClient sets a custom HTTP client for exchange requests.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Exchanger) { e.httpClient = c }
}

// WithBaseURL overrides the WeChat API endpoint, for tests and mock servers.
func WithBaseURL(u string) Option {
	return func(e *Exchanger) { e.baseURL = u }
}

// WithMetrics records exchange outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Exchanger) { e.metrics = m }
}

// New creates a jscode2session exchanger from the WeChat app credentials.
func New(cfg authcore.WeChatConfig, opts ...Option) *Exchanger {
	e := &Exchanger{
		appID:      cfg.AppID,
		secret:     cfg.Secret,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if e.baseURL == "" {
		e.baseURL = DefaultBaseURL
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// sessionResponse is the raw JSON response from jscode2session.
type sessionResponse struct {
	SessionKey string `json:"session_key"`
	UnionID    string `json:"unionid"`
	OpenID     string `json:"openid"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

// Exchange resolves a js_code to the user's stable openid. Concurrent calls
// with the same code are deduplicated into a single request.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*authcore.Identity, error) {
	if code == "" {
		return nil, fmt.Errorf("wxauth: js_code cannot be empty")
	}

	v, err, _ := e.sf.Do(code, func() (interface{}, error) {
		return e.exchange(ctx, code)
	})
	if err != nil {
		e.recordExchange(err)
		return nil, err
	}
	e.recordExchange(nil)
	return v.(*authcore.Identity), nil
}

func (e *Exchanger) recordExchange(err error) {
	if e.metrics == nil {
		return
	}
	switch {
	case err == nil:
		e.metrics.RecordLoginExchange("success")
	case errors.Is(err, ErrInvalidCode):
		e.metrics.RecordLoginExchange("invalid_code")
	case errors.Is(err, ErrRateLimited):
		e.metrics.RecordLoginExchange("rate_limited")
	case errors.Is(err, ErrUserBlocked):
		e.metrics.RecordLoginExchange("user_blocked")
	default:
		e.metrics.RecordLoginExchange("error")
	}
}

func (e *Exchanger) exchange(ctx context.Context, code string) (*authcore.Identity, error) {
	q := url.Values{
		"appid":      {e.appID},
		"secret":     {e.secret},
		"js_code":    {code},
		"grant_type": {"authorization_code"},
	}
	reqURL := e.baseURL + "/sns/jscode2session?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("wxauth: create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wxauth: exchange request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wxauth: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wxauth: endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var sess sessionResponse
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("wxauth: decode response: %w", err)
	}

	// WeChat signals failure in the body, not the HTTP status.
	switch sess.ErrCode {
	case 0:
	case -1:
		return nil, ErrSystem
	case 40029:
		return nil, ErrInvalidCode
	case 40226:
		return nil, ErrUserBlocked
	case 45011:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("wxauth: errcode %d: %s", sess.ErrCode, sess.ErrMsg)
	}

	if sess.OpenID == "" {
		return nil, fmt.Errorf("wxauth: provider did not return an openid")
	}

	return &authcore.Identity{
		OpenID:     sess.OpenID,
		UnionID:    sess.UnionID,
		SessionKey: sess.SessionKey,
	}, nil
}
