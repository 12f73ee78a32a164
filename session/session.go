// Package session implements the TokenService: the user ⇄ token boundary.
//
// A session token is a self-contained signed credential embedding a
// point-in-time user snapshot. Resolving a token is a pure function of the
// token string, the current time, and the shared secret — no I/O, no
// server-side session state, and therefore no revocation: tokens only
// self-expire. A token cannot tell whether its user was later deleted or
// changed; callers needing the live record go through the UserStore.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authcore "github.com/chimerakang/authcore-go"
	"github.com/chimerakang/authcore-go/metrics"
	"github.com/chimerakang/authcore-go/token"
)

// Claims is the session payload: the embedded snapshot plus the standard
// subject and expiration fields.
type Claims struct {
	User authcore.UserSnapshot `json:"user"`
	jwt.RegisteredClaims
}

// Service implements authcore.TokenService over the signing codec.
type Service struct {
	codec   *token.Codec
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

// compile-time check
var _ authcore.TokenService = (*Service)(nil)

// Option configures the Service.
type Option func(*Service)

// WithTTL overrides the session lifetime. Default: authcore.DefaultSessionTTL.
func WithTTL(d time.Duration) Option {
	return func(s *Service) { s.ttl = d }
}

// WithClock overrides the time source, for expiry-boundary tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records mint counts and resolve failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a session token service backed by the given codec.
func New(codec *token.Codec, opts ...Option) *Service {
	s := &Service{
		codec: codec,
		ttl:   authcore.DefaultSessionTTL,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Mint wraps the snapshot in session claims expiring at now + TTL and signs
// them. Pure computation; no store write.
func (s *Service) Mint(user *authcore.UserSnapshot) (string, error) {
	if user == nil {
		return "", fmt.Errorf("authcore/session: user is nil")
	}
	claims := Claims{
		User: *user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.OpenID,
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.ttl)),
		},
	}
	signed, err := s.codec.Sign(claims)
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.RecordMint()
	}
	return signed, nil
}

// Resolve verifies the token and returns the embedded snapshot. A valid
// signature with a past expiration fails with ErrTokenExpired; any other
// failure is ErrInvalidToken.
func (s *Service) Resolve(tokenString string) (*authcore.UserSnapshot, error) {
	var claims Claims
	if err := s.codec.Verify(tokenString, &claims); err != nil {
		s.recordFailure("invalid")
		return nil, fmt.Errorf("authcore/session: %w", authcore.ErrInvalidToken)
	}
	if claims.ExpiresAt == nil {
		s.recordFailure("invalid")
		return nil, fmt.Errorf("authcore/session: %w", authcore.ErrInvalidToken)
	}
	if claims.ExpiresAt.Unix() < s.now().Unix() {
		s.recordFailure("expired")
		return nil, fmt.Errorf("authcore/session: %w", authcore.ErrTokenExpired)
	}
	user := claims.User
	return &user, nil
}

func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordResolveFailure(reason)
	}
}
