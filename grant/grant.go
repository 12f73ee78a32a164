// Package grant implements the two-phase permission-upgrade protocol.
//
// Phase one: an Admin requests an apply code for a target level (Provider
// or Admin). The code is a short-lived signed credential carrying only the
// target level and an expiration. Phase two: any authenticated user redeems
// the code against their own record, raising their permission to the
// embedded target and receiving a re-minted session token.
//
// Codes carry no server-side state. There is no mark-as-used step: a code
// is redeemable, by anyone holding it, on every attempt until it expires.
package grant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authcore "github.com/chimerakang/authcore-go"
	"github.com/chimerakang/authcore-go/audit"
	"github.com/chimerakang/authcore-go/metrics"
	"github.com/chimerakang/authcore-go/token"
)

// Claims is the apply-code payload: the target level and an expiration,
// nothing else. apply_type uses the level's integer encoding (2 or 3).
type Claims struct {
	ApplyType int `json:"apply_type"`
	jwt.RegisteredClaims
}

// Service implements authcore.GrantService.
type Service struct {
	codec   *token.Codec
	store   authcore.UserStore
	tokens  authcore.TokenService
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	audit   *audit.Trail
}

// compile-time check
var _ authcore.GrantService = (*Service)(nil)

// Option configures the Service.
type Option func(*Service)

// WithTTL overrides the apply-code lifetime. Default: authcore.DefaultGrantTTL.
func WithTTL(d time.Duration) Option {
	return func(s *Service) { s.ttl = d }
}

// WithClock overrides the time source, for expiry-boundary tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records issue/redeem outcomes to the given metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit emits grant_issue and grant_redeem audit events.
func WithAudit(t *audit.Trail) Option {
	return func(s *Service) { s.audit = t }
}

// New creates a grant service. The store persists permission changes; the
// token service re-mints the redeemer's session after a change, since the
// snapshot embedded in their old token is stale the moment the store
// updates.
func New(codec *token.Codec, store authcore.UserStore, tokens authcore.TokenService, opts ...Option) *Service {
	s := &Service{
		codec:  codec,
		store:  store,
		tokens: tokens,
		ttl:    authcore.DefaultGrantTTL,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue mints an apply code for the target level. Only a caller holding
// exactly Admin may issue, and the target must be grantable; both checks
// fail closed at mint time, not at redemption.
func (s *Service) Issue(callerLevel int, target authcore.PermissionLevel) (*authcore.Grant, error) {
	if authcore.AuthorizeExact(callerLevel, authcore.Admin) != authcore.Authorized {
		s.record("issue", "denied")
		s.emit(audit.Event{Action: audit.ActionGrantIssue, Result: audit.ResultDenied,
			Details: fmt.Sprintf("caller_level=%d", callerLevel)})
		return nil, fmt.Errorf("authcore/grant: only admin can generate apply code: %w", authcore.ErrUnauthorized)
	}
	if !target.Grantable() {
		s.record("issue", "invalid_target")
		return nil, fmt.Errorf("authcore/grant: %w", authcore.ErrInvalidGrantTarget)
	}

	expiresAt := s.now().Add(s.ttl)
	claims := Claims{
		ApplyType: target.Level(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	code, err := s.codec.Sign(claims)
	if err != nil {
		s.record("issue", "error")
		return nil, err
	}

	s.record("issue", "success")
	s.emit(audit.Event{Action: audit.ActionGrantIssue, Result: audit.ResultSuccess,
		Details: fmt.Sprintf("apply_type=%d", target.Level())})

	return &authcore.Grant{Code: code, Target: target, ExpiresAt: expiresAt}, nil
}

// Redeem verifies the code and applies the embedded target level to the
// redeeming user. Signature or expiry failures never partially apply: the
// store update and the re-mint happen only after the code fully validates,
// and the update itself is atomic in the store. Cancelling ctx before the
// store commit leaves the permission unchanged.
func (s *Service) Redeem(ctx context.Context, code string, subjectID string) (*authcore.RedeemResult, error) {
	var claims Claims
	if err := s.codec.Verify(code, &claims); err != nil {
		s.record("redeem", "invalid")
		return nil, fmt.Errorf("authcore/grant: %w", authcore.ErrInvalidGrant)
	}
	if claims.ExpiresAt == nil {
		s.record("redeem", "invalid")
		return nil, fmt.Errorf("authcore/grant: %w", authcore.ErrInvalidGrant)
	}
	if claims.ExpiresAt.Unix() < s.now().Unix() {
		s.record("redeem", "expired")
		return nil, fmt.Errorf("authcore/grant: %w", authcore.ErrGrantExpired)
	}

	target := authcore.PermissionFromInt(claims.ApplyType)
	if !target.Grantable() {
		s.record("redeem", "invalid_target")
		return nil, fmt.Errorf("authcore/grant: apply_type %d in code: %w", claims.ApplyType, authcore.ErrInvalidGrantTarget)
	}

	// One store round trip: the update itself reports an unknown subject.
	updated, err := s.store.UpdatePermission(ctx, subjectID, target)
	if err != nil {
		if errors.Is(err, authcore.ErrUserNotFound) {
			s.record("redeem", "user_not_found")
			return nil, err
		}
		s.record("redeem", "store_error")
		return nil, fmt.Errorf("authcore/grant: update permission: %w", err)
	}

	sessionToken, err := s.tokens.Mint(updated)
	if err != nil {
		s.record("redeem", "mint_error")
		return nil, err
	}

	s.record("redeem", "success")
	ev := audit.ForUser(audit.ActionGrantRedeem, audit.ResultSuccess, updated)
	ev.Details = fmt.Sprintf("apply_type=%d", target.Level())
	s.emit(ev)

	return &authcore.RedeemResult{User: updated, Token: sessionToken}, nil
}

func (s *Service) record(op, result string) {
	if s.metrics != nil {
		s.metrics.RecordGrant(op, result)
	}
}

func (s *Service) emit(e audit.Event) {
	if s.audit != nil {
		s.audit.Emit(e)
	}
}
