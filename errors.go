package authcore

import "errors"

// Sentinel errors for the auth core. All are terminal for the current
// request; nothing in this library retries. Callers match with errors.Is
// and decide the externally visible status themselves.
var (
	// ErrInvalidToken means a session token was malformed or its signature
	// did not verify. Surfaced distinctly from expiry so callers can treat
	// it as tampering rather than a prompt to re-authenticate.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired means the session token's signature verified but its
	// expiration instant has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidGrant means a grant code was malformed or its signature did
	// not verify.
	ErrInvalidGrant = errors.New("invalid apply code")

	// ErrGrantExpired means the grant code's signature verified but its
	// expiration instant has passed.
	ErrGrantExpired = errors.New("apply code expired")

	// ErrInvalidGrantTarget means the requested escalation level is not in
	// the grantable set {Provider, Admin}.
	ErrInvalidGrantTarget = errors.New("invalid apply type: must be provider or admin")

	// ErrUnauthorized means a permission-hierarchy check failed. Distinct
	// from authentication failures above.
	ErrUnauthorized = errors.New("permission denied")

	// ErrUserNotFound means the subject is absent from the user store.
	ErrUserNotFound = errors.New("user not found")
)

// ConfigError reports invalid startup configuration, such as a missing or
// empty signing secret. It is fatal at construction time, never a
// per-request error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "authcore: config " + e.Field + ": " + e.Reason
}
