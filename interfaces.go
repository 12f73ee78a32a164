package authcore

import "context"

// TokenService is the user ⇄ token boundary for session credentials.
// Implementations: session/ (HMAC-signed JWT), fake/ (testing).
type TokenService interface {
	// Mint wraps the snapshot in session claims with a fresh expiration and
	// returns the signed token. Pure computation; no I/O.
	Mint(user *UserSnapshot) (string, error)

	// Resolve verifies the token and returns the embedded snapshot.
	// Returns ErrTokenExpired past the embedded expiration, ErrInvalidToken
	// on any structural or signature failure. Resolve cannot tell whether
	// the user still exists; that is the caller's lookup against UserStore.
	Resolve(token string) (*UserSnapshot, error)
}

// GrantService implements the two-phase permission-upgrade protocol: an
// Admin issues a short-lived signed code, any authenticated user redeems it
// to raise their own level.
type GrantService interface {
	// Issue mints a grant code for the target level. The caller must hold
	// exactly Admin, and the target must be grantable (Provider or Admin).
	Issue(callerLevel int, target PermissionLevel) (*Grant, error)

	// Redeem verifies the code and, if valid and unexpired, sets the
	// redeeming user's permission to the embedded target through the
	// UserStore and re-mints their session token. Codes carry no server-side
	// state: a code stays redeemable, by anyone, until it expires.
	Redeem(ctx context.Context, code string, subjectID string) (*RedeemResult, error)
}

// UserStore is the authoritative, persistent record of user identity and
// permission. The core treats it as an opaque collaborator.
type UserStore interface {
	// LoadBySubject returns the user with the given stable subject id, or
	// ErrUserNotFound.
	LoadBySubject(ctx context.Context, openID string) (*UserSnapshot, error)

	// UpdatePermission atomically sets the user's permission level and
	// returns the updated record. A concurrent pair of updates may race
	// (last writer wins) but a torn write must be impossible.
	UpdatePermission(ctx context.Context, openID string, level PermissionLevel) (*UserSnapshot, error)
}

// UserRegistrar is an optional extension of UserStore for stores that can
// create records during first login.
type UserRegistrar interface {
	// Create inserts a new user record and returns it with the store-assigned id.
	Create(ctx context.Context, user *UserSnapshot) (*UserSnapshot, error)
}

// LoginExchanger resolves an external login code to a stable subject id.
// Implementations: wxauth/ (jscode2session), fake/ (testing).
type LoginExchanger interface {
	// Exchange resolves the provider login code. Provider-specific failure
	// categories (invalid code, blocked user, rate limited, system error)
	// are surfaced as errors; the core does not interpret them beyond
	// "login resolution failed."
	Exchange(ctx context.Context, code string) (*Identity, error)
}
