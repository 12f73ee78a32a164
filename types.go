package authcore

import "time"

// PermissionLevel is the closed, totally ordered permission domain.
// Higher values carry more privilege.
type PermissionLevel int

const (
	Guest    PermissionLevel = 0
	User     PermissionLevel = 1
	Provider PermissionLevel = 2
	Admin    PermissionLevel = 3
)

// Level returns the canonical integer for the level. Values outside the
// known range collapse to Guest's integer so comparisons fail safe.
func (l PermissionLevel) Level() int {
	switch l {
	case User, Provider, Admin:
		return int(l)
	default:
		return int(Guest)
	}
}

// Grantable reports whether the level may be the target of a permission
// grant. Guest and User are defaults, not escalations.
func (l PermissionLevel) Grantable() bool {
	return l == Provider || l == Admin
}

func (l PermissionLevel) String() string {
	switch l {
	case Admin:
		return "admin"
	case Provider:
		return "provider"
	case User:
		return "user"
	default:
		return "guest"
	}
}

// PermissionFromInt maps a stored integer to a PermissionLevel.
// Unknown, negative, or out-of-range integers map to Guest; the mapping is
// total and never fails.
func PermissionFromInt(n int) PermissionLevel {
	switch n {
	case 1:
		return User
	case 2:
		return Provider
	case 3:
		return Admin
	default:
		return Guest
	}
}

// UserSnapshot is the point-in-time copy of a user embedded in a session
// token. The authoritative record lives in the UserStore; mutating the store
// does not change tokens already issued. Mutation paths re-mint a fresh
// token instead of patching an old one.
type UserSnapshot struct {
	ID          int32           `json:"id"`
	OpenID      string          `json:"open_id"`
	Nickname    string          `json:"nickname,omitempty"`
	Avatar      string          `json:"avatar,omitempty"`
	Permission  PermissionLevel `json:"permission"`
	Name        string          `json:"name,omitempty"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	Address     string          `json:"address,omitempty"`
	IsImportant bool            `json:"is_important,omitempty"`
}

// Grant is an issued permission-upgrade code. The code is a signed,
// self-contained credential; no server-side state tracks it, so it remains
// redeemable until ExpiresAt.
type Grant struct {
	Code      string
	Target    PermissionLevel
	ExpiresAt time.Time
}

// RedeemResult is the outcome of a successful grant redemption: the updated
// store record and a freshly minted session token reflecting it.
type RedeemResult struct {
	User  *UserSnapshot
	Token string
}

// Identity is the result of resolving an external login code: the stable
// subject id assigned by the identity provider, plus provider session data.
type Identity struct {
	OpenID     string
	UnionID    string
	SessionKey string
}
