// Package fake provides in-memory implementations of the authcore
// collaborator interfaces for testing.
//
// Use fake.NewClient() in unit tests to avoid network calls and external
// dependencies: it wires a real codec, session and grant service to an
// in-memory user store and a map-backed login exchanger.
package fake

import (
	"context"
	"fmt"
	"sync"

	authcore "github.com/chimerakang/authcore-go"
	"github.com/chimerakang/authcore-go/grant"
	"github.com/chimerakang/authcore-go/session"
	"github.com/chimerakang/authcore-go/token"
)

// Store is an in-memory authcore.UserStore. Updates are applied under a
// mutex, so a permission update is atomic: concurrent redeems may race
// (last writer wins) but a reader never observes a torn record.
type Store struct {
	mu     sync.RWMutex
	users  map[string]*authcore.UserSnapshot // open_id → record
	nextID int32
}

// compile-time checks
var (
	_ authcore.UserStore     = (*Store)(nil)
	_ authcore.UserRegistrar = (*Store)(nil)
)

// StoreOption seeds the fake store.
type StoreOption func(*Store)

// WithUser adds a user record.
func WithUser(u authcore.UserSnapshot) StoreOption {
	return func(s *Store) {
		if u.ID == 0 {
			s.nextID++
			u.ID = s.nextID
		} else if u.ID > s.nextID {
			s.nextID = u.ID
		}
		s.users[u.OpenID] = &u
	}
}

// NewStore creates an in-memory user store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{users: make(map[string]*authcore.UserSnapshot)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoadBySubject returns a copy of the user record, or ErrUserNotFound.
func (s *Store) LoadBySubject(ctx context.Context, openID string) (*authcore.UserSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[openID]
	if !ok {
		return nil, fmt.Errorf("authcore/fake: %q: %w", openID, authcore.ErrUserNotFound)
	}
	cp := *u
	return &cp, nil
}

// UpdatePermission atomically sets the user's permission level.
func (s *Store) UpdatePermission(ctx context.Context, openID string, level authcore.PermissionLevel) (*authcore.UserSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[openID]
	if !ok {
		return nil, fmt.Errorf("authcore/fake: %q: %w", openID, authcore.ErrUserNotFound)
	}
	u.Permission = level
	cp := *u
	return &cp, nil
}

// Create inserts a new user record and assigns it an id.
func (s *Store) Create(ctx context.Context, user *authcore.UserSnapshot) (*authcore.UserSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.OpenID]; exists {
		return nil, fmt.Errorf("authcore/fake: user %q already exists", user.OpenID)
	}
	s.nextID++
	cp := *user
	cp.ID = s.nextID
	s.users[cp.OpenID] = &cp
	out := cp
	return &out, nil
}

// Exchanger is a map-backed authcore.LoginExchanger: each known code
// resolves to a fixed openid.
type Exchanger struct {
	mu    sync.RWMutex
	codes map[string]string // code → open_id
}

var _ authcore.LoginExchanger = (*Exchanger)(nil)

// NewExchanger creates a fake login exchanger.
func NewExchanger() *Exchanger {
	return &Exchanger{codes: make(map[string]string)}
}

// AddCode registers a login code resolving to the given openid.
func (e *Exchanger) AddCode(code, openID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.codes[code] = openID
}

// Exchange resolves a registered code, or fails like an invalid js_code.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*authcore.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	openID, ok := e.codes[code]
	if !ok {
		return nil, fmt.Errorf("authcore/fake: unknown login code %q", code)
	}
	return &authcore.Identity{OpenID: openID, SessionKey: "fake-session-key"}, nil
}

// NewClient creates an *authcore.Client with every service wired to
// in-memory fakes and a real signing stack under the given secret.
func NewClient(secret string, store *Store, exchanger *Exchanger) (*authcore.Client, error) {
	cfg := &authcore.Config{Secret: secret}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec([]byte(cfg.Secret))
	if err != nil {
		return nil, err
	}

	sessions := session.New(codec, session.WithTTL(cfg.SessionTTL))
	grants := grant.New(codec, store, sessions, grant.WithTTL(cfg.GrantTTL))

	return authcore.NewClient(cfg,
		authcore.WithTokenService(sessions),
		authcore.WithGrantService(grants),
		authcore.WithUserStore(store),
		authcore.WithLoginExchanger(exchanger),
	)
}
