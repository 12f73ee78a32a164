// Package authcore provides the stateless session and permission-escalation
// core for the community-service backend.
//
// Sessions are self-contained HMAC-signed tokens embedding a point-in-time
// user snapshot; validity is purely a function of signature and expiration,
// with no server-side session state. Permission escalation is a two-phase
// protocol: an Admin issues a short-lived signed apply code, and any
// authenticated user redeems it to raise their own permission level.
//
// Concrete implementations are injected via Option functions, keeping the
// core independent of any storage or transport:
//
//	client, err := authcore.NewClient(cfg,
//	    authcore.WithTokenService(sessionSvc),
//	    authcore.WithGrantService(grantSvc),
//	    authcore.WithUserStore(store),
//	    authcore.WithLoginExchanger(wx),
//	)
package authcore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Client is the main entry point for auth operations. Service
// implementations are injected via Option functions.
type Client struct {
	config *Config
	logger *slog.Logger
	tokens TokenService
	grants GrantService
	store  UserStore
	login  LoginExchanger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTokenService sets the session token implementation.
func WithTokenService(t TokenService) Option {
	return func(c *Client) { c.tokens = t }
}

// WithGrantService sets the permission grant implementation.
func WithGrantService(g GrantService) Option {
	return func(c *Client) { c.grants = g }
}

// WithUserStore sets the authoritative user store.
func WithUserStore(s UserStore) Option {
	return func(c *Client) { c.store = s }
}

// WithLoginExchanger sets the external identity exchange implementation.
func WithLoginExchanger(e LoginExchanger) Option {
	return func(c *Client) { c.login = e }
}

// NewClient creates a new auth client with the given configuration and
// options. The configuration is validated once here; a missing signing
// secret fails construction rather than individual requests.
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, &ConfigError{Field: "config", Reason: "config is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() *Config { return c.config }

// Tokens returns the session token service, or nil if not configured.
func (c *Client) Tokens() TokenService { return c.tokens }

// Grants returns the permission grant service, or nil if not configured.
func (c *Client) Grants() GrantService { return c.grants }

// Store returns the user store, or nil if not configured.
func (c *Client) Store() UserStore { return c.store }

// Exchanger returns the login exchanger, or nil if not configured.
func (c *Client) Exchanger() LoginExchanger { return c.login }

// Login resolves an external login code to a subject id, loads the user
// record, and mints a fresh session token for it. Returns ErrUserNotFound
// if no record exists for the subject; use Register for first logins.
func (c *Client) Login(ctx context.Context, code string) (*UserSnapshot, string, error) {
	if c.login == nil || c.store == nil || c.tokens == nil {
		return nil, "", fmt.Errorf("authcore: login requires exchanger, store and token service")
	}

	ident, err := c.login.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("authcore: login resolution failed: %w", err)
	}

	user, err := c.store.LoadBySubject(ctx, ident.OpenID)
	if err != nil {
		return nil, "", err
	}

	token, err := c.tokens.Mint(user)
	if err != nil {
		return nil, "", err
	}

	c.logger.Debug("login", "open_id", ident.OpenID, "permission", user.Permission.Level())
	return user, token, nil
}

// Register resolves an external login code and creates a user record for
// the subject if none exists, then mints a session token. The store must
// implement UserRegistrar. New users start at the User level.
func (c *Client) Register(ctx context.Context, code string, profile UserSnapshot) (*UserSnapshot, string, error) {
	if c.login == nil || c.store == nil || c.tokens == nil {
		return nil, "", fmt.Errorf("authcore: register requires exchanger, store and token service")
	}
	registrar, ok := c.store.(UserRegistrar)
	if !ok {
		return nil, "", fmt.Errorf("authcore: user store does not support registration")
	}

	ident, err := c.login.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("authcore: login resolution failed: %w", err)
	}

	user, err := c.store.LoadBySubject(ctx, ident.OpenID)
	if err != nil {
		profile.OpenID = ident.OpenID
		profile.Permission = User
		user, err = registrar.Create(ctx, &profile)
		if err != nil {
			return nil, "", err
		}
	}

	token, err := c.tokens.Mint(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Close releases all resources held by the client. Any injected service
// that implements io.Closer will be closed.
func (c *Client) Close() error {
	closers := []interface{}{c.tokens, c.grants, c.store, c.login}
	var firstErr error
	for _, svc := range closers {
		if cl, ok := svc.(io.Closer); ok && cl != nil {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
