// Package token provides the HMAC-SHA256 signing primitive shared by
// session tokens and apply codes.
//
// The codec signs an arbitrary claims payload and verifies it back; it
// deliberately does not check expiration, because the same primitive is
// reused for two claim shapes with different lifetimes. Expiry is the
// caller's policy, evaluated lazily at verification time.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	authcore "github.com/chimerakang/authcore-go"
)

// Codec signs and verifies claims with a process-wide HMAC-SHA256 secret.
// The secret is fixed at construction and immutable for the process
// lifetime; MAC comparison inside jwt/v5 is constant-time (crypto/hmac).
type Codec struct {
	secret []byte
}

// NewCodec creates a codec for the given signing secret. A zero-length
// secret is a fatal configuration error, not a per-call one.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, &authcore.ConfigError{Field: "secret", Reason: "zero-length signing key"}
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Codec{secret: key}, nil
}

// Sign serializes the claims and returns a compact HS256-signed token.
func (c *Codec) Sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("authcore/token: sign: %w", err)
	}
	return s, nil
}

// Verify recomputes the MAC over the token and decodes the payload into
// claims. Any structural or signature failure maps to ErrInvalidToken; a
// past expiration does not, since claims validation is skipped here.
func (c *Codec) Verify(tokenString string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !tok.Valid {
		return fmt.Errorf("authcore/token: %w", authcore.ErrInvalidToken)
	}
	return nil
}

func (c *Codec) keyFunc(tok *jwt.Token) (interface{}, error) {
	if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
	}
	return c.secret, nil
}
