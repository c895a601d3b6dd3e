// Package auth verifies bearer credentials and exposes the resulting
// identity to the rest of the request.
//
// Two verifiers implement the same interface:
//
//   - FirebaseVerifier checks Firebase ID tokens with the Firebase Admin SDK.
//   - HMACVerifier checks HS256 tokens signed with a shared secret. It is
//     meant for local development and tests, and can also mint tokens.
package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpiredCredential = errors.New("expired credential")
)

// Identity is the decoded subject of a verified credential.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin"`
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// tokenClaims is the claim set of HMAC tokens. It mirrors the Firebase
// payload, where custom claims such as "admin" sit at the top level.
type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

func (c *tokenClaims) identity() (*Identity, error) {
	if c.Subject == "" {
		return nil, errors.Join(ErrInvalidCredential, errors.New("token has no subject"))
	}
	return &Identity{UID: c.Subject, Email: c.Email, Admin: c.Admin}, nil
}

// classify maps jwt parse errors onto the two credential errors while
// keeping the jwt error in the chain for logging.
func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return errors.Join(ErrExpiredCredential, err)
	}
	return errors.Join(ErrInvalidCredential, err)
}

type contextKeyIdentity struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, id)
}

// FromContext returns the identity stored by WithIdentity, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKeyIdentity{}).(*Identity)
	return id
}
