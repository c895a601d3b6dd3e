package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultDevIssuer is the iss claim of development tokens.
const DefaultDevIssuer = "blockfest-dev"

// HMACVerifier validates (and issues) HS256 tokens signed with a shared
// secret.
type HMACVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewHMACVerifier(secret, issuer string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("auth.NewHMACVerifier: secret is required")
	}
	if issuer == "" {
		issuer = DefaultDevIssuer
	}
	return &HMACVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for id that expires after ttl. A negative ttl
// yields an already-expired token, which tests rely on.
func (v *HMACVerifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: id.Email,
		Admin: id.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(v.secret)
}

// Verify implements Verifier.
func (v *HMACVerifier) Verify(_ context.Context, raw string) (*Identity, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	return claims.identity()
}
