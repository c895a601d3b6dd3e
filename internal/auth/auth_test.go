package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v, err := NewHMACVerifier("test-secret", "")
	require.NoError(t, err)

	token, err := v.Issue(Identity{UID: "user-1", Email: "ada@example.com", Admin: true}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UID: "user-1", Email: "ada@example.com", Admin: true}, id)
}

func TestHMACVerifier_Expired(t *testing.T) {
	v, err := NewHMACVerifier("test-secret", "")
	require.NoError(t, err)

	token, err := v.Issue(Identity{UID: "user-1"}, -time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrExpiredCredential)
	assert.NotErrorIs(t, err, ErrInvalidCredential)
}

func TestHMACVerifier_Invalid(t *testing.T) {
	v, err := NewHMACVerifier("test-secret", "")
	require.NoError(t, err)
	other, err := NewHMACVerifier("other-secret", "")
	require.NoError(t, err)

	forged, err := other.Issue(Identity{UID: "user-1"}, time.Hour)
	require.NoError(t, err)

	noSubject, err := v.Issue(Identity{}, time.Hour)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1", "iss": DefaultDevIssuer, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":    "not-a-token",
		"wrong key":  forged,
		"no subject": noSubject,
		"alg none":   unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestNewHMACVerifier_RequiresSecret(t *testing.T) {
	_, err := NewHMACVerifier("", "")
	assert.Error(t, err)
}

type fakeIDTokens struct {
	token *fbauth.Token
	err   error
	got   string
}

func (f *fakeIDTokens) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	f.got = idToken
	return f.token, f.err
}

var errTokenExpired = errors.New("ID token has expired")

func TestFirebaseVerifier(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		tokens  *fakeIDTokens
		want    *Identity
		wantErr error
	}{
		{
			name: "valid token",
			tokens: &fakeIDTokens{token: &fbauth.Token{
				UID:    "firebase-uid",
				Claims: map[string]interface{}{"email": "grace@example.com", "admin": true},
			}},
			want: &Identity{UID: "firebase-uid", Email: "grace@example.com", Admin: true},
		},
		{
			name:   "no custom claims",
			tokens: &fakeIDTokens{token: &fbauth.Token{UID: "firebase-uid"}},
			want:   &Identity{UID: "firebase-uid"},
		},
		{
			name: "admin claim of the wrong type",
			tokens: &fakeIDTokens{token: &fbauth.Token{
				UID:    "firebase-uid",
				Claims: map[string]interface{}{"admin": "true"},
			}},
			want: &Identity{UID: "firebase-uid"},
		},
		{
			name:    "expired token",
			tokens:  &fakeIDTokens{err: errTokenExpired},
			wantErr: ErrExpiredCredential,
		},
		{
			name:    "rejected token",
			tokens:  &fakeIDTokens{err: errors.New("ID token has invalid signature")},
			wantErr: ErrInvalidCredential,
		},
		{
			name:    "no subject",
			tokens:  &fakeIDTokens{token: &fbauth.Token{}},
			wantErr: ErrInvalidCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFirebaseVerifier(tt.tokens)
			v.expired = func(err error) bool { return errors.Is(err, errTokenExpired) }

			id, err := v.Verify(ctx, "raw-token")

			assert.Equal(t, "raw-token", tt.tokens.got)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.tokens.err != nil {
					assert.ErrorIs(t, err, tt.tokens.err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestFirebaseVerifierUsesSDKClassification(t *testing.T) {
	v := NewFirebaseVerifier(&fakeIDTokens{err: errTokenExpired})

	// A plain error carries no Firebase error code, so the SDK does not
	// see it as an expired token.
	_, err := v.Verify(context.Background(), "raw-token")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.NotErrorIs(t, err, ErrExpiredCredential)
}

func TestNewFirebaseClient_RequiresProject(t *testing.T) {
	_, err := NewFirebaseClient(context.Background(), "", "")
	assert.ErrorContains(t, err, "project id is required")
}

type fakeUserAdmin struct {
	created   *fbauth.UserToCreate
	createErr error
	linkFor   string
	linkErr   error
	record    *fbauth.UserRecord
	lookupErr error
}

func (f *fakeUserAdmin) CreateUser(_ context.Context, user *fbauth.UserToCreate) (*fbauth.UserRecord, error) {
	f.created = user
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.record, nil
}

func (f *fakeUserAdmin) EmailVerificationLink(_ context.Context, email string) (string, error) {
	f.linkFor = email
	if f.linkErr != nil {
		return "", f.linkErr
	}
	return "https://verify.example.com/" + email, nil
}

func (f *fakeUserAdmin) GetUserByEmail(_ context.Context, email string) (*fbauth.UserRecord, error) {
	return f.record, f.lookupErr
}

func TestFirebaseDirectory_Register(t *testing.T) {
	fake := &fakeUserAdmin{record: &fbauth.UserRecord{UserInfo: &fbauth.UserInfo{UID: "new-uid", Email: "ada@example.com"}}}
	dir := NewFirebaseDirectory(fake)

	user, link, err := dir.Register(context.Background(), "ada@example.com", "password123")
	require.NoError(t, err)

	assert.Equal(t, &User{UID: "new-uid", Email: "ada@example.com"}, user)
	assert.Equal(t, "https://verify.example.com/ada@example.com", link)
	assert.Equal(t, "ada@example.com", fake.linkFor)
	require.NotNil(t, fake.created)
}

func TestFirebaseDirectory_RegisterFailures(t *testing.T) {
	t.Run("create fails", func(t *testing.T) {
		fake := &fakeUserAdmin{createErr: errors.New("email already in use")}
		_, _, err := NewFirebaseDirectory(fake).Register(context.Background(), "ada@example.com", "pw")
		assert.EqualError(t, err, "email already in use")
		assert.Empty(t, fake.linkFor)
	})

	t.Run("link fails", func(t *testing.T) {
		fake := &fakeUserAdmin{
			record:  &fbauth.UserRecord{UserInfo: &fbauth.UserInfo{UID: "new-uid"}},
			linkErr: errors.New("quota exceeded"),
		}
		_, _, err := NewFirebaseDirectory(fake).Register(context.Background(), "ada@example.com", "pw")
		assert.EqualError(t, err, "quota exceeded")
	})
}

func TestFirebaseDirectory_UserByEmail(t *testing.T) {
	fake := &fakeUserAdmin{record: &fbauth.UserRecord{
		UserInfo:      &fbauth.UserInfo{UID: "uid-1", Email: "ada@example.com"},
		EmailVerified: true,
	}}

	user, err := NewFirebaseDirectory(fake).UserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, &User{UID: "uid-1", Email: "ada@example.com", EmailVerified: true}, user)

	fake.lookupErr = errors.New("no user exists with the email")
	_, err = NewFirebaseDirectory(fake).UserByEmail(context.Background(), "ada@example.com")
	assert.Error(t, err)
}

func TestContextIdentity(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	id := &Identity{UID: "u"}
	assert.Same(t, id, FromContext(WithIdentity(ctx, id)))
}
