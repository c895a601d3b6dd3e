package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// IDTokenVerifier is the part of the Firebase Admin auth client the
// verifier needs. *fbauth.Client implements it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier validates Firebase ID tokens through the Admin SDK,
// which checks the signature against Google's rotating keys along with
// iss, aud, exp and sub.
type FirebaseVerifier struct {
	client  IDTokenVerifier
	expired func(error) bool
}

func NewFirebaseVerifier(client IDTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, expired: fbauth.IsIDTokenExpired}
}

// NewFirebaseClient builds the Admin auth client for projectID. With an
// empty credentialsFile the SDK falls back to application default
// credentials.
func NewFirebaseClient(ctx context.Context, projectID, credentialsFile string) (*fbauth.Client, error) {
	if projectID == "" {
		return nil, errors.New("auth.NewFirebaseClient: project id is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("auth.NewFirebaseClient: app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth.NewFirebaseClient: auth: %w", err)
	}
	return client, nil
}

// Verify implements Verifier. Custom claims ("admin") and "email" sit in
// the token's claim map.
func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, raw)
	if err != nil {
		if v.expired(err) {
			return nil, errors.Join(ErrExpiredCredential, err)
		}
		return nil, errors.Join(ErrInvalidCredential, err)
	}
	if token == nil || token.UID == "" {
		return nil, errors.Join(ErrInvalidCredential, errors.New("token has no subject"))
	}

	email, _ := token.Claims["email"].(string)
	admin, _ := token.Claims["admin"].(bool)
	return &Identity{UID: token.UID, Email: email, Admin: admin}, nil
}

// User is an account in the identity provider.
type User struct {
	UID           string
	Email         string
	EmailVerified bool
}

// UserAdmin is the part of the Firebase Admin auth client the account
// routes need. *fbauth.Client implements it.
type UserAdmin interface {
	CreateUser(ctx context.Context, user *fbauth.UserToCreate) (*fbauth.UserRecord, error)
	EmailVerificationLink(ctx context.Context, email string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*fbauth.UserRecord, error)
}

// FirebaseDirectory creates and looks up Firebase accounts.
type FirebaseDirectory struct {
	client UserAdmin
}

func NewFirebaseDirectory(client UserAdmin) *FirebaseDirectory {
	return &FirebaseDirectory{client: client}
}

// Register creates an email/password account and generates its email
// verification link. The link is returned for the caller to deliver.
func (d *FirebaseDirectory) Register(ctx context.Context, email, password string) (*User, string, error) {
	record, err := d.client.CreateUser(ctx, (&fbauth.UserToCreate{}).Email(email).Password(password))
	if err != nil {
		return nil, "", err
	}
	link, err := d.client.EmailVerificationLink(ctx, email)
	if err != nil {
		return nil, "", err
	}
	return toUser(record), link, nil
}

func (d *FirebaseDirectory) UserByEmail(ctx context.Context, email string) (*User, error) {
	record, err := d.client.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return toUser(record), nil
}

func toUser(record *fbauth.UserRecord) *User {
	u := &User{EmailVerified: record.EmailVerified}
	if record.UserInfo != nil {
		u.UID = record.UID
		u.Email = record.Email
	}
	return u
}
