package auth

import (
	"context"
	stderrors "errors"
	"time"
)

var (
	ErrNotConfigured      = stderrors.New("auth service is not configured (set auth.url and auth.anon_key)")
	ErrAlreadyRegistered  = stderrors.New("an account with this email already exists, try signing in instead")
	ErrInvalidCredentials = stderrors.New("invalid email or password")
	ErrEmailNotConfirmed  = stderrors.New("please confirm your email before signing in")
)

// User is the account returned by the auth service
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// FullName returns the name recorded at sign-up, if any
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	name, _ := u.UserMetadata["full_name"].(string)
	return name
}

type SignUpData struct {
	Email    string
	Password string
	FullName string
}

type SignInData struct {
	Email    string
	Password string
}

// Provider is the external account service. CurrentUser returns nil without
// an error when nobody is signed in.
type Provider interface {
	SignUp(ctx context.Context, data SignUpData) (*User, error)
	SignIn(ctx context.Context, data SignInData) (*User, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*User, error)
}
