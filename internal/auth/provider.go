package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"offerapp-backend/internal/apperr"
)

// Provider checks login credentials. Implementations may call out to an
// identity provider; callers only see ErrUnauthorized on a bad credential.
type Provider interface {
	Verify(ctx context.Context, networkID, password string) error
}

// FixedPasswordProvider accepts one shared password for every registered
// admin. The password is held only as a bcrypt hash.
type FixedPasswordProvider struct {
	hash string
}

// NewFixedPasswordProvider prefers a precomputed bcrypt hash
// (ADMIN_LOGIN_PASSWORD_HASH) and falls back to hashing the plain password at
// startup.
func NewFixedPasswordProvider(password, hash string) (*FixedPasswordProvider, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, errors.New("admin login password hash is not a bcrypt hash")
		}
		return &FixedPasswordProvider{hash: hash}, nil
	}
	if password == "" {
		return nil, errors.New("admin login password not configured")
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &FixedPasswordProvider{hash: hashed}, nil
}

// HashPassword produces the value expected in ADMIN_LOGIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify ignores networkID; registration is checked by the caller.
func (p *FixedPasswordProvider) Verify(ctx context.Context, networkID, password string) error {
	if password == "" {
		return apperr.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.hash), []byte(password)); err != nil {
		return apperr.ErrUnauthorized
	}
	return nil
}

// DisabledProvider rejects every login. It stands in when no admin password
// is configured.
type DisabledProvider struct{}

func (DisabledProvider) Verify(ctx context.Context, networkID, password string) error {
	return apperr.ErrUnauthorized
}
