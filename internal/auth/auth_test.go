package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offerapp-backend/internal/apperr"
)

func TestTokenRoundTrip(t *testing.T) {
	m := &Manager{Secret: []byte("test-secret"), TTL: time.Hour, Issuer: "offerapp-backend"}

	token, err := m.NewToken(Identity{ID: "a1", NetworkID: "jdoe", Name: "Jane", Role: RoleAdmin})
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.Subject)
	assert.Equal(t, "jdoe", claims.NetworkID)
	assert.Equal(t, RoleAdmin, claims.Identity().Role)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	m := &Manager{Secret: []byte("test-secret"), TTL: -time.Minute}
	expired, err := m.NewToken(Identity{ID: "a1", Role: RoleAdmin})
	require.NoError(t, err)
	_, err = m.Parse(expired)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))

	other := &Manager{Secret: []byte("other-secret"), TTL: time.Hour}
	foreign, err := other.NewToken(Identity{ID: "a1", Role: RoleAdmin})
	require.NoError(t, err)
	m.TTL = time.Hour
	_, err = m.Parse(foreign)
	assert.Error(t, err)
}

func TestNewTokenRequiresSecret(t *testing.T) {
	_, err := (&Manager{TTL: time.Hour}).NewToken(Identity{ID: "a1"})
	assert.Error(t, err)
}

func TestFixedPasswordProvider(t *testing.T) {
	p, err := NewFixedPasswordProvider("s3cret", "")
	require.NoError(t, err)

	assert.NoError(t, p.Verify(context.Background(), "jdoe", "s3cret"))
	assert.ErrorIs(t, p.Verify(context.Background(), "jdoe", "wrong"), apperr.ErrUnauthorized)
	assert.ErrorIs(t, p.Verify(context.Background(), "jdoe", ""), apperr.ErrUnauthorized)

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	fromHash, err := NewFixedPasswordProvider("", hash)
	require.NoError(t, err)
	assert.NoError(t, fromHash.Verify(context.Background(), "jdoe", "s3cret"))

	_, err = NewFixedPasswordProvider("", "")
	assert.Error(t, err)
	_, err = NewFixedPasswordProvider("", "s3cret")
	assert.Error(t, err)
	_, err = HashPassword("")
	assert.Error(t, err)

	assert.ErrorIs(t, DisabledProvider{}.Verify(context.Background(), "jdoe", "s3cret"), apperr.ErrUnauthorized)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{Name: "Jane"})
	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "Jane", claims.Name)
}
