package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

type Manager struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// Identity is who a token speaks for.
type Identity struct {
	ID        string
	NetworkID string
	Name      string
	Role      string
}

type Claims struct {
	NetworkID string `json:"networkId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (m *Manager) NewToken(id Identity) (string, error) {
	if len(m.Secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := Claims{
		NetworkID: id.NetworkID,
		Name:      id.Name,
		Role:      id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    m.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if m.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (c *Claims) Identity() Identity {
	return Identity{
		ID:        c.Subject,
		NetworkID: c.NetworkID,
		Name:      c.Name,
		Role:      c.Role,
	}
}
