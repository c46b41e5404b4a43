package admins

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/auth"
)

// TokenIssuer signs access tokens; *auth.Manager implements it.
type TokenIssuer interface {
	NewToken(id auth.Identity) (string, error)
}

type Service struct {
	repo     Repository
	provider auth.Provider
	tokens   TokenIssuer
}

func NewService(repo Repository, provider auth.Provider, tokens TokenIssuer) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		tokens:   tokens,
	}
}

// Register creates the admin or, if the network identity already exists,
// updates its display name.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Admin, error) {
	admin, err := s.repo.Upsert(ctx, strings.TrimSpace(req.NetworkID), strings.TrimSpace(req.Name), auth.RoleAdmin)
	if err != nil {
		return Admin{}, fmt.Errorf("register admin: %w", err)
	}
	return admin, nil
}

// Login checks the credential before the registration so an unknown
// identity with a wrong password is reported as unauthorized.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	networkID := strings.TrimSpace(req.NetworkID)

	if err := s.provider.Verify(ctx, networkID, req.Password); err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			return LoginResponse{}, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
		}
		return LoginResponse{}, apperr.Upstream("verify credentials", err)
	}

	admin, err := s.repo.FindByNetworkID(ctx, networkID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return LoginResponse{}, apperr.NotFound("admin not registered")
	}
	if err != nil {
		return LoginResponse{}, fmt.Errorf("find admin: %w", err)
	}

	token, err := s.tokens.NewToken(auth.Identity{
		ID:        admin.ID,
		NetworkID: admin.NetworkID,
		Name:      admin.Name,
		Role:      admin.Role,
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return LoginResponse{Admin: admin, Token: token}, nil
}
