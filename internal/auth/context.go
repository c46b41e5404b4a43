package auth

import (
	"context"

	"offerapp-backend/internal/wire"
)

type claimsKey struct{}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// ActorFromContext names the admin behind the request for audit fields.
func ActorFromContext(ctx context.Context) wire.Actor {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return wire.NewActor("", "")
	}
	return wire.NewActor(claims.NetworkID, claims.Name)
}
