package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// Actor is the resolved caller for a request. Anonymous callers carry a nil
// user ID and the zero role; everything downstream branches on this struct
// instead of re-reading the JWT.
type Actor struct {
	UserID     uuid.UUID
	Role       enums.Role
	IsVerified bool
	AdminTier  enums.AdminTier
}

// Anonymous returns the actor used for unauthenticated requests.
func Anonymous() Actor {
	return Actor{}
}

// IsAnonymous reports whether the actor carries no authenticated identity.
func (a Actor) IsAnonymous() bool {
	return a.UserID == uuid.Nil
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return !a.IsAnonymous() && a.Role == enums.RoleAdmin
}

// IsVerifiedSeller reports whether the actor is a verified retailer or wholesaler.
func (a Actor) IsVerifiedSeller() bool {
	return !a.IsAnonymous() && a.Role.IsSeller() && a.IsVerified
}

type contextKey struct{}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// FromContext returns the actor stored on the context, or the anonymous actor.
func FromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(contextKey{}).(Actor); ok {
		return actor
	}
	return Anonymous()
}
