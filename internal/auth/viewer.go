package auth

import (
	"context"

	"github.com/Paxto2002/project-vidora/internal/models"
)

type viewerKey struct{}

// WithViewer stores the authenticated user on the context.
func WithViewer(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, viewerKey{}, user)
}

// ViewerFromContext returns the authenticated user, if any.
func ViewerFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(viewerKey{}).(models.User)
	return user, ok
}
