package repositories

import (
	"context"

	"github.com/Paxto2002/project-vidora/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.VideoView, error)
	List(ctx context.Context, query models.VideoQuery) (models.Page[models.VideoView], error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}
