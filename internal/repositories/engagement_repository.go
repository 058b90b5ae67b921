package repositories

import (
	"context"
	"time"

	"github.com/Paxto2002/project-vidora/internal/models"
)

// CommentRepository exposes data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, videoID string, page, limit int) (models.Page[models.CommentView], error)
	Update(ctx context.Context, id, content string, at time.Time) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// TweetRepository exposes data access for community posts.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	Update(ctx context.Context, id, content string, at time.Time) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// LikeRepository toggles likes and lists liked videos.
type LikeRepository interface {
	Toggle(ctx context.Context, like models.Like) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error)
}

// SubscriptionRepository toggles subscriptions and lists both sides of them.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscription models.Subscription) (bool, error)
	Subscribers(ctx context.Context, channelID string) ([]models.PublicUser, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicUser, error)
}

// DashboardRepository aggregates a channel's statistics.
type DashboardRepository interface {
	ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error)
	ChannelVideos(ctx context.Context, ownerID string) ([]models.ChannelVideo, error)
}
