package handlers

import (
	"context"
	"time"

	"github.com/Paxto2002/project-vidora/internal/media"
	"github.com/Paxto2002/project-vidora/internal/models"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
	UpdateAccount(ctx context.Context, id, fullName, email string, at time.Time) (models.User, error)
	UpdateAvatar(ctx context.Context, id, url string, at time.Time) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string, at time.Time) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
	AddToWatchHistory(ctx context.Context, userID, videoID string, at time.Time) error
}

// SessionManager issues, rotates and revokes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, user models.User) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// VideoStore captures persistence for videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.VideoView, error)
	List(ctx context.Context, query models.VideoQuery) (models.Page[models.VideoView], error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, videoID string, page, limit int) (models.Page[models.CommentView], error)
	Update(ctx context.Context, id, content string, at time.Time) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for community posts.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	Update(ctx context.Context, id, content string, at time.Time) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// LikeStore toggles likes.
type LikeStore interface {
	Toggle(ctx context.Context, like models.Like) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error)
}

// SubscriptionStore toggles subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscription models.Subscription) (bool, error)
	Subscribers(ctx context.Context, channelID string) ([]models.PublicUser, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicUser, error)
}

// DashboardStore aggregates channel statistics.
type DashboardStore interface {
	ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error)
	ChannelVideos(ctx context.Context, ownerID string) ([]models.ChannelVideo, error)
}

// MediaUploader moves spooled upload files into the media store.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string, kind media.Kind) (media.Asset, error)
}

// MediaJanitor deletes stored media no record references any more.
type MediaJanitor interface {
	Discard(ctx context.Context, urls ...string) error
}
