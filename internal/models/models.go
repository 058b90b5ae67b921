package models

import "time"

// User represents an account on the Vidora platform. Credential fields never
// leave the process in JSON.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	Password      string    `json:"-"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PublicUser is the projection of a user that other users may see.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// Public strips everything but the public projection.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}
}

// Video is an uploaded video and its metadata.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoFile"`
	ThumbnailURL string    `json:"thumbnail"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	OwnerID      string    `json:"ownerId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VideoView is a video with its owner's public projection joined in.
type VideoView struct {
	Video
	Owner PublicUser `json:"owner"`
}

// WatchedVideo is one watch-history entry.
type WatchedVideo struct {
	VideoView
	WatchedAt time.Time `json:"watchedAt"`
}

// LikedVideo is a video the viewer liked.
type LikedVideo struct {
	VideoView
	LikedAt time.Time `json:"likedAt"`
}

// ChannelVideo is a dashboard row: one of the viewer's videos with its like count.
type ChannelVideo struct {
	Video
	LikeCount int64 `json:"likeCount"`
}

// Comment is a viewer's comment on a video.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentView is a comment with its author's public projection.
type CommentView struct {
	Comment
	Owner PublicUser `json:"owner"`
}

// Tweet is a community post.
type Tweet struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeTargetKind names the kind of entity a like points at.
type LikeTargetKind string

const (
	LikeTargetVideo   LikeTargetKind = "video"
	LikeTargetComment LikeTargetKind = "comment"
	LikeTargetTweet   LikeTargetKind = "tweet"
)

// LikeTarget identifies the liked entity.
type LikeTarget struct {
	Kind LikeTargetKind
	ID   string
}

// Like links a user to exactly one liked entity.
type Like struct {
	ID        string    `json:"id"`
	VideoID   *string   `json:"video,omitempty"`
	CommentID *string   `json:"comment,omitempty"`
	TweetID   *string   `json:"tweet,omitempty"`
	LikedBy   string    `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Target reports which entity the like points at.
func (l Like) Target() LikeTarget {
	switch {
	case l.VideoID != nil:
		return LikeTarget{Kind: LikeTargetVideo, ID: *l.VideoID}
	case l.CommentID != nil:
		return LikeTarget{Kind: LikeTargetComment, ID: *l.CommentID}
	case l.TweetID != nil:
		return LikeTarget{Kind: LikeTargetTweet, ID: *l.TweetID}
	}
	return LikeTarget{}
}

// NewLike builds a like record for target.
func NewLike(id, likedBy string, target LikeTarget, createdAt time.Time) Like {
	like := Like{ID: id, LikedBy: likedBy, CreatedAt: createdAt}
	targetID := target.ID
	switch target.Kind {
	case LikeTargetVideo:
		like.VideoID = &targetID
	case LikeTargetComment:
		like.CommentID = &targetID
	case LikeTargetTweet:
		like.TweetID = &targetID
	}
	return like
}

// Subscription links a subscriber to a channel (another user).
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ChannelStats aggregates a channel's dashboard counters.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// ChannelProfile is a user's public channel page as seen by a viewer.
type ChannelProfile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullName"`
	AvatarURL                 string `json:"avatar"`
	CoverImageURL             string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// VideoSort names the columns a video listing may be ordered by.
type VideoSort string

const (
	SortByCreatedAt VideoSort = "createdAt"
	SortByViews     VideoSort = "views"
	SortByDuration  VideoSort = "duration"
	SortByTitle     VideoSort = "title"
)

// VideoQuery filters and orders a video listing.
type VideoQuery struct {
	Search    string
	OwnerID   string
	ViewerID  string
	SortBy    VideoSort
	Ascending bool
	Page      int
	Limit     int
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
}

// NewPage computes pagination metadata for docs.
func NewPage[T any](docs []T, total int64, page, limit int) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       limit,
		Page:        page,
		TotalPages:  totalPages,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
	}
}

// Offset converts a 1-based page into a row offset.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// SessionTokens groups the credentials issued to an authenticated user.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
