package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Paxto2002/project-vidora/internal/db"
	"github.com/Paxto2002/project-vidora/internal/models"
)

var errNoLikeTarget = errors.New("like has no target")

var likeTargetColumns = map[models.LikeTargetKind]string{
	models.LikeTargetVideo:   "video_id",
	models.LikeTargetComment: "comment_id",
	models.LikeTargetTweet:   "tweet_id",
}

// toggleStatement pairs the delete that undoes a link with the insert that creates it.
type toggleStatement struct {
	remove     string
	removeArgs []any
	insert     string
	insertArgs []any
}

// toggle deletes an existing link or creates a missing one and reports whether the link now
// exists. The insert ignores unique violations, so a concurrent toggle that lost the race to
// create the link still reports it as added and never produces a second row.
func toggle(ctx context.Context, pool db.Pool, stmt toggleStatement) (bool, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, stmt.remove, stmt.removeArgs...)
	if err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	if _, err := conn.Exec(ctx, stmt.insert, stmt.insertArgs...); err != nil {
		if mapped := translate(err); mapped != nil {
			return false, mapped
		}
		return false, fmt.Errorf("insert link: %w", err)
	}
	return true, nil
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle removes the viewer's like on the target or adds one. It returns true when the like
// exists afterwards. A missing target yields ErrNotFound.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, like models.Like) (bool, error) {
	target := like.Target()
	column, ok := likeTargetColumns[target.Kind]
	if !ok {
		return false, errNoLikeTarget
	}

	return toggle(ctx, r.pool, toggleStatement{
		remove:     `DELETE FROM likes WHERE liked_by = $1 AND ` + column + ` = $2`,
		removeArgs: []any{like.LikedBy, target.ID},
		insert: `
            INSERT INTO likes (id, liked_by, ` + column + `, created_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT DO NOTHING`,
		insertArgs: []any{like.ID, like.LikedBy, target.ID, like.CreatedAt},
	})
}

// LikedVideos returns the videos userID liked, newest like first.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoViewColumns+`, l.created_at
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE l.liked_by = $1
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	liked := []models.LikedVideo{}
	for rows.Next() {
		var video models.LikedVideo
		dest := append(videoViewDest(&video.VideoView), &video.LikedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		liked = append(liked, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return liked, nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle removes or adds the subscription and returns true when it exists afterwards.
// A missing channel yields ErrNotFound and a self-subscription ErrInvalid.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, sub models.Subscription) (bool, error) {
	return toggle(ctx, r.pool, toggleStatement{
		remove:     `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		removeArgs: []any{sub.SubscriberID, sub.ChannelID},
		insert: `
            INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT DO NOTHING`,
		insertArgs: []any{sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt},
	})
}

// Subscribers lists the users subscribed to channelID.
func (r *PostgresSubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.PublicUser, error) {
	return r.listUsers(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// SubscribedChannels lists the channels subscriberID follows.
func (r *PostgresSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicUser, error) {
	return r.listUsers(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) listUsers(ctx context.Context, query, id string) ([]models.PublicUser, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	users := []models.PublicUser{}
	for rows.Next() {
		var user models.PublicUser
		if err := rows.Scan(&user.ID, &user.Username, &user.FullName, &user.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan subscription user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return users, nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
