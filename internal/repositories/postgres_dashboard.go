package repositories

import (
	"context"
	"fmt"

	"github.com/Paxto2002/project-vidora/internal/db"
	"github.com/Paxto2002/project-vidora/internal/models"
)

// PostgresDashboardRepository aggregates channel statistics in PostgreSQL.
type PostgresDashboardRepository struct {
	pool db.Pool
}

// NewPostgresDashboardRepository constructs a dashboard repository backed by PostgreSQL.
func NewPostgresDashboardRepository(pool db.Pool) *PostgresDashboardRepository {
	return &PostgresDashboardRepository{pool: pool}
}

// ChannelStats returns the owner's counters. Each counter is zero when nothing matches.
func (r *PostgresDashboardRepository) ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// SUM yields DECIMAL on CockroachDB, hence the cast.
	row := conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM videos WHERE owner_id = $1),
            (SELECT COALESCE(SUM(views), 0)::BIGINT FROM videos WHERE owner_id = $1),
            (SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1),
            (SELECT COUNT(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.owner_id = $1)
    `, ownerID)

	var stats models.ChannelStats
	if err := row.Scan(&stats.TotalVideos, &stats.TotalViews, &stats.TotalSubscribers, &stats.TotalLikes); err != nil {
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}

	return stats, nil
}

// ChannelVideos returns every video of the owner, newest first, with its like count.
func (r *PostgresDashboardRepository) ChannelVideos(ctx context.Context, ownerID string) ([]models.ChannelVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`,
            (SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id)
        FROM videos v
        WHERE v.owner_id = $1
        ORDER BY v.created_at DESC, v.id
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query channel videos: %w", err)
	}
	defer rows.Close()

	videos := []models.ChannelVideo{}
	for rows.Next() {
		var video models.ChannelVideo
		dest := append(videoDest(&video.Video), &video.LikeCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan channel video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel videos: %w", err)
	}

	return videos, nil
}

var _ DashboardRepository = (*PostgresDashboardRepository)(nil)
