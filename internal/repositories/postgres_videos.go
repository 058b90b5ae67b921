package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Paxto2002/project-vidora/internal/db"
	"github.com/Paxto2002/project-vidora/internal/models"
)

const videoColumns = `v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url, v.duration, v.views, v.is_published, v.created_at, v.updated_at`

const videoViewColumns = videoColumns + `, o.id, o.username, o.full_name, o.avatar_url`

var videoSortColumns = map[models.VideoSort]string{
	models.SortByCreatedAt: "v.created_at",
	models.SortByViews:     "v.views",
	models.SortByDuration:  "v.duration",
	models.SortByTitle:     "v.title",
}

func videoDest(v *models.Video) []any {
	return []any{
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
	}
}

func videoViewDest(v *models.VideoView) []any {
	return append(videoDest(&v.Video), &v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL)
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if mapped := translate(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video with its owner's public projection.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.VideoView, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoView{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoViewColumns+`
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE v.id = $1
    `, id)

	var video models.VideoView
	if err := row.Scan(videoViewDest(&video)...); err != nil {
		if db.IsNoRows(err) {
			return models.VideoView{}, ErrNotFound
		}
		return models.VideoView{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// List returns one page of videos. Unpublished videos are visible only to their owner.
func (r *PostgresVideoRepository) List(ctx context.Context, query models.VideoQuery) (models.Page[models.VideoView], error) {
	where, args := videoFilter(query)

	sortColumn, ok := videoSortColumns[query.SortBy]
	if !ok {
		sortColumn = videoSortColumns[models.SortByCreatedAt]
	}
	direction := "DESC"
	if query.Ascending {
		direction = "ASC"
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Page[models.VideoView]{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos v WHERE `+where, args...).Scan(&total); err != nil {
		return models.Page[models.VideoView]{}, fmt.Errorf("count videos: %w", err)
	}

	limitArg := len(args) + 1
	pageArgs := append(args, query.Limit, models.Offset(query.Page, query.Limit))
	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE %s
        ORDER BY %s %s, v.id
        LIMIT $%d OFFSET $%d
    `, videoViewColumns, where, sortColumn, direction, limitArg, limitArg+1), pageArgs...)
	if err != nil {
		return models.Page[models.VideoView]{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.VideoView
	for rows.Next() {
		var video models.VideoView
		if err := rows.Scan(videoViewDest(&video)...); err != nil {
			return models.Page[models.VideoView]{}, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return models.Page[models.VideoView]{}, fmt.Errorf("iterate videos: %w", err)
	}

	return models.NewPage(videos, total, query.Page, query.Limit), nil
}

func videoFilter(query models.VideoQuery) (string, []any) {
	args := []any{query.ViewerID}
	clauses := []string{"(v.is_published OR v.owner_id = $1)"}

	if search := strings.TrimSpace(query.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		clauses = append(clauses, fmt.Sprintf("v.title ILIKE $%d", len(args)))
	}
	if query.OwnerID != "" {
		args = append(args, query.OwnerID)
		clauses = append(clauses, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Update persists the mutable fields of video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, is_published = $5, updated_at = $6
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.ThumbnailURL, video.IsPublished, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a video. Comments, likes and watch-history entries cascade.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "videos", id)
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// deleteByID removes the row with id from table. table is always a package constant.
func deleteByID(ctx context.Context, pool db.Pool, table, id string) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
