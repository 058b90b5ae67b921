package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Paxto2002/project-vidora/internal/db"
	"github.com/Paxto2002/project-vidora/internal/models"
)

const commentColumns = `c.id, c.content, c.video_id, c.owner_id, c.created_at, c.updated_at`

func commentDest(c *models.Comment) []any {
	return []any{&c.ID, &c.Content, &c.VideoID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt}
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a comment. A missing video yields ErrNotFound.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, content, video_id, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.Content, comment.VideoID, comment.OwnerID, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		if mapped := translate(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// FindByID fetches a comment.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments c WHERE c.id = $1`, id))
}

// ListForVideo returns one page of a video's comments, newest first, with authors joined in.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID string, page, limit int) (models.Page[models.CommentView], error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Page[models.CommentView]{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID).Scan(&total); err != nil {
		return models.Page[models.CommentView]{}, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+`, o.id, o.username, o.full_name, o.avatar_url
        FROM comments c
        JOIN users o ON o.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC, c.id
        LIMIT $2 OFFSET $3
    `, videoID, limit, models.Offset(page, limit))
	if err != nil {
		return models.Page[models.CommentView]{}, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.CommentView
	for rows.Next() {
		var comment models.CommentView
		dest := append(commentDest(&comment.Comment), &comment.Owner.ID, &comment.Owner.Username, &comment.Owner.FullName, &comment.Owner.AvatarURL)
		if err := rows.Scan(dest...); err != nil {
			return models.Page[models.CommentView]{}, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return models.Page[models.CommentView]{}, fmt.Errorf("iterate comments: %w", err)
	}

	return models.NewPage(comments, total, page, limit), nil
}

// Update replaces a comment's content.
func (r *PostgresCommentRepository) Update(ctx context.Context, id, content string, at time.Time) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanComment(conn.QueryRow(ctx, `
        UPDATE comments c
        SET content = $2, updated_at = $3
        WHERE c.id = $1
        RETURNING `+commentColumns, id, content, at))
}

// Delete removes a comment and, by cascade, its likes.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "comments", id)
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var comment models.Comment
	if err := row.Scan(commentDest(&comment)...); err != nil {
		if db.IsNoRows(err) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("scan comment: %w", err)
	}
	return comment, nil
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
