package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Paxto2002/project-vidora/internal/apperr"
	"github.com/Paxto2002/project-vidora/internal/models"
)

// VideoLookup resolves a video by id.
type VideoLookup interface {
	FindByID(ctx context.Context, id string) (models.VideoView, error)
}

// CommentHandler serves video comments.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoLookup
	NowFunc  func() time.Time
}

type contentRequest struct {
	Content string `json:"content" validate:"required,notblank,max=2000"`
}

// List handles GET /api/v1/videos/{videoId}/comments.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}
	page, limit, err := pagination(r)
	if err != nil {
		return err
	}

	if _, err := visibleVideo(r.Context(), h.Videos, videoID, user.ID); err != nil {
		return err
	}

	comments, err := h.Comments.ListForVideo(r.Context(), videoID, page, limit)
	if err != nil {
		return err
	}
	return respond(w, r, http.StatusOK, comments, "Comments fetched successfully")
}

// Add handles POST /api/v1/videos/{videoId}/comments.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return err
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if _, err := visibleVideo(r.Context(), h.Videos, videoID, user.ID); err != nil {
		return err
	}

	now := nowFrom(h.NowFunc)
	comment := models.Comment{
		ID:        uuid.NewString(),
		Content:   strings.TrimSpace(req.Content),
		VideoID:   videoID,
		OwnerID:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(r.Context(), comment); err != nil {
		return storeError(err, "Video not found")
	}
	return respond(w, r, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /api/v1/comments/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, "commentId")
	if err != nil {
		return err
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	if err := h.authorize(r.Context(), id, user.ID); err != nil {
		return err
	}

	updated, err := h.Comments.Update(r.Context(), id, strings.TrimSpace(req.Content), nowFrom(h.NowFunc))
	if err != nil {
		return storeError(err, "Comment not found")
	}
	return respond(w, r, http.StatusOK, updated, "Comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, "commentId")
	if err != nil {
		return err
	}

	if err := h.authorize(r.Context(), id, user.ID); err != nil {
		return err
	}
	if err := h.Comments.Delete(r.Context(), id); err != nil {
		return storeError(err, "Comment not found")
	}
	return respond(w, r, http.StatusOK, struct{}{}, "Comment deleted successfully")
}

func (h CommentHandler) authorize(ctx context.Context, id, viewerID string) error {
	comment, err := h.Comments.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "Comment not found")
	}
	if comment.OwnerID != viewerID {
		return apperr.Forbidden("You are not the owner of this comment")
	}
	return nil
}
