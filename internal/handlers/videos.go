package handlers

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Paxto2002/project-vidora/internal/apperr"
	"github.com/Paxto2002/project-vidora/internal/logging"
	"github.com/Paxto2002/project-vidora/internal/media"
	"github.com/Paxto2002/project-vidora/internal/models"
)

// WatchRecorder records that a user watched a video.
type WatchRecorder interface {
	AddToWatchHistory(ctx context.Context, userID, videoID string, at time.Time) error
}

// VideoHandler serves video publishing, listing and owner-only mutations.
type VideoHandler struct {
	Videos  VideoStore
	History WatchRecorder
	Media   MediaUploader
	Janitor MediaJanitor
	Uploads Uploads
	NowFunc func() time.Time
}

type listVideosRequest struct {
	Query    string `validate:"max=200"`
	SortBy   string `validate:"omitempty,oneof=createdAt views duration title"`
	SortType string `validate:"omitempty,oneof=asc desc"`
}

type publishVideoRequest struct {
	Title       string `form:"title" validate:"required,notblank,max=200"`
	Description string `form:"description" validate:"required,notblank,max=5000"`
}

type updateVideoRequest struct {
	Title       *string `json:"title" form:"title" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description" form:"description" validate:"omitempty,notblank,max=5000"`
}

type publishStatus struct {
	IsPublished bool `json:"isPublished"`
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}

	page, limit, err := pagination(r)
	if err != nil {
		return err
	}
	ownerID, err := optionalQueryID(r, "userId")
	if err != nil {
		return err
	}

	q := r.URL.Query()
	req := listVideosRequest{
		Query:    strings.TrimSpace(q.Get("query")),
		SortBy:   strings.TrimSpace(q.Get("sortBy")),
		SortType: strings.ToLower(strings.TrimSpace(q.Get("sortType"))),
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	sortBy := models.VideoSort(req.SortBy)
	if sortBy == "" {
		sortBy = models.SortByCreatedAt
	}

	videos, err := h.Videos.List(r.Context(), models.VideoQuery{
		Search:    req.Query,
		OwnerID:   ownerID,
		ViewerID:  user.ID,
		SortBy:    sortBy,
		Ascending: req.SortType == "asc",
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return err
	}
	return respond(w, r, http.StatusOK, videos, "Videos fetched successfully")
}

// Publish handles POST /api/v1/videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, err := viewer(r)
	if err != nil {
		return err
	}

	cleanup, err := h.Uploads.parseMultipart(w, r)
	defer cleanup()
	if err != nil {
		return err
	}

	req := publishVideoRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	videoPath, ok, err := h.Uploads.spool(r, "videoFile")
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("Video file is required")
	}

	thumbnailPath, hasThumbnail, err := h.Uploads.spool(r, "thumbnail")
	if err != nil {
		removeSpooled(r, videoPath)
		return err
	}

	asset, err := h.Media.Upload(ctx, videoPath, media.KindVideo)
	if err != nil {
		if hasThumbnail {
			removeSpooled(r, thumbnailPath)
		}
		return apperr.Upstream("Video upload failed", err)
	}

	thumbnailURL := ""
	if hasThumbnail {
		thumb, err := h.Media.Upload(ctx, thumbnailPath, media.KindThumbnail)
		if err != nil {
			logger.Warn("thumbnail upload failed", "error", err)
		} else {
			thumbnailURL = thumb.URL
		}
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     asset.URL,
		ThumbnailURL: thumbnailURL,
		Duration:     asset.Duration,
		IsPublished:  true,
		OwnerID:      user.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Videos.Create(ctx, video); err != nil {
		discardMedia(ctx, h.Janitor, video.VideoURL, video.ThumbnailURL)
		return storeError(err, "User does not exist")
	}

	logger.Info("video published", "video_id", video.ID, "duration", video.Duration)
	return respond(w, r, http.StatusCreated, models.VideoView{Video: video, Owner: user.Public()}, "Video published successfully")
}

// Get handles GET /api/v1/videos/{videoId}. Viewing counts a view and records watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := viewer(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, "videoId")
	if err != nil {
		return err
	}

	video, err := visibleVideo(ctx, h.Videos, id, user.ID)
	if err != nil {
		return err
	}

	if err := h.Videos.IncrementViews(ctx, id); err != nil {
		return storeError(err, "Video not found")
	}
	video.Views++

	if h.History != nil {
		if err := h.History.AddToWatchHistory(ctx, user.ID, id, h.now()); err != nil {
			return storeError(err, "Video not found")
		}
	}
	return respond(w, r, http.StatusOK, video, "Video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}. It accepts JSON, or a multipart form when a
// new thumbnail is sent.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := viewer(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, "videoId")
	if err != nil {
		return err
	}

	var req updateVideoRequest
	multipart := isMultipart(r)
	if multipart {
		cleanup, err := h.Uploads.parseMultipart(w, r)
		defer cleanup()
		if err != nil {
			return err
		}
		req.Title = formValuePtr(r, "title")
		req.Description = formValuePtr(r, "description")
		if err := validateStruct(req); err != nil {
			return err
		}
	} else if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Title == nil && req.Description == nil && !hasFile(r, "thumbnail") {
		return apperr.Validation("At least one of title, description or thumbnail is required")
	}

	video, err := h.ownedVideo(ctx, id, user.ID)
	if err != nil {
		return err
	}

	thumbnailURL := ""
	if multipart {
		path, ok, err := h.Uploads.spool(r, "thumbnail")
		if err != nil {
			return err
		}
		if ok {
			asset, err := h.Media.Upload(ctx, path, media.KindThumbnail)
			if err != nil {
				return apperr.Upstream("Thumbnail upload failed", err)
			}
			thumbnailURL = asset.URL
		}
	}
	previousThumbnail := ""
	if req.Title != nil {
		video.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		video.Description = strings.TrimSpace(*req.Description)
	}
	if thumbnailURL != "" {
		previousThumbnail = video.ThumbnailURL
		video.ThumbnailURL = thumbnailURL
	}
	video.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, video.Video); err != nil {
		discardMedia(ctx, h.Janitor, thumbnailURL)
		return storeError(err, "Video not found")
	}
	discardMedia(ctx, h.Janitor, previousThumbnail)
	return respond(w, r, http.StatusOK, video, "Video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := viewer(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, "videoId")
	if err != nil {
		return err
	}

	video, err := h.ownedVideo(ctx, id, user.ID)
	if err != nil {
		return err
	}
	if err := h.Videos.Delete(ctx, id); err != nil {
		return storeError(err, "Video not found")
	}

	discardMedia(ctx, h.Janitor, video.VideoURL, video.ThumbnailURL)
	return respond(w, r, http.StatusOK, struct{}{}, "Video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/toggle-publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := viewer(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, "videoId")
	if err != nil {
		return err
	}

	video, err := h.ownedVideo(ctx, id, user.ID)
	if err != nil {
		return err
	}
	video.IsPublished = !video.IsPublished
	video.UpdatedAt = h.now()
	if err := h.Videos.Update(ctx, video.Video); err != nil {
		return storeError(err, "Video not found")
	}
	return respond(w, r, http.StatusOK, publishStatus{IsPublished: video.IsPublished}, "Publish status toggled")
}

// visibleVideo loads a video the viewer may see. A draft is reported missing to everyone
// except its owner.
func visibleVideo(ctx context.Context, videos VideoLookup, id, viewerID string) (models.VideoView, error) {
	video, err := videos.FindByID(ctx, id)
	if err != nil {
		return models.VideoView{}, storeError(err, "Video not found")
	}
	if !video.IsPublished && video.OwnerID != viewerID {
		return models.VideoView{}, apperr.NotFound("Video not found")
	}
	return video, nil
}

// ownedVideo loads a video and requires the viewer to own it.
func (h VideoHandler) ownedVideo(ctx context.Context, id, viewerID string) (models.VideoView, error) {
	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		return models.VideoView{}, storeError(err, "Video not found")
	}
	if video.OwnerID != viewerID {
		return models.VideoView{}, apperr.Forbidden("You are not the owner of this video")
	}
	return video, nil
}

func (h VideoHandler) now() time.Time {
	return nowFrom(h.NowFunc)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func formValuePtr(r *http.Request, name string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func hasFile(r *http.Request, name string) bool {
	return r.MultipartForm != nil && len(r.MultipartForm.File[name]) > 0
}
