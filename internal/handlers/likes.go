package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Paxto2002/project-vidora/internal/models"
)

// LikeHandler toggles likes on videos, comments and tweets.
type LikeHandler struct {
	Likes   LikeStore
	Videos  VideoLookup
	NowFunc func() time.Time
}

type likeStatus struct {
	Liked bool `json:"liked"`
}

// ToggleVideo handles POST /api/v1/likes/video/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, models.LikeTargetVideo, "videoId", "Video not found")
}

// ToggleComment handles POST /api/v1/likes/comment/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, models.LikeTargetComment, "commentId", "Comment not found")
}

// ToggleTweet handles POST /api/v1/likes/tweet/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, models.LikeTargetTweet, "tweetId", "Tweet not found")
}

// toggle removes the viewer's like on the target if present, otherwise adds one.
// An added like answers 201, a removed one 200.
func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeTargetKind, param, notFound string) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, param)
	if err != nil {
		return err
	}

	if kind == models.LikeTargetVideo && h.Videos != nil {
		if _, err := visibleVideo(r.Context(), h.Videos, id, user.ID); err != nil {
			return err
		}
	}

	like := models.NewLike(uuid.NewString(), user.ID, models.LikeTarget{Kind: kind, ID: id}, nowFrom(h.NowFunc))
	added, err := h.Likes.Toggle(r.Context(), like)
	if err != nil {
		return storeError(err, notFound)
	}

	if added {
		return respond(w, r, http.StatusCreated, likeStatus{Liked: true}, "Liked successfully")
	}
	return respond(w, r, http.StatusOK, likeStatus{Liked: false}, "Unliked successfully")
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}

	videos, err := h.Likes.LikedVideos(r.Context(), user.ID)
	if err != nil {
		return err
	}
	if videos == nil {
		videos = []models.LikedVideo{}
	}
	return respond(w, r, http.StatusOK, videos, "Liked videos fetched successfully")
}
