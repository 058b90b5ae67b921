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

// UserFinder resolves a user by id.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// TweetHandler serves community posts.
type TweetHandler struct {
	Tweets  TweetStore
	Users   UserFinder
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	now := nowFrom(h.NowFunc)
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		Content:   strings.TrimSpace(req.Content),
		OwnerID:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Tweets.Create(r.Context(), tweet); err != nil {
		return storeError(err, "User not found")
	}
	return respond(w, r, http.StatusCreated, tweet, "Tweet created successfully")
}

// ListByUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) error {
	ownerID, err := pathID(r, "userId")
	if err != nil {
		return err
	}

	if _, err := h.Users.FindByID(r.Context(), ownerID); err != nil {
		return storeError(err, "User not found")
	}

	tweets, err := h.Tweets.ListByOwner(r.Context(), ownerID)
	if err != nil {
		return err
	}
	if tweets == nil {
		tweets = []models.Tweet{}
	}
	return respond(w, r, http.StatusOK, tweets, "Tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, "tweetId")
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

	updated, err := h.Tweets.Update(r.Context(), id, strings.TrimSpace(req.Content), nowFrom(h.NowFunc))
	if err != nil {
		return storeError(err, "Tweet not found")
	}
	return respond(w, r, http.StatusOK, updated, "Tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, "tweetId")
	if err != nil {
		return err
	}

	if err := h.authorize(r.Context(), id, user.ID); err != nil {
		return err
	}
	if err := h.Tweets.Delete(r.Context(), id); err != nil {
		return storeError(err, "Tweet not found")
	}
	return respond(w, r, http.StatusOK, struct{}{}, "Tweet deleted successfully")
}

func (h TweetHandler) authorize(ctx context.Context, id, viewerID string) error {
	tweet, err := h.Tweets.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "Tweet not found")
	}
	if tweet.OwnerID != viewerID {
		return apperr.Forbidden("You are not the owner of this tweet")
	}
	return nil
}
