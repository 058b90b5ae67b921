package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Paxto2002/project-vidora/internal/apperr"
	"github.com/Paxto2002/project-vidora/internal/models"
)

// SubscriptionHandler serves channel subscriptions.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserFinder
	NowFunc       func() time.Time
}

type subscriptionStatus struct {
	Subscribed bool `json:"subscribed"`
}

type subscriberList struct {
	Count       int                 `json:"count"`
	Subscribers []models.PublicUser `json:"subscribers"`
}

type channelList struct {
	Count    int                 `json:"count"`
	Channels []models.PublicUser `json:"channels"`
}

// Toggle handles POST /api/v1/subscriptions/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	channelID, err := pathID(r, "channelId")
	if err != nil {
		return err
	}
	if channelID == user.ID {
		return apperr.Validation("You cannot subscribe to your own channel")
	}

	added, err := h.Subscriptions.Toggle(r.Context(), models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: user.ID,
		ChannelID:    channelID,
		CreatedAt:    nowFrom(h.NowFunc),
	})
	if err != nil {
		return storeError(err, "Channel not found")
	}

	if added {
		return respond(w, r, http.StatusCreated, subscriptionStatus{Subscribed: true}, "Subscribed successfully")
	}
	return respond(w, r, http.StatusOK, subscriptionStatus{Subscribed: false}, "Unsubscribed successfully")
}

// Subscribers handles GET /api/v1/subscriptions/{channelId}/subscribers.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) error {
	channelID, err := pathID(r, "channelId")
	if err != nil {
		return err
	}
	if _, err := h.Users.FindByID(r.Context(), channelID); err != nil {
		return storeError(err, "Channel not found")
	}

	subscribers, err := h.Subscriptions.Subscribers(r.Context(), channelID)
	if err != nil {
		return err
	}
	if subscribers == nil {
		subscribers = []models.PublicUser{}
	}
	return respond(w, r, http.StatusOK, subscriberList{Count: len(subscribers), Subscribers: subscribers}, "Subscribers fetched successfully")
}

// Channels handles GET /api/v1/subscriptions/user/{subscriberId}/channels.
func (h SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) error {
	subscriberID, err := pathID(r, "subscriberId")
	if err != nil {
		return err
	}
	if _, err := h.Users.FindByID(r.Context(), subscriberID); err != nil {
		return storeError(err, "User not found")
	}

	channels, err := h.Subscriptions.SubscribedChannels(r.Context(), subscriberID)
	if err != nil {
		return err
	}
	if channels == nil {
		channels = []models.PublicUser{}
	}
	return respond(w, r, http.StatusOK, channelList{Count: len(channels), Channels: channels}, "Subscribed channels fetched successfully")
}
