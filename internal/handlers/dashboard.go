package handlers

import (
	"net/http"

	"github.com/Paxto2002/project-vidora/internal/models"
)

// DashboardHandler serves the viewer's channel dashboard.
type DashboardHandler struct {
	Dashboard DashboardStore
}

// Stats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}

	stats, err := h.Dashboard.ChannelStats(r.Context(), user.ID)
	if err != nil {
		return err
	}
	return respond(w, r, http.StatusOK, stats, "Channel stats fetched successfully")
}

// Videos handles GET /api/v1/dashboard/videos.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}

	videos, err := h.Dashboard.ChannelVideos(r.Context(), user.ID)
	if err != nil {
		return err
	}
	if videos == nil {
		videos = []models.ChannelVideo{}
	}
	return respond(w, r, http.StatusOK, videos, "Channel videos fetched successfully")
}
