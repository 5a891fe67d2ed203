package handler

import (
	"net/http"

	"vidtube/internal/httputil"
	"vidtube/internal/service"
)

// DashboardHandler serves the caller's channel statistics.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GET /dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	stats, err := h.dashboardService.Stats(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, stats, "Channel stats fetched successfully")
}

// Videos lists the caller's own videos, drafts included.
// GET /dashboard/videos
func (h *DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, err := h.dashboardService.Videos(r.Context(), userID, httputil.PageOptions(r))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, page, "Channel videos fetched successfully")
}
