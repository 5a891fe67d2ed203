package handler

import (
	"net/http"

	"vidtube/internal/httputil"
	"vidtube/internal/service"
)

// SubscriptionHandler handles channel subscriptions.
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Toggle subscribes to or unsubscribes from a channel.
// POST /subscriptions/c/{channelId}
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	channelID, ok := pathID(w, r, "channelId")
	if !ok {
		return
	}

	result, err := h.subscriptionService.Toggle(r.Context(), userID, channelID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	message := "Unsubscribed successfully"
	if result.Subscribed {
		message = "Subscribed successfully"
	}
	httputil.WriteOK(w, result, message)
}

// Subscribers pages the subscribers of a channel.
// GET /subscriptions/c/{channelId}
func (h *SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "channelId")
	if !ok {
		return
	}
	page, err := h.subscriptionService.Subscribers(r.Context(), channelID, httputil.PageOptions(r))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, page, "Subscribers fetched successfully")
}

// SubscribedChannels pages the channels a user subscribes to.
// GET /subscriptions/u/{subscriberId}
func (h *SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	subscriberID, ok := pathID(w, r, "subscriberId")
	if !ok {
		return
	}
	page, err := h.subscriptionService.SubscribedChannels(r.Context(), subscriberID, httputil.PageOptions(r))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, page, "Subscribed channels fetched successfully")
}
