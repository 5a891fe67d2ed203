package handler

import (
	"net/http"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
)

// TweetHandler serves short text posts on a channel.
type TweetHandler struct {
	tweetService *service.TweetService
}

func NewTweetHandler(tweetService *service.TweetService) *TweetHandler {
	return &TweetHandler{tweetService: tweetService}
}

// Create posts a tweet.
// POST /tweets
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.ContentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	tweet, err := h.tweetService.Create(r.Context(), userID, req.Content)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, tweet, "Tweet created successfully")
}

// ListByUser pages a user's tweets.
// GET /tweets/user/{userId}
func (h *TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	page, err := h.tweetService.ListByUser(r.Context(), userID, viewerID(r), httputil.PageOptions(r))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, page, "Tweets fetched successfully")
}

// PATCH /tweets/{tweetId}
func (h *TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tweetID, ok := pathID(w, r, "tweetId")
	if !ok {
		return
	}

	var req model.ContentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	tweet, err := h.tweetService.Update(r.Context(), tweetID, userID, req.Content)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, tweet, "Tweet updated successfully")
}

// DELETE /tweets/{tweetId}
func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tweetID, ok := pathID(w, r, "tweetId")
	if !ok {
		return
	}
	if err := h.tweetService.Delete(r.Context(), tweetID, userID); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, struct{}{}, "Tweet deleted successfully")
}
