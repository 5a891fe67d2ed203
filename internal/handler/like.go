package handler

import (
	"net/http"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
)

// LikeHandler toggles likes and lists liked videos.
type LikeHandler struct {
	likeService *service.LikeService
}

func NewLikeHandler(likeService *service.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// POST /likes/toggle/v/{videoId}
func (h *LikeHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, model.LikeTargetVideo, "videoId")
}

// POST /likes/toggle/c/{commentId}
func (h *LikeHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, model.LikeTargetComment, "commentId")
}

// POST /likes/toggle/t/{tweetId}
func (h *LikeHandler) ToggleTweetLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, model.LikeTargetTweet, "tweetId")
}

func (h *LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind model.LikeTarget, param string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, param)
	if !ok {
		return
	}

	result, err := h.likeService.Toggle(r.Context(), userID, kind, targetID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	message := "Like removed"
	if result.Liked {
		message = "Like added"
	}
	httputil.WriteOK(w, result, message)
}

// LikedVideos pages the caller's liked videos. An empty page is a success.
// GET /likes/videos
func (h *LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, err := h.likeService.LikedVideos(r.Context(), userID, httputil.PageOptions(r))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, page, "Liked videos fetched successfully")
}
