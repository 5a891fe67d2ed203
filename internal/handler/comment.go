package handler

import (
	"net/http"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	commentService *service.CommentService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// List returns the comments of a video, newest first.
// GET /comments/{videoId}?page&limit
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}
	page, err := h.commentService.List(r.Context(), videoID, viewerID(r), httputil.PageOptions(r))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, page, "Comments fetched successfully")
}

// Add posts a comment on a video.
// POST /comments/{videoId}
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}

	var req model.ContentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	comment, err := h.commentService.Add(r.Context(), videoID, userID, req.Content)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, comment, "Comment added successfully")
}

// Update edits the caller's comment.
// PATCH /comments/c/{commentId}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}

	var req model.ContentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	comment, err := h.commentService.Update(r.Context(), commentID, userID, req.Content)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, comment, "Comment updated successfully")
}

// Delete removes the caller's comment.
// DELETE /comments/c/{commentId}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}
	if err := h.commentService.Delete(r.Context(), commentID, userID); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, struct{}{}, "Comment deleted successfully")
}
