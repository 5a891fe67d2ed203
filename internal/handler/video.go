package handler

import (
	"net/http"
	"strconv"
	"strings"

	"vidtube/internal/config"
	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
)

// VideoHandler serves the video catalogue.
type VideoHandler struct {
	videoService *service.VideoService
	uploads      config.UploadConfig
}

func NewVideoHandler(videoService *service.VideoService, uploads config.UploadConfig) *VideoHandler {
	return &VideoHandler{videoService: videoService, uploads: uploads}
}

// List returns one page of the feed.
// GET /videos?page&limit&query&sortBy&sortType&userId
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := httputil.QueryID(r, "userId")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	opts := httputil.PageOptions(r)
	q := r.URL.Query()
	page, err := h.videoService.List(r.Context(), model.VideoQuery{
		Page:     opts.Page,
		Limit:    opts.Limit,
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		UserID:   ownerID,
		ViewerID: viewerID(r),
	})
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, page, "Videos fetched successfully")
}

// Publish uploads a new video with its thumbnail.
// POST /videos
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	maxFormSize := h.uploads.MaxVideoBytes + h.uploads.MaxImageBytes + multipartOverhead
	if err := httputil.ParseMultipart(w, r, maxFormSize); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	req := model.PublishVideoRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httputil.WriteBadRequest(w, "Duration must be a number of seconds")
			return
		}
		req.Duration = &d
	}

	videoFile, err := httputil.FormFile(r, "videoFile")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	thumbnail, err := httputil.FormFile(r, "thumbnail")
	if err != nil {
		httputil.CloseFiles(videoFile)
		httputil.WriteServiceError(w, r, err)
		return
	}
	defer httputil.CloseFiles(videoFile, thumbnail)

	video, err := h.videoService.Publish(r.Context(), userID, &req, videoFile, thumbnail)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, video, "Video published successfully")
}

// Get returns the video detail and records a view for signed-in callers.
// GET /videos/{videoId}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}
	detail, err := h.videoService.GetByID(r.Context(), videoID, viewerID(r))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, detail, "Video fetched successfully")
}

// Update edits title and description and optionally swaps the thumbnail.
// The body is multipart when a thumbnail is sent and JSON otherwise.
// PATCH /videos/{videoId}
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}

	var (
		req       model.UpdateVideoRequest
		thumbnail *model.FileInput
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := httputil.ParseMultipart(w, r, h.uploads.MaxImageBytes+multipartOverhead); err != nil {
			httputil.WriteServiceError(w, r, err)
			return
		}
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")
		file, err := httputil.FormFile(r, "thumbnail")
		if err != nil {
			httputil.WriteServiceError(w, r, err)
			return
		}
		thumbnail = file
		defer httputil.CloseFiles(thumbnail)
	} else if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	video, err := h.videoService.Update(r.Context(), videoID, userID, &req, thumbnail)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, video, "Video updated successfully")
}

// Delete removes the video; dependants are purged by the event worker.
// DELETE /videos/{videoId}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}
	if err := h.videoService.Delete(r.Context(), videoID, userID); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, struct{}{}, "Video deleted successfully")
}

// TogglePublish flips the published flag.
// PATCH /videos/toggle/publish/{videoId}
func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}
	video, err := h.videoService.TogglePublish(r.Context(), videoID, userID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, video, "Video publish status toggled")
}
