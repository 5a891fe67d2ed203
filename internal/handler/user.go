package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/config"
	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
)

// UserHandler serves account settings, channel profiles and watch history.
type UserHandler struct {
	userService *service.UserService
	uploads     config.UploadConfig
}

func NewUserHandler(userService *service.UserService, uploads config.UploadConfig) *UserHandler {
	return &UserHandler{userService: userService, uploads: uploads}
}

// UpdateAccount changes the full name and email.
// PATCH /users/update-account
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateAccountRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	user, err := h.userService.UpdateAccount(r.Context(), userID, &req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, user, "Account details updated successfully")
}

// UpdateAvatar replaces the avatar image.
// PATCH /users/avatar
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", h.userService.UpdateAvatar, "Avatar image updated successfully")
}

// UpdateCoverImage replaces the cover image.
// PATCH /users/cover-image
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", h.userService.UpdateCoverImage, "Cover image updated successfully")
}

type imageUpdater func(ctx context.Context, userID bson.ObjectID, file *model.FileInput) (*model.User, error)

func (h *UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, update imageUpdater, message string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := httputil.ParseMultipart(w, r, h.uploads.MaxImageBytes+multipartOverhead); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	file, err := httputil.FormFile(r, field)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	defer httputil.CloseFiles(file)

	user, err := update(r.Context(), userID, file)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, user, message)
}

// ChannelProfile returns the public channel with subscription counters.
// GET /users/c/{userName}
func (h *UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.ChannelProfile(r.Context(), chi.URLParam(r, "userName"), viewerID(r))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, profile, "User channel fetched successfully")
}

// WatchHistory lists the caller's watched videos, most recent first.
// GET /users/history
func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	history, err := h.userService.WatchHistory(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, history, "Watch history fetched successfully")
}
