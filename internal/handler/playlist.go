package handler

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
)

// PlaylistHandler serves user playlists.
type PlaylistHandler struct {
	playlistService *service.PlaylistService
}

func NewPlaylistHandler(playlistService *service.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{playlistService: playlistService}
}

// POST /playlist
func (h *PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.PlaylistRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	playlist, err := h.playlistService.Create(r.Context(), userID, &req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, playlist, "Playlist created successfully")
}

// GET /playlist/{playlistId}
func (h *PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := pathID(w, r, "playlistId")
	if !ok {
		return
	}
	playlist, err := h.playlistService.Get(r.Context(), playlistID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, playlist, "Playlist fetched successfully")
}

// ListByUser returns every playlist of a user. An empty list is a success.
// GET /playlist/user/{userId}
func (h *PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	playlists, err := h.playlistService.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, playlists, "User playlists fetched successfully")
}

// PATCH /playlist/{playlistId}
func (h *PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	playlistID, ok := pathID(w, r, "playlistId")
	if !ok {
		return
	}

	var req model.PlaylistRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	playlist, err := h.playlistService.Update(r.Context(), playlistID, userID, &req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, playlist, "Playlist updated successfully")
}

// DELETE /playlist/{playlistId}
func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	playlistID, ok := pathID(w, r, "playlistId")
	if !ok {
		return
	}
	if err := h.playlistService.Delete(r.Context(), playlistID, userID); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, struct{}{}, "Playlist deleted successfully")
}

// PATCH /playlist/add/{videoId}/{playlistId}
func (h *PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.changeVideos(w, r, h.playlistService.AddVideo, "Video added to playlist")
}

// PATCH /playlist/remove/{videoId}/{playlistId}
func (h *PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.changeVideos(w, r, h.playlistService.RemoveVideo, "Video removed from playlist")
}

func (h *PlaylistHandler) changeVideos(
	w http.ResponseWriter,
	r *http.Request,
	change func(ctx context.Context, playlistID, videoID, userID bson.ObjectID) (*model.Playlist, error),
	message string,
) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}
	playlistID, ok := pathID(w, r, "playlistId")
	if !ok {
		return
	}

	playlist, err := change(r.Context(), playlistID, videoID, userID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w, playlist, message)
}
