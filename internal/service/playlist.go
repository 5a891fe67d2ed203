package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/model"
	"vidtube/internal/repository"
)

type PlaylistService struct {
	playlists repository.PlaylistRepository
	videos    repository.VideoRepository
	users     repository.UserRepository
}

func NewPlaylistService(playlists repository.PlaylistRepository, videos repository.VideoRepository, users repository.UserRepository) *PlaylistService {
	return &PlaylistService{
		playlists: playlists,
		videos:    videos,
		users:     users,
	}
}

func (s *PlaylistService) Create(ctx context.Context, ownerID bson.ObjectID, req *model.PlaylistRequest) (*model.Playlist, error) {
	name, description, err := playlistFields(req)
	if err != nil {
		return nil, err
	}
	if err := model.RequireIDs(ownerID); err != nil {
		return nil, err
	}

	playlist := &model.Playlist{
		Name:        name,
		Description: description,
		Owner:       ownerID,
	}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

// Get returns the playlist with its videos in playlist order and totals.
func (s *PlaylistService) Get(ctx context.Context, playlistID bson.ObjectID) (*model.PlaylistView, error) {
	if err := model.RequireIDs(playlistID); err != nil {
		return nil, err
	}
	return s.playlists.Detail(ctx, playlistID)
}

func (s *PlaylistService) ListByUser(ctx context.Context, userID bson.ObjectID) ([]model.PlaylistView, error) {
	if err := model.RequireIDs(userID); err != nil {
		return nil, err
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}
	return s.playlists.ListByOwner(ctx, userID)
}

func (s *PlaylistService) Update(ctx context.Context, playlistID, userID bson.ObjectID, req *model.PlaylistRequest) (*model.Playlist, error) {
	name, description, err := playlistFields(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, playlistID, userID); err != nil {
		return nil, err
	}
	return s.playlists.Update(ctx, playlistID, userID, name, description)
}

func (s *PlaylistService) Delete(ctx context.Context, playlistID, userID bson.ObjectID) error {
	if _, err := s.authorize(ctx, playlistID, userID); err != nil {
		return err
	}
	_, err := s.playlists.Delete(ctx, playlistID, userID)
	return err
}

// AddVideo appends the video. Adding a video twice is a conflict and leaves
// the playlist unchanged.
func (s *PlaylistService) AddVideo(ctx context.Context, playlistID, videoID, userID bson.ObjectID) (*model.Playlist, error) {
	if err := model.RequireIDs(videoID); err != nil {
		return nil, err
	}
	playlist, err := s.authorize(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}
	visible, err := s.videos.VisibleTo(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, model.ErrVideoNotFound
	}
	for _, id := range playlist.Videos {
		if id == videoID {
			return nil, model.ErrVideoAlreadyInPlaylist
		}
	}
	return s.playlists.AddVideo(ctx, playlistID, userID, videoID)
}

func (s *PlaylistService) RemoveVideo(ctx context.Context, playlistID, videoID, userID bson.ObjectID) (*model.Playlist, error) {
	if err := model.RequireIDs(videoID); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, playlistID, userID); err != nil {
		return nil, err
	}
	return s.playlists.RemoveVideo(ctx, playlistID, userID, videoID)
}

func (s *PlaylistService) authorize(ctx context.Context, playlistID, userID bson.ObjectID) (*model.Playlist, error) {
	if err := model.RequireIDs(playlistID, userID); err != nil {
		return nil, err
	}
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.Owner != userID {
		return nil, model.ErrNotOwner
	}
	return playlist, nil
}

func playlistFields(req *model.PlaylistRequest) (string, string, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" || description == "" {
		return "", "", model.ErrPlaylistFieldsRequired
	}
	return name, description, nil
}
