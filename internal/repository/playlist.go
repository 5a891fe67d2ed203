package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
	"vidtube/internal/view"
)

type playlistRepository struct {
	playlists ds.Collection
}

func NewPlaylistRepository(store ds.Store) PlaylistRepository {
	return &playlistRepository{playlists: store.Collection(model.CollectionPlaylists)}
}

func (r *playlistRepository) Create(ctx context.Context, p *model.Playlist) error {
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	if p.Videos == nil {
		p.Videos = []bson.ObjectID{}
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	if err := r.playlists.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	return nil
}

func (r *playlistRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Playlist, error) {
	var p model.Playlist
	if err := r.playlists.FindOne(ctx, ds.Eq("_id", id), &p); err != nil {
		return nil, playlistErr(err, "get playlist")
	}
	return &p, nil
}

func (r *playlistRepository) Update(ctx context.Context, id, ownerID bson.ObjectID, name, description string) (*model.Playlist, error) {
	update := ds.Update{Set: map[string]any{"name": name, "description": description, "updatedAt": now()}}
	return r.findAndUpdate(ctx, owned(id, ownerID), update, model.ErrPlaylistNotFound)
}

func (r *playlistRepository) Delete(ctx context.Context, id, ownerID bson.ObjectID) (*model.Playlist, error) {
	var p model.Playlist
	if err := r.playlists.FindOneAndDelete(ctx, owned(id, ownerID), &p); err != nil {
		return nil, playlistErr(err, "delete playlist")
	}
	return &p, nil
}

// AddVideo only matches playlists that do not hold videoID yet, so two
// concurrent adds cannot both append it.
func (r *playlistRepository) AddVideo(ctx context.Context, id, ownerID, videoID bson.ObjectID) (*model.Playlist, error) {
	filter := ds.And(owned(id, ownerID), ds.Ne("videos", videoID))
	update := ds.Update{
		Push: map[string]any{"videos": videoID},
		Set:  map[string]any{"updatedAt": now()},
	}
	return r.findAndUpdate(ctx, filter, update, model.ErrVideoAlreadyInPlaylist)
}

func (r *playlistRepository) RemoveVideo(ctx context.Context, id, ownerID, videoID bson.ObjectID) (*model.Playlist, error) {
	filter := ds.And(owned(id, ownerID), ds.Eq("videos", videoID))
	update := ds.Update{
		Pull: map[string]any{"videos": videoID},
		Set:  map[string]any{"updatedAt": now()},
	}
	return r.findAndUpdate(ctx, filter, update, model.ErrVideoNotInPlaylist)
}

func (r *playlistRepository) PullVideoEverywhere(ctx context.Context, videoID bson.ObjectID) (int64, error) {
	res, err := r.playlists.UpdateMany(ctx, ds.Eq("videos", videoID), ds.Update{Pull: map[string]any{"videos": videoID}})
	if err != nil {
		return 0, fmt.Errorf("failed to pull video from playlists: %w", err)
	}
	return res.Modified, nil
}

func (r *playlistRepository) Detail(ctx context.Context, id bson.ObjectID) (*model.PlaylistView, error) {
	p, err := view.PlaylistDetail(id)
	if err != nil {
		return nil, err
	}
	views, err := r.aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, model.ErrPlaylistNotFound
	}
	return &views[0], nil
}

func (r *playlistRepository) ListByOwner(ctx context.Context, ownerID bson.ObjectID) ([]model.PlaylistView, error) {
	p, err := view.UserPlaylists(ownerID)
	if err != nil {
		return nil, err
	}
	return r.aggregate(ctx, p)
}

// aggregate runs a playlist view pipeline and restores the stored video
// order, which the join does not keep.
func (r *playlistRepository) aggregate(ctx context.Context, p ds.Pipeline) ([]model.PlaylistView, error) {
	docs, err := r.playlists.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}
	decoded, err := ds.DecodeAll[view.PlaylistDoc](docs)
	if err != nil {
		return nil, err
	}
	out := make([]model.PlaylistView, len(decoded))
	for i, d := range decoded {
		out[i] = d.PlaylistView
		out[i].Videos = view.OrderCards(d.Videos, d.VideoIDs, false)
	}
	return out, nil
}

func (r *playlistRepository) findAndUpdate(ctx context.Context, filter ds.Cond, update ds.Update, missing error) (*model.Playlist, error) {
	var p model.Playlist
	if err := r.playlists.FindOneAndUpdate(ctx, filter, update, &p); err != nil {
		if errors.Is(err, ds.ErrNotFound) {
			return nil, missing
		}
		return nil, fmt.Errorf("failed to update playlist: %w", err)
	}
	return &p, nil
}

func playlistErr(err error, op string) error {
	if errors.Is(err, ds.ErrNotFound) {
		return model.ErrPlaylistNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
