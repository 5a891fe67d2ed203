package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/view"
)

type likeRepository struct {
	likes ds.Collection
}

func NewLikeRepository(store ds.Store) LikeRepository {
	return &likeRepository{likes: store.Collection(model.CollectionLikes)}
}

// Toggle deletes the like if it exists, otherwise inserts it. Each step is a
// single atomic write; a duplicate key on insert means a concurrent toggle
// already created the like, which resolves to liked.
func (r *likeRepository) Toggle(ctx context.Context, userID bson.ObjectID, kind model.LikeTarget, targetID bson.ObjectID) (*model.LikeToggleResult, error) {
	filter := ds.And(
		ds.Eq("likedBy", userID),
		ds.Eq("targetKind", string(kind)),
		ds.Eq("targetId", targetID),
	)

	err := r.likes.FindOneAndDelete(ctx, filter, nil)
	if err == nil {
		return &model.LikeToggleResult{Liked: false}, nil
	}
	if !errors.Is(err, ds.ErrNotFound) {
		return nil, fmt.Errorf("failed to remove like: %w", err)
	}

	like := &model.Like{
		ID:         bson.NewObjectID(),
		LikedBy:    userID,
		TargetKind: kind,
		TargetID:   targetID,
		CreatedAt:  now(),
	}
	if err := r.likes.InsertOne(ctx, like); err != nil {
		if !errors.Is(err, ds.ErrDuplicateKey) {
			return nil, fmt.Errorf("failed to insert like: %w", err)
		}
		var existing model.Like
		if err := r.likes.FindOne(ctx, filter, &existing); err != nil {
			return nil, fmt.Errorf("failed to load concurrent like: %w", err)
		}
		like = &existing
	}
	return &model.LikeToggleResult{Liked: true, Like: like}, nil
}

// LikedVideos pages a user's liked videos, most recently liked first.
func (r *likeRepository) LikedVideos(ctx context.Context, userID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.LikedVideo], error) {
	p, err := view.LikedVideos(userID)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate[model.LikedVideo](ctx, r.likes, sortAfterMatch(p, ds.Desc("createdAt"), ds.Desc("_id")), opts)
}

func (r *likeRepository) DeleteByTargets(ctx context.Context, kind model.LikeTarget, targetIDs ...bson.ObjectID) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}
	n, err := r.likes.DeleteMany(ctx, ds.And(
		ds.Eq("targetKind", string(kind)),
		ds.In("targetId", ds.IDs(targetIDs)...),
	))
	if err != nil {
		return 0, fmt.Errorf("failed to delete likes: %w", err)
	}
	return n, nil
}
