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

type commentRepository struct {
	comments ds.Collection
}

func NewCommentRepository(store ds.Store) CommentRepository {
	return &commentRepository{comments: store.Collection(model.CollectionComments)}
}

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	if err := r.comments.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Comment, error) {
	var c model.Comment
	if err := r.comments.FindOne(ctx, ds.Eq("_id", id), &c); err != nil {
		return nil, commentErr(err, "get comment")
	}
	return &c, nil
}

func (r *commentRepository) Update(ctx context.Context, id, ownerID bson.ObjectID, content string) (*model.Comment, error) {
	update := ds.Update{Set: map[string]any{"content": content, "updatedAt": now()}}
	var c model.Comment
	if err := r.comments.FindOneAndUpdate(ctx, owned(id, ownerID), update, &c); err != nil {
		return nil, commentErr(err, "update comment")
	}
	return &c, nil
}

func (r *commentRepository) Delete(ctx context.Context, id, ownerID bson.ObjectID) (*model.Comment, error) {
	var c model.Comment
	if err := r.comments.FindOneAndDelete(ctx, owned(id, ownerID), &c); err != nil {
		return nil, commentErr(err, "delete comment")
	}
	return &c, nil
}

// ListByVideo pages the comments of a video, oldest first.
func (r *commentRepository) ListByVideo(ctx context.Context, videoID, viewerID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.CommentView], error) {
	p, err := view.VideoComments(videoID, viewerID)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate[model.CommentView](ctx, r.comments, sortAfterMatch(p, ds.Asc("createdAt"), ds.Asc("_id")), opts)
}

func (r *commentRepository) IDsByVideo(ctx context.Context, videoID bson.ObjectID) ([]bson.ObjectID, error) {
	var comments []model.Comment
	if err := r.comments.Find(ctx, ds.Eq("video", videoID), ds.FindOptions{}, &comments); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	ids := make([]bson.ObjectID, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids, nil
}

func (r *commentRepository) DeleteByVideo(ctx context.Context, videoID bson.ObjectID) (int64, error) {
	n, err := r.comments.DeleteMany(ctx, ds.Eq("video", videoID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	return n, nil
}

func commentErr(err error, op string) error {
	if errors.Is(err, ds.ErrNotFound) {
		return model.ErrCommentNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
