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

type tweetRepository struct {
	tweets ds.Collection
}

func NewTweetRepository(store ds.Store) TweetRepository {
	return &tweetRepository{tweets: store.Collection(model.CollectionTweets)}
}

func (r *tweetRepository) Create(ctx context.Context, t *model.Tweet) error {
	if t.ID.IsZero() {
		t.ID = bson.NewObjectID()
	}
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt
	if err := r.tweets.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to insert tweet: %w", err)
	}
	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Tweet, error) {
	var t model.Tweet
	if err := r.tweets.FindOne(ctx, ds.Eq("_id", id), &t); err != nil {
		return nil, tweetErr(err, "get tweet")
	}
	return &t, nil
}

func (r *tweetRepository) Update(ctx context.Context, id, ownerID bson.ObjectID, content string) (*model.Tweet, error) {
	update := ds.Update{Set: map[string]any{"content": content, "updatedAt": now()}}
	var t model.Tweet
	if err := r.tweets.FindOneAndUpdate(ctx, owned(id, ownerID), update, &t); err != nil {
		return nil, tweetErr(err, "update tweet")
	}
	return &t, nil
}

func (r *tweetRepository) Delete(ctx context.Context, id, ownerID bson.ObjectID) (*model.Tweet, error) {
	var t model.Tweet
	if err := r.tweets.FindOneAndDelete(ctx, owned(id, ownerID), &t); err != nil {
		return nil, tweetErr(err, "delete tweet")
	}
	return &t, nil
}

// ListByOwner pages a channel's tweets, newest first.
func (r *tweetRepository) ListByOwner(ctx context.Context, ownerID, viewerID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.TweetView], error) {
	p, err := view.UserTweets(ownerID, viewerID)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate[model.TweetView](ctx, r.tweets, sortAfterMatch(p, ds.Desc("createdAt"), ds.Desc("_id")), opts)
}

func tweetErr(err error, op string) error {
	if errors.Is(err, ds.ErrNotFound) {
		return model.ErrTweetNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
