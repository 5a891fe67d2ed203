package service

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/queue"
	"vidtube/internal/repository"
)

type TweetService struct {
	tweets    repository.TweetRepository
	users     repository.UserRepository
	publisher queue.Publisher
}

func NewTweetService(tweets repository.TweetRepository, users repository.UserRepository, publisher queue.Publisher) *TweetService {
	return &TweetService{
		tweets:    tweets,
		users:     users,
		publisher: publisher,
	}
}

func (s *TweetService) Create(ctx context.Context, userID bson.ObjectID, content string) (*model.Tweet, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	if err := model.RequireIDs(userID); err != nil {
		return nil, err
	}

	tweet := &model.Tweet{
		Content: content,
		Owner:   userID,
	}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, err
	}
	return tweet, nil
}

// ListByUser returns a user's tweets, newest first.
func (s *TweetService) ListByUser(ctx context.Context, userID, viewerID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.TweetView], error) {
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
	return s.tweets.ListByOwner(ctx, userID, viewerID, opts)
}

func (s *TweetService) Update(ctx context.Context, tweetID, userID bson.ObjectID, content string) (*model.Tweet, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, tweetID, userID); err != nil {
		return nil, err
	}
	return s.tweets.Update(ctx, tweetID, userID, content)
}

// Delete removes the tweet; its likes go with the tweet_deleted event.
func (s *TweetService) Delete(ctx context.Context, tweetID, userID bson.ObjectID) error {
	if err := s.authorize(ctx, tweetID, userID); err != nil {
		return err
	}
	if _, err := s.tweets.Delete(ctx, tweetID, userID); err != nil {
		return err
	}
	publishEvent(ctx, s.publisher, queue.NewTweetDeletedEvent(tweetID))
	return nil
}

func (s *TweetService) authorize(ctx context.Context, tweetID, userID bson.ObjectID) error {
	if err := model.RequireIDs(tweetID, userID); err != nil {
		return err
	}
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return err
	}
	if tweet.Owner != userID {
		return model.ErrNotOwner
	}
	return nil
}
