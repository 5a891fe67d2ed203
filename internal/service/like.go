package service

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/repository"
)

type LikeService struct {
	likes    repository.LikeRepository
	videos   repository.VideoRepository
	comments repository.CommentRepository
	tweets   repository.TweetRepository
}

func NewLikeService(
	likes repository.LikeRepository,
	videos repository.VideoRepository,
	comments repository.CommentRepository,
	tweets repository.TweetRepository,
) *LikeService {
	return &LikeService{
		likes:    likes,
		videos:   videos,
		comments: comments,
		tweets:   tweets,
	}
}

// Toggle likes the target, or removes the like when it already exists. The
// target must exist.
func (s *LikeService) Toggle(ctx context.Context, userID bson.ObjectID, kind model.LikeTarget, targetID bson.ObjectID) (*model.LikeToggleResult, error) {
	if err := model.RequireIDs(userID, targetID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, model.ErrInvalidLikeTarget
	}
	if err := s.requireTarget(ctx, userID, kind, targetID); err != nil {
		return nil, err
	}
	return s.likes.Toggle(ctx, userID, kind, targetID)
}

func (s *LikeService) ToggleVideoLike(ctx context.Context, userID, videoID bson.ObjectID) (*model.LikeToggleResult, error) {
	return s.Toggle(ctx, userID, model.LikeTargetVideo, videoID)
}

func (s *LikeService) ToggleCommentLike(ctx context.Context, userID, commentID bson.ObjectID) (*model.LikeToggleResult, error) {
	return s.Toggle(ctx, userID, model.LikeTargetComment, commentID)
}

func (s *LikeService) ToggleTweetLike(ctx context.Context, userID, tweetID bson.ObjectID) (*model.LikeToggleResult, error) {
	return s.Toggle(ctx, userID, model.LikeTargetTweet, tweetID)
}

// LikedVideos lists the videos the user liked, most recent like first.
func (s *LikeService) LikedVideos(ctx context.Context, userID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.LikedVideo], error) {
	if err := model.RequireIDs(userID); err != nil {
		return nil, err
	}
	return s.likes.LikedVideos(ctx, userID, opts)
}

// requireTarget hides other channels' unpublished videos the same way the
// detail page does.
func (s *LikeService) requireTarget(ctx context.Context, userID bson.ObjectID, kind model.LikeTarget, id bson.ObjectID) error {
	switch kind {
	case model.LikeTargetVideo:
		visible, err := s.videos.VisibleTo(ctx, id, userID)
		if err != nil {
			return err
		}
		if !visible {
			return model.ErrVideoNotFound
		}
	case model.LikeTargetComment:
		if _, err := s.comments.GetByID(ctx, id); err != nil {
			return err
		}
	case model.LikeTargetTweet:
		if _, err := s.tweets.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
