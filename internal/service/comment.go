package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/queue"
	"vidtube/internal/repository"
)

type CommentService struct {
	comments  repository.CommentRepository
	videos    repository.VideoRepository
	publisher queue.Publisher
}

func NewCommentService(comments repository.CommentRepository, videos repository.VideoRepository, publisher queue.Publisher) *CommentService {
	return &CommentService{
		comments:  comments,
		videos:    videos,
		publisher: publisher,
	}
}

// List returns a page of a video's comments, oldest first.
func (s *CommentService) List(ctx context.Context, videoID, viewerID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.CommentView], error) {
	if err := s.requireVideo(ctx, videoID, viewerID); err != nil {
		return nil, err
	}
	return s.comments.ListByVideo(ctx, videoID, viewerID, opts)
}

func (s *CommentService) Add(ctx context.Context, videoID, userID bson.ObjectID, content string) (*model.Comment, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	if err := model.RequireIDs(userID); err != nil {
		return nil, err
	}
	if err := s.requireVideo(ctx, videoID, userID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Content: content,
		Video:   videoID,
		Owner:   userID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, commentID, userID bson.ObjectID, content string) (*model.Comment, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, commentID, userID); err != nil {
		return nil, err
	}
	return s.comments.Update(ctx, commentID, userID, content)
}

// Delete removes the comment; its likes go with the comment_deleted event.
func (s *CommentService) Delete(ctx context.Context, commentID, userID bson.ObjectID) error {
	if err := s.authorize(ctx, commentID, userID); err != nil {
		return err
	}
	if _, err := s.comments.Delete(ctx, commentID, userID); err != nil {
		return err
	}
	publishEvent(ctx, s.publisher, queue.NewCommentDeletedEvent(commentID))
	return nil
}

func (s *CommentService) authorize(ctx context.Context, commentID, userID bson.ObjectID) error {
	if err := model.RequireIDs(commentID, userID); err != nil {
		return err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Owner != userID {
		return model.ErrNotOwner
	}
	return nil
}

// requireVideo treats another channel's draft as missing.
func (s *CommentService) requireVideo(ctx context.Context, videoID, viewerID bson.ObjectID) error {
	if err := model.RequireIDs(videoID); err != nil {
		return err
	}
	visible, err := s.videos.VisibleTo(ctx, videoID, viewerID)
	if err != nil {
		return err
	}
	if !visible {
		return model.ErrVideoNotFound
	}
	return nil
}

// validateContent trims a comment or tweet body and enforces its bounds.
func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > model.MaxContentLength {
		return "", model.ErrContentTooLong
	}
	return content, nil
}
