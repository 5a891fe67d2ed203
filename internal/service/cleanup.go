package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/logging"
	"vidtube/internal/model"
	"vidtube/internal/repository"
)

// CleanupService removes what a deleted video, comment or tweet leaves
// behind. The event worker calls it; every step is idempotent so a
// redelivered event is harmless.
type CleanupService struct {
	likes     repository.LikeRepository
	comments  repository.CommentRepository
	playlists repository.PlaylistRepository
	media     MediaUploader
}

func NewCleanupService(
	likes repository.LikeRepository,
	comments repository.CommentRepository,
	playlists repository.PlaylistRepository,
	media MediaUploader,
) *CleanupService {
	return &CleanupService{
		likes:     likes,
		comments:  comments,
		playlists: playlists,
		media:     media,
	}
}

// PurgeVideo drops the video's likes, its comments and their likes, pulls it
// from every playlist and deletes its media objects.
func (s *CleanupService) PurgeVideo(ctx context.Context, videoID bson.ObjectID, objectKeys []string) error {
	commentIDs, err := s.comments.IDsByVideo(ctx, videoID)
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}
	if _, err := s.likes.DeleteByTargets(ctx, model.LikeTargetComment, commentIDs...); err != nil {
		return fmt.Errorf("delete comment likes: %w", err)
	}
	comments, err := s.comments.DeleteByVideo(ctx, videoID)
	if err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	likes, err := s.likes.DeleteByTargets(ctx, model.LikeTargetVideo, videoID)
	if err != nil {
		return fmt.Errorf("delete video likes: %w", err)
	}
	playlists, err := s.playlists.PullVideoEverywhere(ctx, videoID)
	if err != nil {
		return fmt.Errorf("pull from playlists: %w", err)
	}
	if s.media != nil {
		deleteQuietly(ctx, s.media, objectKeys...)
	}

	logging.FromContext(ctx).Info().
		Str("video_id", videoID.Hex()).
		Int64("comments", comments).
		Int64("likes", likes).
		Int64("playlists", playlists).
		Msg("video purged")
	return nil
}

// PurgeLikes drops every like of one comment or tweet.
func (s *CleanupService) PurgeLikes(ctx context.Context, kind model.LikeTarget, targetID bson.ObjectID) error {
	if !kind.Valid() {
		return model.ErrInvalidLikeTarget
	}
	if _, err := s.likes.DeleteByTargets(ctx, kind, targetID); err != nil {
		return fmt.Errorf("delete %s likes: %w", kind, err)
	}
	return nil
}
