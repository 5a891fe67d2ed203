package service

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/cache"
	"vidtube/internal/logging"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/queue"
	"vidtube/internal/repository"
	"vidtube/internal/view"
)

// VideoService handles the video catalogue: upload, feed, detail and owner
// edits. View counting and deletion fan-out run through the events stream.
type VideoService struct {
	videos    repository.VideoRepository
	users     repository.UserRepository
	media     MediaUploader
	views     cache.ViewTracker
	publisher queue.Publisher
}

func NewVideoService(
	videos repository.VideoRepository,
	users repository.UserRepository,
	media MediaUploader,
	views cache.ViewTracker,
	publisher queue.Publisher,
) *VideoService {
	return &VideoService{
		videos:    videos,
		users:     users,
		media:     media,
		views:     views,
		publisher: publisher,
	}
}

// List returns one page of the feed. A channel filter shows the owner their
// unpublished videos too.
func (s *VideoService) List(ctx context.Context, q model.VideoQuery) (*pagination.Page[model.VideoCard], error) {
	filter := view.VideoFeedFilter{
		OwnerID:            q.UserID,
		ViewerID:           q.ViewerID,
		Query:              q.Query,
		SortBy:             q.SortBy,
		SortType:           q.SortType,
		IncludeUnpublished: q.IncludeUnpublished,
	}
	return s.videos.Feed(ctx, filter, pagination.NewOptions(q.Page, q.Limit))
}

// Publish uploads the video and thumbnail and stores the video as published.
// An explicit duration wins over the probed one.
func (s *VideoService) Publish(ctx context.Context, ownerID bson.ObjectID, req *model.PublishVideoRequest, videoFile, thumbnail *model.FileInput) (*model.Video, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, model.ErrVideoFieldsRequired
	}
	if req.Duration != nil && *req.Duration < 0 {
		return nil, model.ErrInvalidVideoDuration
	}
	if videoFile == nil {
		return nil, model.ErrVideoFileRequired
	}
	if thumbnail == nil {
		return nil, model.ErrThumbnailRequired
	}

	uploadedVideo, err := s.media.UploadVideo(ctx, *videoFile)
	if err != nil {
		return nil, err
	}
	uploadedThumb, err := s.media.UploadImage(ctx, *thumbnail, model.ImageThumbnail)
	if err != nil {
		deleteQuietly(ctx, s.media, uploadedVideo.Key)
		return nil, err
	}

	duration := uploadedVideo.Duration
	if req.Duration != nil {
		duration = *req.Duration
	}

	video := &model.Video{
		VideoFile:    uploadedVideo.URL,
		VideoFileKey: uploadedVideo.Key,
		Thumbnail:    uploadedThumb.URL,
		ThumbnailKey: uploadedThumb.Key,
		Title:        title,
		Description:  description,
		Duration:     model.RoundDuration(duration),
		IsPublished:  true,
		Owner:        ownerID,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		deleteQuietly(ctx, s.media, uploadedVideo.Key, uploadedThumb.Key)
		return nil, err
	}
	return video, nil
}

// GetByID returns the detail page. Unpublished videos exist only for their
// owner. A signed-in viewer's first view inside the window is counted.
func (s *VideoService) GetByID(ctx context.Context, videoID, viewerID bson.ObjectID) (*model.VideoDetail, error) {
	if err := model.RequireIDs(videoID); err != nil {
		return nil, err
	}
	detail, err := s.videos.Detail(ctx, videoID, viewerID)
	if err != nil {
		return nil, err
	}
	isOwner := detail.Owner != nil && !viewerID.IsZero() && detail.Owner.ID == viewerID
	if !detail.IsPublished && !isOwner {
		return nil, model.ErrVideoNotFound
	}

	if !viewerID.IsZero() && s.countView(ctx, videoID, viewerID) {
		detail.Views++
	}
	return detail, nil
}

// countView reports whether a video_viewed event went out. Tracker or
// publish failures never fail the read.
func (s *VideoService) countView(ctx context.Context, videoID, viewerID bson.ObjectID) bool {
	if s.views != nil {
		first, err := s.views.MarkViewed(ctx, videoID.Hex(), viewerID.Hex())
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("video_id", videoID.Hex()).Msg("view tracker unavailable")
			return false
		}
		if !first {
			return false
		}
	}
	return s.publish(ctx, queue.NewVideoViewedEvent(videoID, viewerID))
}

// RecordView counts a view and moves the video to the front of the viewer's
// watch history. The event worker calls it for video_viewed.
func (s *VideoService) RecordView(ctx context.Context, videoID, viewerID bson.ObjectID) error {
	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if viewerID.IsZero() {
		return nil
	}
	if err := s.users.AddToWatchHistory(ctx, viewerID, videoID); err != nil {
		return fmt.Errorf("add to watch history: %w", err)
	}
	return nil
}

// Update changes title and description and, when given, swaps the thumbnail.
func (s *VideoService) Update(ctx context.Context, videoID, userID bson.ObjectID, req *model.UpdateVideoRequest, thumbnail *model.FileInput) (*model.Video, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, model.ErrVideoFieldsRequired
	}

	current, err := s.authorize(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}

	set := map[string]any{
		"title":       title,
		"description": description,
	}
	var uploaded *model.UploadResult
	if thumbnail != nil {
		uploaded, err = s.media.UploadImage(ctx, *thumbnail, model.ImageThumbnail)
		if err != nil {
			return nil, err
		}
		set["thumbnail"] = uploaded.URL
		set["thumbnailKey"] = uploaded.Key
	}

	video, err := s.videos.Update(ctx, videoID, userID, set)
	if err != nil {
		if uploaded != nil {
			deleteQuietly(ctx, s.media, uploaded.Key)
		}
		return nil, err
	}
	if uploaded != nil {
		deleteQuietly(ctx, s.media, current.ThumbnailKey)
	}
	return video, nil
}

// Delete removes the video; likes, comments, playlist entries and media are
// purged by the worker on video_deleted.
func (s *VideoService) Delete(ctx context.Context, videoID, userID bson.ObjectID) error {
	if _, err := s.authorize(ctx, videoID, userID); err != nil {
		return err
	}
	video, err := s.videos.Delete(ctx, videoID, userID)
	if err != nil {
		return err
	}
	s.publish(ctx, queue.NewVideoDeletedEvent(video.ID, video.Owner, video.VideoFileKey, video.ThumbnailKey))
	return nil
}

func (s *VideoService) TogglePublish(ctx context.Context, videoID, userID bson.ObjectID) (*model.Video, error) {
	if _, err := s.authorize(ctx, videoID, userID); err != nil {
		return nil, err
	}
	return s.videos.TogglePublish(ctx, videoID, userID)
}

// authorize loads the video and checks that userID owns it.
func (s *VideoService) authorize(ctx context.Context, videoID, userID bson.ObjectID) (*model.Video, error) {
	if err := model.RequireIDs(videoID, userID); err != nil {
		return nil, err
	}
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.Owner != userID {
		return nil, model.ErrNotOwner
	}
	return video, nil
}

func (s *VideoService) publish(ctx context.Context, event queue.Event) bool {
	return publishEvent(ctx, s.publisher, event)
}

// publishEvent sends event to the events stream. Failures are logged; the
// write that triggered the event has already happened.
func publishEvent(ctx context.Context, publisher queue.Publisher, event queue.Event) bool {
	if publisher == nil {
		return false
	}
	if _, err := publisher.Publish(ctx, queue.StreamEvents, event); err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("type", event.Type).Msg("failed to publish event")
		return false
	}
	return true
}
