package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/model"
	"vidtube/internal/queue"
)

// ViewRecorder applies a counted view.
// This abstracts the service layer so workers don't depend on the store directly.
type ViewRecorder interface {
	// RecordView increments the view counter and makes the video the most
	// recent entry of the viewer's watch history.
	RecordView(ctx context.Context, videoID, viewerID bson.ObjectID) error
}

// ContentPurger removes what depends on deleted content.
type ContentPurger interface {
	// PurgeVideo deletes likes, comments and playlist entries of a video and
	// its media objects.
	PurgeVideo(ctx context.Context, videoID bson.ObjectID, objectKeys []string) error
	// PurgeLikes deletes every like on one target.
	PurgeLikes(ctx context.Context, kind model.LikeTarget, targetID bson.ObjectID) error
}

// Handler processes events from the queue.
type Handler struct {
	views  ViewRecorder
	purger ContentPurger
}

// NewHandler creates a new event handler.
func NewHandler(views ViewRecorder, purger ContentPurger) *Handler {
	return &Handler{views: views, purger: purger}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventVideoViewed:
		err = h.handleVideoViewed(ctx, event)
	case queue.EventVideoDeleted:
		err = h.handleVideoDeleted(ctx, event)
	case queue.EventCommentDeleted:
		err = h.handleLikesTarget(ctx, model.LikeTargetComment, event.CommentID)
	case queue.EventTweetDeleted:
		err = h.handleLikesTarget(ctx, model.LikeTargetTweet, event.TweetID)
	default:
		log.Warn().Str("type", event.Type).Msg("[Worker] Unknown event type")
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Dur("duration", time.Since(startTime)).
			Msg("[Worker] HandleEvent FAILED")
		return err
	}

	log.Debug().Str("type", event.Type).Dur("duration", time.Since(startTime)).Msg("[Worker] HandleEvent OK")
	return nil
}

func (h *Handler) handleVideoViewed(ctx context.Context, event queue.Event) error {
	videoID, err := bson.ObjectIDFromHex(event.VideoID)
	if err != nil {
		return fmt.Errorf("video_viewed: bad video id %q: %w", event.VideoID, err)
	}
	viewerID, err := bson.ObjectIDFromHex(event.ViewerID)
	if err != nil {
		return fmt.Errorf("video_viewed: bad viewer id %q: %w", event.ViewerID, err)
	}
	return h.views.RecordView(ctx, videoID, viewerID)
}

func (h *Handler) handleVideoDeleted(ctx context.Context, event queue.Event) error {
	videoID, err := bson.ObjectIDFromHex(event.VideoID)
	if err != nil {
		return fmt.Errorf("video_deleted: bad video id %q: %w", event.VideoID, err)
	}
	log.Info().Str("video_id", event.VideoID).Str("owner_id", event.OwnerID).
		Int("objects", len(event.ObjectKeys)).Msg("[Worker] VideoDeleted: purging dependants")
	return h.purger.PurgeVideo(ctx, videoID, event.ObjectKeys)
}

func (h *Handler) handleLikesTarget(ctx context.Context, kind model.LikeTarget, rawID string) error {
	targetID, err := bson.ObjectIDFromHex(rawID)
	if err != nil {
		return fmt.Errorf("%s_deleted: bad id %q: %w", kind, rawID, err)
	}
	return h.purger.PurgeLikes(ctx, kind, targetID)
}
