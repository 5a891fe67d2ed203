package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Event types for the events stream
const (
	EventVideoViewed    = "video_viewed"
	EventVideoDeleted   = "video_deleted"
	EventCommentDeleted = "comment_deleted"
	EventTweetDeleted   = "tweet_deleted"
)

// Stream names
const (
	StreamEvents = "stream:events"
)

// Consumer group name for event workers
const (
	ConsumerGroupEvents = "event_workers"
)

// Event is one message on the events stream. Ids are hex object ids so the
// payload stays plain JSON.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// VideoViewed, VideoDeleted
	VideoID  string `json:"videoId,omitempty"`
	ViewerID string `json:"viewerId,omitempty"`
	OwnerID  string `json:"ownerId,omitempty"`
	// ObjectKeys are the media objects of a deleted video.
	ObjectKeys []string `json:"objectKeys,omitempty"`

	CommentID string `json:"commentId,omitempty"`
	TweetID   string `json:"tweetId,omitempty"`
}

// NewVideoViewedEvent is published the first time a viewer opens a video
// within the de-duplication window. The worker counts the view and moves the
// video to the front of the viewer's watch history.
func NewVideoViewedEvent(videoID, viewerID bson.ObjectID) Event {
	return Event{
		Type:      EventVideoViewed,
		Timestamp: time.Now().Unix(),
		VideoID:   videoID.Hex(),
		ViewerID:  viewerID.Hex(),
	}
}

// NewVideoDeletedEvent carries what the worker needs to purge a deleted
// video's likes, comments, playlist entries and media objects.
func NewVideoDeletedEvent(videoID, ownerID bson.ObjectID, objectKeys ...string) Event {
	keys := make([]string, 0, len(objectKeys))
	for _, k := range objectKeys {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return Event{
		Type:       EventVideoDeleted,
		Timestamp:  time.Now().Unix(),
		VideoID:    videoID.Hex(),
		OwnerID:    ownerID.Hex(),
		ObjectKeys: keys,
	}
}

func NewCommentDeletedEvent(commentID bson.ObjectID) Event {
	return Event{
		Type:      EventCommentDeleted,
		Timestamp: time.Now().Unix(),
		CommentID: commentID.Hex(),
	}
}

func NewTweetDeletedEvent(tweetID bson.ObjectID) Event {
	return Event{
		Type:      EventTweetDeleted,
		Timestamp: time.Now().Unix(),
		TweetID:   tweetID.Hex(),
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
