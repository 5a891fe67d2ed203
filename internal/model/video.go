package model

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Video is an uploaded video file plus its metadata.
type Video struct {
	ID           bson.ObjectID `bson:"_id" json:"_id"`
	VideoFile    string        `bson:"videoFile" json:"videoFile"`
	VideoFileKey string        `bson:"videoFileKey,omitempty" json:"-"`
	Thumbnail    string        `bson:"thumbnail" json:"thumbnail"`
	ThumbnailKey string        `bson:"thumbnailKey,omitempty" json:"-"`
	Title        string        `bson:"title" json:"title"`
	Description  string        `bson:"description" json:"description"`
	Duration     float64       `bson:"duration" json:"duration"` // seconds, one decimal
	Views        int64         `bson:"views" json:"views"`
	IsPublished  bool          `bson:"isPublished" json:"isPublished"`
	Owner        bson.ObjectID `bson:"owner" json:"owner"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// RoundDuration keeps one decimal place, the precision durations are stored with.
func RoundDuration(seconds float64) float64 {
	return math.Round(seconds*10) / 10
}

// Sortable feed fields. Anything else falls back to DefaultVideoSort.
const (
	DefaultVideoSort = "title"
	SortAscending    = "asc"
	SortDescending   = "desc"
)

var sortableVideoFields = map[string]struct{}{
	"title":     {},
	"createdAt": {},
	"views":     {},
	"duration":  {},
}

// IsSortableVideoField reports whether the feed may be sorted by field.
func IsSortableVideoField(field string) bool {
	_, ok := sortableVideoFields[field]
	return ok
}

// VideoQuery is the parsed query string of the video feed.
type VideoQuery struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortType string
	// UserID restricts the feed to one channel when set.
	UserID bson.ObjectID
	// ViewerID is the caller; owners see their own unpublished videos.
	ViewerID bson.ObjectID
	// IncludeUnpublished is set by the dashboard for the owner's own list.
	IncludeUnpublished bool
}

// PublishVideoRequest carries the text fields of the upload form.
type PublishVideoRequest struct {
	Title       string
	Description string
	// Duration overrides the probed duration when the container can't be read.
	Duration *float64
}

type UpdateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// VideoCard is a video as listed in feeds, playlists and histories.
type VideoCard struct {
	ID          bson.ObjectID `bson:"_id" json:"_id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Thumbnail   string        `bson:"thumbnail" json:"thumbnail"`
	VideoFile   string        `bson:"videoFile,omitempty" json:"videoFile,omitempty"`
	Duration    float64       `bson:"duration" json:"duration"`
	Views       int64         `bson:"views" json:"views"`
	IsPublished bool          `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	Owner       *OwnerSummary `bson:"owner,omitempty" json:"owner"`
}

// ChannelSummary is the owner block of a video detail page.
type ChannelSummary struct {
	ID               bson.ObjectID `bson:"_id" json:"_id"`
	UserName         string        `bson:"userName" json:"userName"`
	FullName         string        `bson:"fullName" json:"fullName"`
	Avatar           string        `bson:"avatar" json:"avatar"`
	SubscribersCount int64         `bson:"subscribersCount" json:"subscribersCount"`
	IsSubscribed     bool          `bson:"isSubscribed" json:"isSubscribed"`
}

// VideoDetail is the single-video page.
type VideoDetail struct {
	ID          bson.ObjectID   `bson:"_id" json:"_id"`
	VideoFile   string          `bson:"videoFile" json:"videoFile"`
	Thumbnail   string          `bson:"thumbnail" json:"thumbnail"`
	Title       string          `bson:"title" json:"title"`
	Description string          `bson:"description" json:"description"`
	Duration    float64         `bson:"duration" json:"duration"`
	Views       int64           `bson:"views" json:"views"`
	IsPublished bool            `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	Owner       *ChannelSummary `bson:"owner,omitempty" json:"owner"`
	LikesCount  int64           `bson:"likesCount" json:"likesCount"`
	IsLiked     bool            `bson:"isLiked" json:"isLiked"`
}

var (
	ErrVideoNotFound        = &Error{Kind: KindNotFound, Message: "Video not found"}
	ErrVideoFileRequired    = &Error{Kind: KindInvalidArgument, Message: "Video file is required"}
	ErrThumbnailRequired    = &Error{Kind: KindInvalidArgument, Message: "Thumbnail is required"}
	ErrTitleRequired        = &Error{Kind: KindInvalidArgument, Message: "Title is required"}
	ErrVideoFieldsRequired  = &Error{Kind: KindInvalidArgument, Message: "Title and description are required"}
	ErrInvalidVideoDuration = &Error{Kind: KindInvalidArgument, Message: "Duration must be a non-negative number"}
)
