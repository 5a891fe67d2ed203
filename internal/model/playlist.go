package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Playlist is an ordered set of videos owned by one user.
type Playlist struct {
	ID          bson.ObjectID   `bson:"_id" json:"_id"`
	Name        string          `bson:"name" json:"name"`
	Description string          `bson:"description" json:"description"`
	Videos      []bson.ObjectID `bson:"videos" json:"videos"`
	Owner       bson.ObjectID   `bson:"owner" json:"owner"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

type PlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PlaylistView is a playlist with its videos and owner joined in.
type PlaylistView struct {
	ID            bson.ObjectID `bson:"_id" json:"_id"`
	Name          string        `bson:"name" json:"name"`
	Description   string        `bson:"description" json:"description"`
	Owner         *OwnerSummary `bson:"owner,omitempty" json:"owner"`
	Videos        []VideoCard   `bson:"videos" json:"videos"`
	TotalVideos   int64         `bson:"totalVideos" json:"totalVideos"`
	TotalDuration float64       `bson:"totalDuration" json:"totalDuration"`
	TotalViews    int64         `bson:"totalViews" json:"totalViews"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

var (
	ErrPlaylistNotFound       = &Error{Kind: KindNotFound, Message: "Playlist not found"}
	ErrPlaylistFieldsRequired = &Error{Kind: KindInvalidArgument, Message: "Name and description are required"}
	ErrVideoAlreadyInPlaylist = &Error{Kind: KindConflict, Message: "Video already added to playlist"}
	ErrVideoNotInPlaylist     = &Error{Kind: KindNotFound, Message: "Video is not in the playlist"}
)
