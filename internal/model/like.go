package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// LikeTarget names the kind of entity a like points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Valid reports whether t is one of the known targets.
func (t LikeTarget) Valid() bool {
	switch t {
	case LikeTargetVideo, LikeTargetComment, LikeTargetTweet:
		return true
	}
	return false
}

// Like records that LikedBy likes exactly one target. (likedBy, targetKind,
// targetId) is unique.
type Like struct {
	ID         bson.ObjectID `bson:"_id" json:"_id"`
	LikedBy    bson.ObjectID `bson:"likedBy" json:"likedBy"`
	TargetKind LikeTarget    `bson:"targetKind" json:"targetKind"`
	TargetID   bson.ObjectID `bson:"targetId" json:"targetId"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}

// LikeToggleResult reports the state after a toggle.
type LikeToggleResult struct {
	Liked bool  `json:"liked"`
	Like  *Like `json:"like,omitempty"`
}

// LikedVideo is one entry of a user's liked-videos feed.
type LikedVideo struct {
	ID      bson.ObjectID `bson:"_id" json:"_id"`
	LikedAt time.Time     `bson:"createdAt" json:"likedAt"`
	Video   *VideoCard    `bson:"video" json:"video"`
}

var ErrInvalidLikeTarget = &Error{Kind: KindInvalidArgument, Message: "Invalid like target"}
