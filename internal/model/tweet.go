package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Tweet is a short text post on a channel.
type Tweet struct {
	ID        bson.ObjectID `bson:"_id" json:"_id"`
	Content   string        `bson:"content" json:"content"`
	Owner     bson.ObjectID `bson:"owner" json:"owner"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

type TweetView struct {
	ID         bson.ObjectID `bson:"_id" json:"_id"`
	Content    string        `bson:"content" json:"content"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt" json:"updatedAt"`
	Owner      *OwnerSummary `bson:"owner,omitempty" json:"owner"`
	LikesCount int64         `bson:"likesCount" json:"likesCount"`
	IsLiked    bool          `bson:"isLiked" json:"isLiked"`
}

var ErrTweetNotFound = &Error{Kind: KindNotFound, Message: "Tweet not found"}
