package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaxContentLength bounds comment and tweet bodies.
const MaxContentLength = 5000

// Comment is a comment on a video.
type Comment struct {
	ID        bson.ObjectID `bson:"_id" json:"_id"`
	Content   string        `bson:"content" json:"content"`
	Video     bson.ObjectID `bson:"video" json:"video"`
	Owner     bson.ObjectID `bson:"owner" json:"owner"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// ContentRequest is the body of comment and tweet writes.
type ContentRequest struct {
	Content string `json:"content"`
}

// CommentView is a comment with its author and like counters.
type CommentView struct {
	ID         bson.ObjectID `bson:"_id" json:"_id"`
	Content    string        `bson:"content" json:"content"`
	Video      bson.ObjectID `bson:"video" json:"video"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt" json:"updatedAt"`
	Owner      *OwnerSummary `bson:"owner,omitempty" json:"owner"`
	LikesCount int64         `bson:"likesCount" json:"likesCount"`
	IsLiked    bool          `bson:"isLiked" json:"isLiked"`
}

var (
	ErrCommentNotFound = &Error{Kind: KindNotFound, Message: "Comment not found"}
	ErrContentRequired = &Error{Kind: KindInvalidArgument, Message: "Content is required"}
	ErrContentTooLong  = &Error{Kind: KindInvalidArgument, Message: "Content is too long"}
)
