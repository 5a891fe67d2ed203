package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscription is a directed edge from a subscriber to a channel (both users).
type Subscription struct {
	ID         bson.ObjectID `bson:"_id" json:"_id"`
	Subscriber bson.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    bson.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt" json:"updatedAt"`
}

type SubscriptionToggleResult struct {
	Subscribed   bool          `json:"subscribed"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// SubscriberSummary is a subscriber with their own audience size and whether
// the channel subscribes back.
type SubscriberSummary struct {
	ID                     bson.ObjectID `bson:"_id" json:"_id"`
	UserName               string        `bson:"userName" json:"userName"`
	FullName               string        `bson:"fullName" json:"fullName"`
	Avatar                 string        `bson:"avatar" json:"avatar"`
	SubscribersCount       int64         `bson:"subscribersCount" json:"subscribersCount"`
	SubscribedToSubscriber bool          `bson:"subscribedToSubscriber" json:"subscribedToSubscriber"`
}

type SubscriberView struct {
	ID           bson.ObjectID      `bson:"_id" json:"_id"`
	SubscribedAt time.Time          `bson:"createdAt" json:"subscribedAt"`
	Subscriber   *SubscriberSummary `bson:"subscriber" json:"subscriber"`
}

// ChannelCard is a subscribed channel with its most recent published video.
type ChannelCard struct {
	ID          bson.ObjectID `bson:"_id" json:"_id"`
	UserName    string        `bson:"userName" json:"userName"`
	FullName    string        `bson:"fullName" json:"fullName"`
	Avatar      string        `bson:"avatar" json:"avatar"`
	LatestVideo *VideoCard    `bson:"latestVideo,omitempty" json:"latestVideo"`
}

type SubscribedChannelView struct {
	ID           bson.ObjectID `bson:"_id" json:"_id"`
	SubscribedAt time.Time     `bson:"createdAt" json:"subscribedAt"`
	Channel      *ChannelCard  `bson:"channel" json:"channel"`
}

// ChannelStats feeds the creator dashboard.
type ChannelStats struct {
	TotalVideos      int64 `bson:"totalVideos" json:"totalVideos"`
	TotalViews       int64 `bson:"totalViews" json:"totalViews"`
	TotalLikes       int64 `bson:"totalLikes" json:"totalLikes"`
	TotalSubscribers int64 `bson:"totalSubscribers" json:"totalSubscribers"`
}

var ErrCannotSubscribeSelf = &Error{Kind: KindConflict, Message: "You cannot subscribe to your own channel"}
