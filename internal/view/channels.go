package view

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
)

// ChannelProfile assembles a channel page: who subscribes to it, whom it
// subscribes to and whether viewerID is a subscriber.
func ChannelProfile(userName string, viewerID bson.ObjectID) (ds.Pipeline, error) {
	userName = model.NormalizeUserName(userName)
	if userName == "" {
		return nil, model.ErrUserNameRequired
	}
	return ds.Pipeline{
		ds.Match{Cond: ds.Eq("userName", userName)},
		ds.Lookup{From: model.CollectionSubscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"},
		ds.Lookup{From: model.CollectionSubscriptions, LocalField: "_id", ForeignField: "subscriber", As: "subscribedTo"},
		ds.AddFields{Fields: []ds.Assign{
			ds.Set("subscribersCount", ds.Size(ds.Field("subscribers"))),
			ds.Set("channelsSubscribedToCount", ds.Size(ds.Field("subscribedTo"))),
			ds.Set("isSubscribed", ds.IsIn(ds.Value(viewerID), ds.Field("subscribers.subscriber"))),
		}},
		ds.Project{Fields: []string{
			"fullName", "userName", "email", "avatar", "coverImage",
			"subscribersCount", "channelsSubscribedToCount", "isSubscribed", "createdAt",
		}},
	}, nil
}

// WatchHistoryDoc is what WatchHistory yields: the stored id order next to
// the joined videos, which a join returns in store order.
type WatchHistoryDoc struct {
	WatchHistory []bson.ObjectID  `bson:"watchHistory"`
	History      []model.VideoCard `bson:"history"`
}

// WatchHistory joins a user's watched videos with their owners.
func WatchHistory(userID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(userID); err != nil {
		return nil, err
	}
	return ds.Pipeline{
		ds.Match{Cond: ds.Eq("_id", userID)},
		ds.Lookup{
			From:         model.CollectionVideos,
			LocalField:   "watchHistory",
			ForeignField: "_id",
			As:           "history",
			Pipeline:     videoCardStages(),
		},
		ds.Project{Fields: []string{"watchHistory", "history"}, ExcludeID: true},
	}, nil
}

// LikedVideos lists the videos a user liked. Likes whose video no longer
// exists, or was unpublished by another channel, are dropped.
func LikedVideos(userID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(userID); err != nil {
		return nil, err
	}
	return ds.Pipeline{
		ds.Match{Cond: ds.And(
			ds.Eq("likedBy", userID),
			ds.Eq("targetKind", string(model.LikeTargetVideo)),
		)},
		ds.Lookup{
			From:         model.CollectionVideos,
			LocalField:   "targetId",
			ForeignField: "_id",
			As:           "video",
			Pipeline: append(ds.Pipeline{
				ds.Match{Cond: ds.Or(ds.Eq("isPublished", true), ds.Eq("owner", userID))},
			}, videoCardStages()...),
		},
		ds.AddFields{Fields: []ds.Assign{ds.Set("video", ds.First(ds.Field("video")))}},
		ds.Match{Cond: ds.Ne("video", nil)},
		ds.Project{Fields: []string{"createdAt", "video"}},
	}, nil
}

// ChannelSubscribers lists who subscribes to a channel, with each
// subscriber's own audience and whether the channel subscribes back.
func ChannelSubscribers(channelID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(channelID); err != nil {
		return nil, err
	}
	subscriber := ds.Lookup{
		From:         model.CollectionUsers,
		LocalField:   "subscriber",
		ForeignField: "_id",
		As:           "subscriber",
		Pipeline: ds.Pipeline{
			ds.Lookup{From: model.CollectionSubscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"},
			ds.AddFields{Fields: []ds.Assign{
				ds.Set("subscribersCount", ds.Size(ds.Field("subscribers"))),
				ds.Set("subscribedToSubscriber", ds.IsIn(ds.Value(channelID), ds.Field("subscribers.subscriber"))),
			}},
			ds.Project{Fields: append(append([]string{}, ownerFields...), "subscribersCount", "subscribedToSubscriber")},
		},
	}
	return ds.Pipeline{
		ds.Match{Cond: ds.Eq("channel", channelID)},
		subscriber,
		ds.AddFields{Fields: []ds.Assign{ds.Set("subscriber", ds.First(ds.Field("subscriber")))}},
		ds.Project{Fields: []string{"subscriber", "createdAt"}},
	}, nil
}

// SubscribedChannels lists the channels a user subscribes to, each with its
// latest published video.
func SubscribedChannels(subscriberID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(subscriberID); err != nil {
		return nil, err
	}
	latest := ds.Lookup{
		From:         model.CollectionVideos,
		LocalField:   "_id",
		ForeignField: "owner",
		As:           "latestVideo",
		Pipeline: ds.Pipeline{
			ds.Match{Cond: ds.Eq("isPublished", true)},
			ds.Sort{Keys: []ds.SortKey{ds.Desc("createdAt")}},
			ds.Limit{N: 1},
			ds.Project{Fields: []string{"title", "description", "thumbnail", "duration", "views", "isPublished", "createdAt"}},
		},
	}
	channel := ds.Lookup{
		From:         model.CollectionUsers,
		LocalField:   "channel",
		ForeignField: "_id",
		As:           "channel",
		Pipeline: ds.Pipeline{
			latest,
			ds.AddFields{Fields: []ds.Assign{ds.Set("latestVideo", ds.First(ds.Field("latestVideo")))}},
			ds.Project{Fields: append(append([]string{}, ownerFields...), "latestVideo")},
		},
	}
	return ds.Pipeline{
		ds.Match{Cond: ds.Eq("subscriber", subscriberID)},
		channel,
		ds.AddFields{Fields: []ds.Assign{ds.Set("channel", ds.First(ds.Field("channel")))}},
		ds.Project{Fields: []string{"channel", "createdAt"}},
	}, nil
}
