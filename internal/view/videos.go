package view

import (
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
)

// VideoFeedFilter narrows the video feed.
type VideoFeedFilter struct {
	OwnerID            bson.ObjectID // zero means every channel
	ViewerID           bson.ObjectID
	Query              string
	SortBy             string
	SortType           string
	IncludeUnpublished bool
}

// VideoFeed lists video cards. Only published videos are listed unless the
// viewer is looking at their own channel. Without an explicit sort the feed
// is ordered by title ascending; _id breaks ties in the same direction so
// pages never overlap.
func VideoFeed(f VideoFeedFilter) ds.Pipeline {
	var conds []ds.Cond
	if !f.OwnerID.IsZero() {
		conds = append(conds, ds.Eq("owner", f.OwnerID))
	}
	ownChannel := !f.OwnerID.IsZero() && f.OwnerID == f.ViewerID
	if !f.IncludeUnpublished && !ownChannel {
		conds = append(conds, ds.Eq("isPublished", true))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		conds = append(conds, ds.Or(ds.Contains("title", q), ds.Contains("description", q)))
	}

	sortField := model.DefaultVideoSort
	if model.IsSortableVideoField(f.SortBy) {
		sortField = f.SortBy
	}
	desc := strings.EqualFold(f.SortType, model.SortDescending)

	p := ds.Pipeline{
		ds.Match{Cond: ds.And(conds...)},
		ds.Sort{Keys: []ds.SortKey{{Field: sortField, Desc: desc}, {Field: "_id", Desc: desc}}},
	}
	return p.Append(videoCardStages()...)
}

// VideoDetail assembles one video with its channel block and like counters.
func VideoDetail(videoID, viewerID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(videoID); err != nil {
		return nil, err
	}
	channel := ds.Lookup{
		From:         model.CollectionUsers,
		LocalField:   "owner",
		ForeignField: "_id",
		As:           "owner",
		Pipeline: ds.Pipeline{
			ds.Lookup{From: model.CollectionSubscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"},
			ds.AddFields{Fields: []ds.Assign{
				ds.Set("subscribersCount", ds.Size(ds.Field("subscribers"))),
				ds.Set("isSubscribed", ds.IsIn(ds.Value(viewerID), ds.Field("subscribers.subscriber"))),
			}},
			ds.Project{Fields: append(append([]string{}, ownerFields...), "subscribersCount", "isSubscribed")},
		},
	}
	return ds.Pipeline{
		ds.Match{Cond: ds.Eq("_id", videoID)},
		channel,
		likesLookup(model.LikeTargetVideo),
		ds.AddFields{Fields: append([]ds.Assign{ds.Set("owner", ds.First(ds.Field("owner")))}, likeCounters(viewerID)...)},
		ds.Project{Fields: []string{
			"videoFile", "thumbnail", "title", "description", "duration", "views",
			"isPublished", "createdAt", "owner", "likesCount", "isLiked",
		}},
	}, nil
}

// VideoComments lists the comments of a video with author and like counters.
// The pipeline carries no sort; the repository inserts one after the match
// (oldest first, _id breaking ties) so the order holds on both stores.
func VideoComments(videoID, viewerID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(videoID); err != nil {
		return nil, err
	}
	return ds.Pipeline{
		ds.Match{Cond: ds.Eq("video", videoID)},
		ownerLookup("owner", "owner"),
		likesLookup(model.LikeTargetComment),
		ds.AddFields{Fields: append([]ds.Assign{ds.Set("owner", ds.First(ds.Field("owner")))}, likeCounters(viewerID)...)},
		ds.Project{Fields: []string{"content", "video", "createdAt", "updatedAt", "owner", "likesCount", "isLiked"}},
	}, nil
}

// UserTweets lists a channel's tweets with author and like counters.
func UserTweets(ownerID, viewerID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(ownerID); err != nil {
		return nil, err
	}
	return ds.Pipeline{
		ds.Match{Cond: ds.Eq("owner", ownerID)},
		ownerLookup("owner", "owner"),
		likesLookup(model.LikeTargetTweet),
		ds.AddFields{Fields: append([]ds.Assign{ds.Set("owner", ds.First(ds.Field("owner")))}, likeCounters(viewerID)...)},
		ds.Project{Fields: []string{"content", "createdAt", "updatedAt", "owner", "likesCount", "isLiked"}},
	}, nil
}

// ChannelVideoStats folds a channel's videos into totals. It yields no
// document for a channel without videos.
func ChannelVideoStats(ownerID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(ownerID); err != nil {
		return nil, err
	}
	return ds.Pipeline{
		ds.Match{Cond: ds.Eq("owner", ownerID)},
		likesLookup(model.LikeTargetVideo),
		ds.Group{Fields: []ds.Accumulator{
			{Name: "totalVideos", Sum: ds.Value(1)},
			{Name: "totalViews", Sum: ds.Field("views")},
			{Name: "totalLikes", Sum: ds.Size(ds.Field("likes"))},
		}},
	}, nil
}
