package repository

import (
	"time"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
)

// Indexes lists every secondary index the repositories rely on. The unique
// ones back the toggles and the user name/email checks.
func Indexes() []ds.IndexSpec {
	return []ds.IndexSpec{
		{Collection: model.CollectionUsers, Name: "uniq_user_name", Keys: []string{"userName"}, Unique: true},
		{Collection: model.CollectionUsers, Name: "uniq_email", Keys: []string{"email"}, Unique: true},
		{Collection: model.CollectionVideos, Name: "videos_owner", Keys: []string{"owner"}},
		{Collection: model.CollectionComments, Name: "comments_video", Keys: []string{"video"}},
		{Collection: model.CollectionTweets, Name: "tweets_owner", Keys: []string{"owner"}},
		{Collection: model.CollectionPlaylists, Name: "playlists_owner", Keys: []string{"owner"}},
		{Collection: model.CollectionLikes, Name: "uniq_like", Keys: []string{"likedBy", "targetKind", "targetId"}, Unique: true},
		{Collection: model.CollectionLikes, Name: "likes_target", Keys: []string{"targetKind", "targetId"}},
		{Collection: model.CollectionSubscriptions, Name: "uniq_subscription", Keys: []string{"subscriber", "channel"}, Unique: true},
		{Collection: model.CollectionSubscriptions, Name: "subscriptions_channel", Keys: []string{"channel"}},
	}
}

// now is the timestamp source for createdAt/updatedAt. Stored times have
// millisecond precision.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// sortAfterMatch inserts a sort right after the leading match stage of a view
// pipeline, giving pages a stable order.
func sortAfterMatch(p ds.Pipeline, keys ...ds.SortKey) ds.Pipeline {
	out := make(ds.Pipeline, 0, len(p)+1)
	out = append(out, p[0], ds.Sort{Keys: keys})
	return append(out, p[1:]...)
}
