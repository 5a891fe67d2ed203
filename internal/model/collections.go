package model

// Collection names in the document store.
const (
	CollectionUsers         = "users"
	CollectionVideos        = "videos"
	CollectionComments      = "comments"
	CollectionTweets        = "tweets"
	CollectionPlaylists     = "playlists"
	CollectionLikes         = "likes"
	CollectionSubscriptions = "subscriptions"
)
