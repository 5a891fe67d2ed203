package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/view"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.User, error)
	// GetByLogin finds a user by user name or email; empty arguments are ignored.
	GetByLogin(ctx context.Context, userName, email string) (*model.User, error)
	ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error)
	Exists(ctx context.Context, id bson.ObjectID) (bool, error)
	UpdateAccount(ctx context.Context, id bson.ObjectID, fullName, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error
	UpdateAvatar(ctx context.Context, id bson.ObjectID, image model.UploadResult) (*model.User, error)
	UpdateCoverImage(ctx context.Context, id bson.ObjectID, image model.UploadResult) (*model.User, error)
	// SetRefreshToken mirrors the current session hash on the user; nil clears it.
	SetRefreshToken(ctx context.Context, id bson.ObjectID, tokenHash *string) error
	ChannelProfile(ctx context.Context, userName string, viewerID bson.ObjectID) (*model.ChannelProfile, error)
	// WatchHistory returns watched videos, most recent first.
	WatchHistory(ctx context.Context, id bson.ObjectID) ([]model.VideoCard, error)
	AddToWatchHistory(ctx context.Context, userID, videoID bson.ObjectID) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Owner-scoped mutations below match on (_id, owner) and report
// model.Err*NotFound when nothing matched.

type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.Video, error)
	Exists(ctx context.Context, id bson.ObjectID) (bool, error)
	// VisibleTo reports whether the video exists and is published or owned by viewerID.
	VisibleTo(ctx context.Context, id, viewerID bson.ObjectID) (bool, error)
	Update(ctx context.Context, id, ownerID bson.ObjectID, set map[string]any) (*model.Video, error)
	Delete(ctx context.Context, id, ownerID bson.ObjectID) (*model.Video, error)
	TogglePublish(ctx context.Context, id, ownerID bson.ObjectID) (*model.Video, error)
	IncrementViews(ctx context.Context, id bson.ObjectID) error
	Feed(ctx context.Context, filter view.VideoFeedFilter, opts pagination.Options) (*pagination.Page[model.VideoCard], error)
	Detail(ctx context.Context, id, viewerID bson.ObjectID) (*model.VideoDetail, error)
	// ChannelStats fills every counter except TotalSubscribers.
	ChannelStats(ctx context.Context, ownerID bson.ObjectID) (*model.ChannelStats, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.Comment, error)
	Update(ctx context.Context, id, ownerID bson.ObjectID, content string) (*model.Comment, error)
	Delete(ctx context.Context, id, ownerID bson.ObjectID) (*model.Comment, error)
	ListByVideo(ctx context.Context, videoID, viewerID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.CommentView], error)
	IDsByVideo(ctx context.Context, videoID bson.ObjectID) ([]bson.ObjectID, error)
	DeleteByVideo(ctx context.Context, videoID bson.ObjectID) (int64, error)
}

type TweetRepository interface {
	Create(ctx context.Context, tweet *model.Tweet) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.Tweet, error)
	Update(ctx context.Context, id, ownerID bson.ObjectID, content string) (*model.Tweet, error)
	Delete(ctx context.Context, id, ownerID bson.ObjectID) (*model.Tweet, error)
	ListByOwner(ctx context.Context, ownerID, viewerID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.TweetView], error)
}

type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.Playlist, error)
	Update(ctx context.Context, id, ownerID bson.ObjectID, name, description string) (*model.Playlist, error)
	Delete(ctx context.Context, id, ownerID bson.ObjectID) (*model.Playlist, error)
	// AddVideo appends videoID unless it is already present
	// (model.ErrVideoAlreadyInPlaylist).
	AddVideo(ctx context.Context, id, ownerID, videoID bson.ObjectID) (*model.Playlist, error)
	// RemoveVideo fails with model.ErrVideoNotInPlaylist when videoID is absent.
	RemoveVideo(ctx context.Context, id, ownerID, videoID bson.ObjectID) (*model.Playlist, error)
	PullVideoEverywhere(ctx context.Context, videoID bson.ObjectID) (int64, error)
	Detail(ctx context.Context, id bson.ObjectID) (*model.PlaylistView, error)
	ListByOwner(ctx context.Context, ownerID bson.ObjectID) ([]model.PlaylistView, error)
}

type LikeRepository interface {
	// Toggle removes the like when present and creates it otherwise.
	Toggle(ctx context.Context, userID bson.ObjectID, kind model.LikeTarget, targetID bson.ObjectID) (*model.LikeToggleResult, error)
	LikedVideos(ctx context.Context, userID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.LikedVideo], error)
	DeleteByTargets(ctx context.Context, kind model.LikeTarget, targetIDs ...bson.ObjectID) (int64, error)
}

type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID bson.ObjectID) (*model.SubscriptionToggleResult, error)
	Subscribers(ctx context.Context, channelID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.SubscriberView], error)
	SubscribedChannels(ctx context.Context, subscriberID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.SubscribedChannelView], error)
	CountSubscribers(ctx context.Context, channelID bson.ObjectID) (int64, error)
}
