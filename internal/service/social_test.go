package service

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/queue"
)

// =============================================================================
// COMMENTS
// =============================================================================

func TestCommentService(t *testing.T) {
	f := newFixture(t)
	f.applyEvents()
	owner := f.user(t, "alice")
	fan := f.user(t, "bob")
	v := f.video(t, owner, "Clip")
	ctx := context.Background()

	_, err := f.comments.Add(ctx, bson.NewObjectID(), fan.ID, "hello")
	assert.ErrorIs(t, err, model.ErrVideoNotFound)
	_, err = f.comments.Add(ctx, v.ID, fan.ID, "   ")
	assert.ErrorIs(t, err, model.ErrContentRequired)
	_, err = f.comments.Add(ctx, v.ID, fan.ID, strings.Repeat("x", model.MaxContentLength+1))
	assert.ErrorIs(t, err, model.ErrContentTooLong)

	c, err := f.comments.Add(ctx, v.ID, fan.ID, "  first!  ")
	require.NoError(t, err)
	assert.Equal(t, "first!", c.Content)

	_, err = f.comments.Update(ctx, c.ID, owner.ID, "hijack")
	assert.ErrorIs(t, err, model.ErrNotOwner)
	updated, err := f.comments.Update(ctx, c.ID, fan.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	_, err = f.likes.ToggleCommentLike(ctx, owner.ID, c.ID)
	require.NoError(t, err)

	page, err := f.comments.List(ctx, v.ID, owner.ID, pagination.NewOptions(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, int64(1), page.Docs[0].LikesCount)
	assert.True(t, page.Docs[0].IsLiked)

	assert.ErrorIs(t, f.comments.Delete(ctx, c.ID, owner.ID), model.ErrNotOwner)
	require.NoError(t, f.comments.Delete(ctx, c.ID, fan.ID))
	assert.Len(t, f.publisher.ofType(queue.EventCommentDeleted), 1)

	n, err := f.store.Collection(model.CollectionLikes).CountDocuments(ctx, ds.Eq("targetKind", string(model.LikeTargetComment)))
	require.NoError(t, err)
	assert.Zero(t, n, "comment likes are purged with the comment")

	assert.ErrorIs(t, f.comments.Delete(ctx, c.ID, fan.ID), model.ErrCommentNotFound)

	_, err = f.comments.List(ctx, bson.NewObjectID(), owner.ID, pagination.NewOptions(1, 10))
	assert.ErrorIs(t, err, model.ErrVideoNotFound)
}

// =============================================================================
// TWEETS
// =============================================================================

func TestTweetService(t *testing.T) {
	f := newFixture(t)
	f.applyEvents()
	author := f.user(t, "carol")
	other := f.user(t, "dave")
	ctx := context.Background()

	first, err := f.tweets.Create(ctx, author.ID, "one")
	require.NoError(t, err)
	second, err := f.tweets.Create(ctx, author.ID, "two")
	require.NoError(t, err)

	page, err := f.tweets.ListByUser(ctx, author.ID, other.ID, pagination.NewOptions(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Docs, 2)
	assert.Equal(t, second.ID, page.Docs[0].ID, "newest first")

	_, err = f.tweets.ListByUser(ctx, bson.NewObjectID(), other.ID, pagination.NewOptions(1, 10))
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = f.tweets.Update(ctx, first.ID, other.ID, "mine now")
	assert.ErrorIs(t, err, model.ErrNotOwner)

	_, err = f.likes.ToggleTweetLike(ctx, other.ID, first.ID)
	require.NoError(t, err)
	require.NoError(t, f.tweets.Delete(ctx, first.ID, author.ID))
	assert.Len(t, f.publisher.ofType(queue.EventTweetDeleted), 1)

	n, err := f.store.Collection(model.CollectionLikes).CountDocuments(ctx, ds.Eq("targetId", first.ID))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.tweets.Update(ctx, first.ID, author.ID, "gone")
	assert.ErrorIs(t, err, model.ErrTweetNotFound)
}

// =============================================================================
// LIKES
// =============================================================================

func TestLikeService_Toggle(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "erin")
	fan := f.user(t, "fay")
	v := f.video(t, owner, "Clip")
	ctx := context.Background()

	on, err := f.likes.ToggleVideoLike(ctx, fan.ID, v.ID)
	require.NoError(t, err)
	assert.True(t, on.Liked)
	off, err := f.likes.ToggleVideoLike(ctx, fan.ID, v.ID)
	require.NoError(t, err)
	assert.False(t, off.Liked)

	_, err = f.likes.ToggleVideoLike(ctx, fan.ID, bson.NewObjectID())
	assert.ErrorIs(t, err, model.ErrVideoNotFound)
	_, err = f.likes.ToggleCommentLike(ctx, fan.ID, bson.NewObjectID())
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
	_, err = f.likes.ToggleTweetLike(ctx, fan.ID, bson.NewObjectID())
	assert.ErrorIs(t, err, model.ErrTweetNotFound)
	_, err = f.likes.Toggle(ctx, fan.ID, model.LikeTarget("playlist"), v.ID)
	assert.ErrorIs(t, err, model.ErrInvalidLikeTarget)
	_, err = f.likes.ToggleVideoLike(ctx, fan.ID, bson.NilObjectID)
	assert.ErrorIs(t, err, model.ErrInvalidID)
}

// TestProperty_LikeStateIsToggleParity checks that after any sequence of
// toggles each (user, video) pair is liked exactly when it was toggled an odd
// number of times, and never stored twice.
func TestProperty_LikeStateIsToggleParity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("like state equals toggle parity", prop.ForAll(
		func(ops []int) bool {
			f := newFixture(t)
			ctx := context.Background()
			// Straight to the repositories; bcrypt per run would dominate.
			users := []*model.User{{UserName: "u0", Email: "u0@x.io"}, {UserName: "u1", Email: "u1@x.io"}}
			for _, u := range users {
				if err := f.userRepo.Create(ctx, u); err != nil {
					return false
				}
			}
			videos := []*model.Video{{Title: "v0", IsPublished: true, Owner: users[0].ID}, {Title: "v1", IsPublished: true, Owner: users[1].ID}}
			for _, v := range videos {
				if err := f.videoRepo.Create(ctx, v); err != nil {
					return false
				}
			}

			toggles := make(map[[2]int]int)
			for _, op := range ops {
				u, v := op%2, (op/2)%2
				res, err := f.likes.ToggleVideoLike(ctx, users[u].ID, videos[v].ID)
				if err != nil {
					return false
				}
				toggles[[2]int{u, v}]++
				if res.Liked != (toggles[[2]int{u, v}]%2 == 1) {
					return false
				}
			}

			var want int64
			for _, n := range toggles {
				want += int64(n % 2)
			}
			got, err := f.store.Collection(model.CollectionLikes).CountDocuments(ctx, ds.All())
			return err == nil && got == want
		},
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func TestSubscriptionService(t *testing.T) {
	f := newFixture(t)
	channel := f.user(t, "gus")
	fan := f.user(t, "hal")
	ctx := context.Background()

	_, err := f.subscriptions.Toggle(ctx, fan.ID, fan.ID)
	assert.ErrorIs(t, err, model.ErrCannotSubscribeSelf)
	assert.Equal(t, model.KindConflict, model.KindOf(err))

	_, err = f.subscriptions.Toggle(ctx, fan.ID, bson.NewObjectID())
	assert.ErrorIs(t, err, model.ErrChannelNotFound)

	on, err := f.subscriptions.Toggle(ctx, fan.ID, channel.ID)
	require.NoError(t, err)
	assert.True(t, on.Subscribed)

	subs, err := f.subscriptions.Subscribers(ctx, channel.ID, pagination.NewOptions(1, 10))
	require.NoError(t, err)
	require.Len(t, subs.Docs, 1)
	assert.Equal(t, fan.ID, subs.Docs[0].Subscriber.ID)

	channels, err := f.subscriptions.SubscribedChannels(ctx, fan.ID, pagination.NewOptions(1, 10))
	require.NoError(t, err)
	require.Len(t, channels.Docs, 1)
	assert.Equal(t, channel.ID, channels.Docs[0].Channel.ID)

	off, err := f.subscriptions.Toggle(ctx, fan.ID, channel.ID)
	require.NoError(t, err)
	assert.False(t, off.Subscribed)

	empty, err := f.subscriptions.Subscribers(ctx, channel.ID, pagination.NewOptions(1, 10))
	require.NoError(t, err)
	assert.Empty(t, empty.Docs)
	assert.NotNil(t, empty.Docs)

	_, err = f.subscriptions.SubscribedChannels(ctx, bson.NewObjectID(), pagination.NewOptions(1, 10))
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

// =============================================================================
// PLAYLISTS
// =============================================================================

func TestPlaylistService(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "ida")
	other := f.user(t, "jay")
	a := f.video(t, other, "A")
	b := f.video(t, other, "B")
	ctx := context.Background()

	_, err := f.playlists.Create(ctx, owner.ID, &model.PlaylistRequest{Name: "mix"})
	assert.ErrorIs(t, err, model.ErrPlaylistFieldsRequired)

	p, err := f.playlists.Create(ctx, owner.ID, &model.PlaylistRequest{Name: " mix ", Description: "songs"})
	require.NoError(t, err)
	assert.Equal(t, "mix", p.Name)

	_, err = f.playlists.AddVideo(ctx, p.ID, b.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.playlists.AddVideo(ctx, p.ID, a.ID, owner.ID)
	require.NoError(t, err)

	_, err = f.playlists.AddVideo(ctx, p.ID, a.ID, owner.ID)
	assert.ErrorIs(t, err, model.ErrVideoAlreadyInPlaylist)
	_, err = f.playlists.AddVideo(ctx, p.ID, bson.NewObjectID(), owner.ID)
	assert.ErrorIs(t, err, model.ErrVideoNotFound)
	_, err = f.playlists.AddVideo(ctx, p.ID, a.ID, other.ID)
	assert.ErrorIs(t, err, model.ErrNotOwner)

	detail, err := f.playlists.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Videos, 2)
	assert.Equal(t, b.ID, detail.Videos[0].ID, "playlist order is insertion order")
	assert.Equal(t, int64(2), detail.TotalVideos)

	_, err = f.playlists.RemoveVideo(ctx, p.ID, b.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.playlists.RemoveVideo(ctx, p.ID, b.ID, owner.ID)
	assert.ErrorIs(t, err, model.ErrVideoNotInPlaylist)

	renamed, err := f.playlists.Update(ctx, p.ID, owner.ID, &model.PlaylistRequest{Name: "best", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "best", renamed.Name)
	_, err = f.playlists.Update(ctx, p.ID, other.ID, &model.PlaylistRequest{Name: "x", Description: "y"})
	assert.ErrorIs(t, err, model.ErrNotOwner)

	lists, err := f.playlists.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
	_, err = f.playlists.ListByUser(ctx, bson.NewObjectID())
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	require.NoError(t, f.playlists.Delete(ctx, p.ID, owner.ID))
	_, err = f.playlists.Get(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrPlaylistNotFound)
}

// =============================================================================
// DRAFT VISIBILITY
// =============================================================================

func TestDraftsStayHiddenFromOtherChannels(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "mia")
	fan := f.user(t, "ned")
	draft := f.video(t, owner, "secret draft")
	ctx := context.Background()

	liked, err := f.likes.ToggleVideoLike(ctx, fan.ID, draft.ID)
	require.NoError(t, err)
	require.True(t, liked.Liked)

	_, err = f.videos.TogglePublish(ctx, draft.ID, owner.ID)
	require.NoError(t, err)

	feed, err := f.likes.LikedVideos(ctx, fan.ID, pagination.NewOptions(1, 10))
	require.NoError(t, err)
	assert.Empty(t, feed.Docs, "an unpublished video leaves the liked feed")

	_, err = f.likes.ToggleVideoLike(ctx, bson.NewObjectID(), draft.ID)
	assert.ErrorIs(t, err, model.ErrVideoNotFound)

	_, err = f.comments.Add(ctx, draft.ID, fan.ID, "first")
	assert.ErrorIs(t, err, model.ErrVideoNotFound)
	_, err = f.comments.List(ctx, draft.ID, fan.ID, pagination.NewOptions(1, 10))
	assert.ErrorIs(t, err, model.ErrVideoNotFound)

	fanList, err := f.playlists.Create(ctx, fan.ID, &model.PlaylistRequest{Name: "saved", Description: "d"})
	require.NoError(t, err)
	_, err = f.playlists.AddVideo(ctx, fanList.ID, draft.ID, fan.ID)
	assert.ErrorIs(t, err, model.ErrVideoNotFound)

	// The owner still works with their own draft.
	_, err = f.comments.Add(ctx, draft.ID, owner.ID, "note to self")
	require.NoError(t, err)
	ownList, err := f.playlists.Create(ctx, owner.ID, &model.PlaylistRequest{Name: "wip", Description: "d"})
	require.NoError(t, err)
	_, err = f.playlists.AddVideo(ctx, ownList.ID, draft.ID, owner.ID)
	require.NoError(t, err)
	ownLike, err := f.likes.ToggleVideoLike(ctx, owner.ID, draft.ID)
	require.NoError(t, err)
	assert.True(t, ownLike.Liked)
	ownFeed, err := f.likes.LikedVideos(ctx, owner.ID, pagination.NewOptions(1, 10))
	require.NoError(t, err)
	assert.Len(t, ownFeed.Docs, 1)
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestDashboardService(t *testing.T) {
	f := newFixture(t)
	f.applyEvents()
	owner := f.user(t, "kim")
	fan := f.user(t, "lou")
	a := f.video(t, owner, "A")
	b := f.video(t, owner, "B")
	ctx := context.Background()

	_, err := f.videos.TogglePublish(ctx, b.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.videos.GetByID(ctx, a.ID, fan.ID)
	require.NoError(t, err)
	_, err = f.likes.ToggleVideoLike(ctx, fan.ID, a.ID)
	require.NoError(t, err)
	_, err = f.subscriptions.Toggle(ctx, fan.ID, owner.ID)
	require.NoError(t, err)

	stats, err := f.dashboard.Stats(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelStats{TotalVideos: 2, TotalViews: 1, TotalLikes: 1, TotalSubscribers: 1}, *stats)

	empty, err := f.dashboard.Stats(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelStats{}, *empty)

	videos, err := f.dashboard.Videos(ctx, owner.ID, pagination.NewOptions(1, 10))
	require.NoError(t, err)
	require.Len(t, videos.Docs, 2, "drafts are listed on the dashboard")
	assert.Equal(t, b.ID, videos.Docs[0].ID, "newest first")
}
