package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/queue"
)

// =============================================================================
// PUBLISH
// =============================================================================

func TestVideoService_Publish(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")

	v := f.video(t, owner, "First")
	assert.True(t, v.IsPublished)
	assert.Equal(t, owner.ID, v.Owner)
	assert.Equal(t, 12.3, v.Duration, "probed duration rounded to one decimal")
	assert.NotEmpty(t, v.VideoFileKey)
	assert.NotEmpty(t, v.ThumbnailKey)

	explicit := 90.06
	v2, err := f.videos.Publish(context.Background(), owner.ID, &model.PublishVideoRequest{
		Title: "Second", Description: "d", Duration: &explicit,
	}, upload("b.mp4"), upload("b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 90.1, v2.Duration)
}

func TestVideoService_Publish_Validation(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name      string
		req       model.PublishVideoRequest
		video     *model.FileInput
		thumbnail *model.FileInput
		wantErr   error
	}{
		{"missing title", model.PublishVideoRequest{Description: "d"}, upload("v.mp4"), upload("t.jpg"), model.ErrVideoFieldsRequired},
		{"blank description", model.PublishVideoRequest{Title: "t", Description: " "}, upload("v.mp4"), upload("t.jpg"), model.ErrVideoFieldsRequired},
		{"negative duration", model.PublishVideoRequest{Title: "t", Description: "d", Duration: &negative}, upload("v.mp4"), upload("t.jpg"), model.ErrInvalidVideoDuration},
		{"missing video", model.PublishVideoRequest{Title: "t", Description: "d"}, nil, upload("t.jpg"), model.ErrVideoFileRequired},
		{"missing thumbnail", model.PublishVideoRequest{Title: "t", Description: "d"}, upload("v.mp4"), nil, model.ErrThumbnailRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.videos.Publish(context.Background(), bson.NewObjectID(), &tt.req, tt.video, tt.thumbnail)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.media.uploaded)
		})
	}
}

// =============================================================================
// DETAIL AND VIEWS
// =============================================================================

func TestVideoService_GetByID_UnpublishedOnlyForOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "bob")
	other := f.user(t, "carol")
	v := f.video(t, owner, "Draft")
	ctx := context.Background()

	_, err := f.videos.TogglePublish(ctx, v.ID, owner.ID)
	require.NoError(t, err)

	_, err = f.videos.GetByID(ctx, v.ID, other.ID)
	assert.ErrorIs(t, err, model.ErrVideoNotFound)
	_, err = f.videos.GetByID(ctx, v.ID, bson.NilObjectID)
	assert.ErrorIs(t, err, model.ErrVideoNotFound)

	detail, err := f.videos.GetByID(ctx, v.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsPublished)

	_, err = f.videos.GetByID(ctx, bson.NewObjectID(), owner.ID)
	assert.ErrorIs(t, err, model.ErrVideoNotFound)
}

func TestVideoService_GetByID_CountsViewOncePerWindow(t *testing.T) {
	f := newFixture(t)
	f.applyEvents()
	owner := f.user(t, "dave")
	viewer := f.user(t, "erin")
	v := f.video(t, owner, "Clip")
	ctx := context.Background()

	first, err := f.videos.GetByID(ctx, v.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Views)

	again, err := f.videos.GetByID(ctx, v.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Views, "repeat views inside the window are not counted")

	anonymous, err := f.videos.GetByID(ctx, v.ID, bson.NilObjectID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), anonymous.Views)

	assert.Len(t, f.publisher.ofType(queue.EventVideoViewed), 1)

	history, err := f.users.WatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, v.ID, history[0].ID)
}

func TestVideoService_GetByID_PublishFailureStillServes(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("redis down")
	owner := f.user(t, "fay")
	viewer := f.user(t, "gus")
	v := f.video(t, owner, "Clip")

	detail, err := f.videos.GetByID(context.Background(), v.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), detail.Views)
}

// =============================================================================
// OWNER WRITES
// =============================================================================

func TestVideoService_Update(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "hal")
	other := f.user(t, "ida")
	v := f.video(t, owner, "Old")
	ctx := context.Background()

	_, err := f.videos.Update(ctx, v.ID, other.ID, &model.UpdateVideoRequest{Title: "x", Description: "y"}, nil)
	assert.ErrorIs(t, err, model.ErrNotOwner)
	assert.Equal(t, model.KindUnauthorized, model.KindOf(err))

	_, err = f.videos.Update(ctx, v.ID, owner.ID, &model.UpdateVideoRequest{Title: "x"}, nil)
	assert.ErrorIs(t, err, model.ErrVideoFieldsRequired)

	updated, err := f.videos.Update(ctx, v.ID, owner.ID, &model.UpdateVideoRequest{Title: "New", Description: "Desc"}, upload("t2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.NotEqual(t, v.ThumbnailKey, updated.ThumbnailKey)
	assert.Equal(t, []string{v.ThumbnailKey}, f.media.deletedKeys())
	assert.Equal(t, v.VideoFile, updated.VideoFile)
}

func TestVideoService_TogglePublish(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "jay")
	v := f.video(t, owner, "Toggle")
	ctx := context.Background()

	off, err := f.videos.TogglePublish(ctx, v.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, off.IsPublished)
	on, err := f.videos.TogglePublish(ctx, v.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, on.IsPublished)

	_, err = f.videos.TogglePublish(ctx, v.ID, bson.NewObjectID())
	assert.ErrorIs(t, err, model.ErrNotOwner)
}

func TestVideoService_Delete_PurgesEverything(t *testing.T) {
	f := newFixture(t)
	f.applyEvents()
	owner := f.user(t, "kim")
	fan := f.user(t, "lou")
	v := f.video(t, owner, "Doomed")
	keep := f.video(t, owner, "Kept")
	ctx := context.Background()

	c, err := f.comments.Add(ctx, v.ID, fan.ID, "nice")
	require.NoError(t, err)
	_, err = f.likes.ToggleCommentLike(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	_, err = f.likes.ToggleVideoLike(ctx, fan.ID, v.ID)
	require.NoError(t, err)
	_, err = f.likes.ToggleVideoLike(ctx, fan.ID, keep.ID)
	require.NoError(t, err)
	p, err := f.playlists.Create(ctx, fan.ID, &model.PlaylistRequest{Name: "mix", Description: "d"})
	require.NoError(t, err)
	_, err = f.playlists.AddVideo(ctx, p.ID, v.ID, fan.ID)
	require.NoError(t, err)
	_, err = f.playlists.AddVideo(ctx, p.ID, keep.ID, fan.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.videos.Delete(ctx, v.ID, fan.ID), model.ErrNotOwner)
	require.NoError(t, f.videos.Delete(ctx, v.ID, owner.ID))

	events := f.publisher.ofType(queue.EventVideoDeleted)
	require.Len(t, events, 1)
	assert.ElementsMatch(t, []string{v.VideoFileKey, v.ThumbnailKey}, events[0].ObjectKeys)
	assert.ElementsMatch(t, []string{v.VideoFileKey, v.ThumbnailKey}, f.media.deletedKeys())

	_, err = f.videos.GetByID(ctx, v.ID, owner.ID)
	assert.ErrorIs(t, err, model.ErrVideoNotFound)
	_, err = f.commentRepo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, model.ErrCommentNotFound)

	liked, err := f.likes.LikedVideos(ctx, fan.ID, pagination.NewOptions(1, 10))
	require.NoError(t, err)
	require.Len(t, liked.Docs, 1)
	assert.Equal(t, keep.ID, liked.Docs[0].Video.ID)

	remaining, err := f.store.Collection(model.CollectionLikes).CountDocuments(ctx, ds.All())
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining, "only the like on the kept video survives")

	detail, err := f.playlists.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Videos, 1)
	assert.Equal(t, keep.ID, detail.Videos[0].ID)
}

func TestVideoService_List(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "max")
	viewer := f.user(t, "ned")
	f.video(t, owner, "Cats")
	hidden := f.video(t, owner, "Dogs")
	f.video(t, viewer, "Birds")
	ctx := context.Background()

	_, err := f.videos.TogglePublish(ctx, hidden.ID, owner.ID)
	require.NoError(t, err)

	all, err := f.videos.List(ctx, model.VideoQuery{ViewerID: viewer.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalDocs, "unpublished videos stay out of the public feed")
	assert.Equal(t, "Birds", all.Docs[0].Title, "default sort is title ascending")

	own, err := f.videos.List(ctx, model.VideoQuery{UserID: owner.ID, ViewerID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), own.TotalDocs, "owners see their drafts")

	search, err := f.videos.List(ctx, model.VideoQuery{Query: "cat"})
	require.NoError(t, err)
	require.Len(t, search.Docs, 1)
	assert.Equal(t, "Cats", search.Docs[0].Title)
}
