package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/view"
)

type videoRepository struct {
	videos ds.Collection
}

func NewVideoRepository(store ds.Store) VideoRepository {
	return &videoRepository{videos: store.Collection(model.CollectionVideos)}
}

func (r *videoRepository) Create(ctx context.Context, v *model.Video) error {
	if v.ID.IsZero() {
		v.ID = bson.NewObjectID()
	}
	v.CreatedAt = now()
	v.UpdatedAt = v.CreatedAt
	if err := r.videos.InsertOne(ctx, v); err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Video, error) {
	var v model.Video
	if err := r.videos.FindOne(ctx, ds.Eq("_id", id), &v); err != nil {
		return nil, videoErr(err, "get video")
	}
	return &v, nil
}

func (r *videoRepository) Exists(ctx context.Context, id bson.ObjectID) (bool, error) {
	n, err := r.videos.CountDocuments(ctx, ds.Eq("_id", id))
	if err != nil {
		return false, fmt.Errorf("failed to check video existence: %w", err)
	}
	return n > 0, nil
}

func (r *videoRepository) VisibleTo(ctx context.Context, id, viewerID bson.ObjectID) (bool, error) {
	n, err := r.videos.CountDocuments(ctx, ds.And(ds.Eq("_id", id), visibleTo(viewerID)))
	if err != nil {
		return false, fmt.Errorf("failed to check video visibility: %w", err)
	}
	return n > 0, nil
}

// visibleTo matches published videos and the viewer's own drafts.
func visibleTo(viewerID bson.ObjectID) ds.Cond {
	if viewerID.IsZero() {
		return ds.Eq("isPublished", true)
	}
	return ds.Or(ds.Eq("isPublished", true), ds.Eq("owner", viewerID))
}

func (r *videoRepository) Update(ctx context.Context, id, ownerID bson.ObjectID, set map[string]any) (*model.Video, error) {
	fields := make(map[string]any, len(set)+1)
	for k, v := range set {
		fields[k] = v
	}
	fields["updatedAt"] = now()

	var v model.Video
	if err := r.videos.FindOneAndUpdate(ctx, owned(id, ownerID), ds.Update{Set: fields}, &v); err != nil {
		return nil, videoErr(err, "update video")
	}
	return &v, nil
}

func (r *videoRepository) Delete(ctx context.Context, id, ownerID bson.ObjectID) (*model.Video, error) {
	var v model.Video
	if err := r.videos.FindOneAndDelete(ctx, owned(id, ownerID), &v); err != nil {
		return nil, videoErr(err, "delete video")
	}
	return &v, nil
}

// TogglePublish flips isPublished in a single write.
func (r *videoRepository) TogglePublish(ctx context.Context, id, ownerID bson.ObjectID) (*model.Video, error) {
	update := ds.Update{
		Set:     map[string]any{"updatedAt": now()},
		SetExpr: []ds.Assign{ds.Set("isPublished", ds.Not(ds.Field("isPublished")))},
	}
	var v model.Video
	if err := r.videos.FindOneAndUpdate(ctx, owned(id, ownerID), update, &v); err != nil {
		return nil, videoErr(err, "toggle publish")
	}
	return &v, nil
}

func (r *videoRepository) IncrementViews(ctx context.Context, id bson.ObjectID) error {
	res, err := r.videos.UpdateOne(ctx, ds.Eq("_id", id), ds.Update{Inc: map[string]any{"views": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if res.Matched == 0 {
		return model.ErrVideoNotFound
	}
	return nil
}

func (r *videoRepository) Feed(ctx context.Context, filter view.VideoFeedFilter, opts pagination.Options) (*pagination.Page[model.VideoCard], error) {
	return pagination.Paginate[model.VideoCard](ctx, r.videos, view.VideoFeed(filter), opts)
}

func (r *videoRepository) Detail(ctx context.Context, id, viewerID bson.ObjectID) (*model.VideoDetail, error) {
	p, err := view.VideoDetail(id, viewerID)
	if err != nil {
		return nil, err
	}
	docs, err := r.videos.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load video: %w", err)
	}
	if len(docs) == 0 {
		return nil, model.ErrVideoNotFound
	}
	d, err := ds.Decode[model.VideoDetail](docs[0])
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *videoRepository) ChannelStats(ctx context.Context, ownerID bson.ObjectID) (*model.ChannelStats, error) {
	p, err := view.ChannelVideoStats(ownerID)
	if err != nil {
		return nil, err
	}
	docs, err := r.videos.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel stats: %w", err)
	}
	if len(docs) == 0 {
		return &model.ChannelStats{}, nil
	}
	stats, err := ds.Decode[model.ChannelStats](docs[0])
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// owned matches one document by id and owner.
func owned(id, ownerID bson.ObjectID) ds.Cond {
	return ds.And(ds.Eq("_id", id), ds.Eq("owner", ownerID))
}

func videoErr(err error, op string) error {
	if errors.Is(err, ds.ErrNotFound) {
		return model.ErrVideoNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
