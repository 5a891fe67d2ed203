package service

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/repository"
	"vidtube/internal/view"
)

// DashboardService backs the creator dashboard of the signed-in user.
type DashboardService struct {
	videos repository.VideoRepository
	subs   repository.SubscriptionRepository
}

func NewDashboardService(videos repository.VideoRepository, subs repository.SubscriptionRepository) *DashboardService {
	return &DashboardService{videos: videos, subs: subs}
}

// Stats aggregates video, view, like and subscriber totals of the channel.
func (s *DashboardService) Stats(ctx context.Context, userID bson.ObjectID) (*model.ChannelStats, error) {
	if err := model.RequireIDs(userID); err != nil {
		return nil, err
	}

	var stats *model.ChannelStats
	var subscribers int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.videos.ChannelStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		subscribers, err = s.subs.CountSubscribers(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.TotalSubscribers = subscribers
	return stats, nil
}

// Videos lists every video of the channel, unpublished ones included, newest
// first.
func (s *DashboardService) Videos(ctx context.Context, userID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.VideoCard], error) {
	if err := model.RequireIDs(userID); err != nil {
		return nil, err
	}
	filter := view.VideoFeedFilter{
		OwnerID:            userID,
		ViewerID:           userID,
		SortBy:             "createdAt",
		SortType:           model.SortDescending,
		IncludeUnpublished: true,
	}
	return s.videos.Feed(ctx, filter, opts)
}
