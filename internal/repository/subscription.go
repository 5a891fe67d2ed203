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

type subscriptionRepository struct {
	subscriptions ds.Collection
}

func NewSubscriptionRepository(store ds.Store) SubscriptionRepository {
	return &subscriptionRepository{subscriptions: store.Collection(model.CollectionSubscriptions)}
}

// Toggle has the same delete-else-insert shape as the like toggle, backed by
// the unique (subscriber, channel) index.
func (r *subscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID bson.ObjectID) (*model.SubscriptionToggleResult, error) {
	filter := ds.And(ds.Eq("subscriber", subscriberID), ds.Eq("channel", channelID))

	err := r.subscriptions.FindOneAndDelete(ctx, filter, nil)
	if err == nil {
		return &model.SubscriptionToggleResult{Subscribed: false}, nil
	}
	if !errors.Is(err, ds.ErrNotFound) {
		return nil, fmt.Errorf("failed to remove subscription: %w", err)
	}

	ts := now()
	sub := &model.Subscription{
		ID:         bson.NewObjectID(),
		Subscriber: subscriberID,
		Channel:    channelID,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if err := r.subscriptions.InsertOne(ctx, sub); err != nil {
		if !errors.Is(err, ds.ErrDuplicateKey) {
			return nil, fmt.Errorf("failed to insert subscription: %w", err)
		}
		var existing model.Subscription
		if err := r.subscriptions.FindOne(ctx, filter, &existing); err != nil {
			return nil, fmt.Errorf("failed to load concurrent subscription: %w", err)
		}
		sub = &existing
	}
	return &model.SubscriptionToggleResult{Subscribed: true, Subscription: sub}, nil
}

// Subscribers pages the subscribers of a channel, newest first.
func (r *subscriptionRepository) Subscribers(ctx context.Context, channelID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.SubscriberView], error) {
	p, err := view.ChannelSubscribers(channelID)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate[model.SubscriberView](ctx, r.subscriptions, sortAfterMatch(p, ds.Desc("createdAt"), ds.Desc("_id")), opts)
}

func (r *subscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.SubscribedChannelView], error) {
	p, err := view.SubscribedChannels(subscriberID)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate[model.SubscribedChannelView](ctx, r.subscriptions, sortAfterMatch(p, ds.Desc("createdAt"), ds.Desc("_id")), opts)
}

func (r *subscriptionRepository) CountSubscribers(ctx context.Context, channelID bson.ObjectID) (int64, error) {
	n, err := r.subscriptions.CountDocuments(ctx, ds.Eq("channel", channelID))
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return n, nil
}
