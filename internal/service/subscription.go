package service

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/repository"
)

type SubscriptionService struct {
	subs  repository.SubscriptionRepository
	users repository.UserRepository
}

func NewSubscriptionService(subs repository.SubscriptionRepository, users repository.UserRepository) *SubscriptionService {
	return &SubscriptionService{
		subs:  subs,
		users: users,
	}
}

// Toggle subscribes to the channel, or unsubscribes when already subscribed.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID bson.ObjectID) (*model.SubscriptionToggleResult, error) {
	if err := model.RequireIDs(subscriberID, channelID); err != nil {
		return nil, err
	}
	if subscriberID == channelID {
		return nil, model.ErrCannotSubscribeSelf
	}
	if err := s.requireUser(ctx, channelID, model.ErrChannelNotFound); err != nil {
		return nil, err
	}
	return s.subs.Toggle(ctx, subscriberID, channelID)
}

// Subscribers lists who subscribes to the channel, newest first.
func (s *SubscriptionService) Subscribers(ctx context.Context, channelID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.SubscriberView], error) {
	if err := s.requireUser(ctx, channelID, model.ErrChannelNotFound); err != nil {
		return nil, err
	}
	return s.subs.Subscribers(ctx, channelID, opts)
}

// SubscribedChannels lists the channels the user subscribes to, newest first.
func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriberID bson.ObjectID, opts pagination.Options) (*pagination.Page[model.SubscribedChannelView], error) {
	if err := s.requireUser(ctx, subscriberID, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	return s.subs.SubscribedChannels(ctx, subscriberID, opts)
}

func (s *SubscriptionService) requireUser(ctx context.Context, id bson.ObjectID, missing error) error {
	if err := model.RequireIDs(id); err != nil {
		return err
	}
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return missing
	}
	return nil
}
