package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
	"vidtube/internal/view"
)

// userRepository implements UserRepository over the document store
type userRepository struct {
	users ds.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(store ds.Store) UserRepository {
	return &userRepository{users: store.Collection(model.CollectionUsers)}
}

// Create inserts a new user. A clash on userName or email is ErrUserExists.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []bson.ObjectID{}
	}
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt

	if err := r.users.InsertOne(ctx, u); err != nil {
		if errors.Is(err, ds.ErrDuplicateKey) {
			return model.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.User, error) {
	return r.findOne(ctx, ds.Eq("_id", id))
}

// GetByLogin retrieves a user by user name or email
func (r *userRepository) GetByLogin(ctx context.Context, userName, email string) (*model.User, error) {
	cond, ok := loginCond(userName, email)
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return r.findOne(ctx, cond)
}

// ExistsByUserNameOrEmail checks whether either identifier is already taken
func (r *userRepository) ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error) {
	cond, ok := loginCond(userName, email)
	if !ok {
		return false, nil
	}
	n, err := r.users.CountDocuments(ctx, cond)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return n > 0, nil
}

func (r *userRepository) Exists(ctx context.Context, id bson.ObjectID) (bool, error) {
	n, err := r.users.CountDocuments(ctx, ds.Eq("_id", id))
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return n > 0, nil
}

func (r *userRepository) UpdateAccount(ctx context.Context, id bson.ObjectID, fullName, email string) (*model.User, error) {
	u, err := r.update(ctx, id, ds.Update{Set: map[string]any{
		"fullName":  fullName,
		"email":     model.NormalizeEmail(email),
		"updatedAt": now(),
	}})
	if errors.Is(err, ds.ErrDuplicateKey) {
		return nil, model.ErrEmailTaken
	}
	return u, err
}

func (r *userRepository) UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error {
	_, err := r.update(ctx, id, ds.Update{Set: map[string]any{
		"password":  passwordHash,
		"updatedAt": now(),
	}})
	return err
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id bson.ObjectID, image model.UploadResult) (*model.User, error) {
	return r.update(ctx, id, ds.Update{Set: map[string]any{
		"avatar":    image.URL,
		"avatarKey": image.Key,
		"updatedAt": now(),
	}})
}

func (r *userRepository) UpdateCoverImage(ctx context.Context, id bson.ObjectID, image model.UploadResult) (*model.User, error) {
	return r.update(ctx, id, ds.Update{Set: map[string]any{
		"coverImage":    image.URL,
		"coverImageKey": image.Key,
		"updatedAt":     now(),
	}})
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id bson.ObjectID, tokenHash *string) error {
	update := ds.Update{Unset: []string{"refreshToken"}}
	if tokenHash != nil {
		update = ds.Update{Set: map[string]any{"refreshToken": *tokenHash}}
	}
	res, err := r.users.UpdateOne(ctx, ds.Eq("_id", id), update)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	if res.Matched == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// ChannelProfile returns a channel page with its subscription counters
func (r *userRepository) ChannelProfile(ctx context.Context, userName string, viewerID bson.ObjectID) (*model.ChannelProfile, error) {
	p, err := view.ChannelProfile(userName, viewerID)
	if err != nil {
		return nil, err
	}
	docs, err := r.users.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel profile: %w", err)
	}
	if len(docs) == 0 {
		return nil, model.ErrChannelNotFound
	}
	profile, err := ds.Decode[model.ChannelProfile](docs[0])
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// WatchHistory returns the user's watched videos, most recent first. Videos
// deleted since they were watched are skipped.
func (r *userRepository) WatchHistory(ctx context.Context, id bson.ObjectID) ([]model.VideoCard, error) {
	p, err := view.WatchHistory(id)
	if err != nil {
		return nil, err
	}
	docs, err := r.users.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load watch history: %w", err)
	}
	if len(docs) == 0 {
		return nil, model.ErrUserNotFound
	}
	h, err := ds.Decode[view.WatchHistoryDoc](docs[0])
	if err != nil {
		return nil, err
	}
	return view.OrderCards(h.History, h.WatchHistory, true), nil
}

// AddToWatchHistory moves videoID to the most recent end of the history and
// keeps at most model.MaxWatchHistory entries. Mongo rejects $pull and $push
// on one field in a single update, so the move takes two writes; the push
// trims in the same write that grows the array.
func (r *userRepository) AddToWatchHistory(ctx context.Context, userID, videoID bson.ObjectID) error {
	if _, err := r.users.UpdateOne(ctx, ds.Eq("_id", userID), ds.Update{Pull: map[string]any{"watchHistory": videoID}}); err != nil {
		return fmt.Errorf("failed to update watch history: %w", err)
	}
	_, err := r.update(ctx, userID, ds.Update{Push: map[string]any{
		"watchHistory": ds.PushEach{Values: []any{videoID}, KeepLast: model.MaxWatchHistory},
	}})
	return err
}

func (r *userRepository) findOne(ctx context.Context, filter ds.Cond) (*model.User, error) {
	var u model.User
	if err := r.users.FindOne(ctx, filter, &u); err != nil {
		if errors.Is(err, ds.ErrNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// update applies u to one user and returns the result. Duplicate-key errors
// are passed through unwrapped for the caller to classify.
func (r *userRepository) update(ctx context.Context, id bson.ObjectID, u ds.Update) (*model.User, error) {
	var out model.User
	err := r.users.FindOneAndUpdate(ctx, ds.Eq("_id", id), u, &out)
	switch {
	case err == nil:
		return &out, nil
	case errors.Is(err, ds.ErrNotFound):
		return nil, model.ErrUserNotFound
	case errors.Is(err, ds.ErrDuplicateKey):
		return nil, ds.ErrDuplicateKey
	default:
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
}

func loginCond(userName, email string) (ds.Cond, bool) {
	var conds []ds.Cond
	if n := model.NormalizeUserName(userName); n != "" {
		conds = append(conds, ds.Eq("userName", n))
	}
	if e := model.NormalizeEmail(email); e != "" {
		conds = append(conds, ds.Eq("email", e))
	}
	if len(conds) == 0 {
		return ds.Cond{}, false
	}
	return ds.Or(conds...), true
}
