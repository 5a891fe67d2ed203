package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/cache"
	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
	"vidtube/internal/queue"
	"vidtube/internal/repository"
)

// =============================================================================
// FAKE MEDIA STORAGE
// =============================================================================
//
// Uploads never leave the process; each upload gets a unique key so tests can
// assert which objects were deleted afterwards.

type fakeMedia struct {
	mu       sync.Mutex
	seq      int
	uploaded []string
	deleted  []string

	duration  float64
	uploadErr error
}

func (m *fakeMedia) next(folder, ext string) *model.UploadResult {
	m.seq++
	key := fmt.Sprintf("%s/obj-%d%s", folder, m.seq, ext)
	m.uploaded = append(m.uploaded, key)
	return &model.UploadResult{URL: "https://cdn.test/" + key, Key: key}
}

func (m *fakeMedia) UploadImage(_ context.Context, _ model.FileInput, kind model.ImageKind) (*model.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return m.next(kind.Folder, model.ImageExt), nil
}

func (m *fakeMedia) UploadVideo(_ context.Context, _ model.FileInput) (*model.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	res := m.next(model.VideoFolder, ".mp4")
	res.Duration = m.duration
	return res, nil
}

func (m *fakeMedia) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *fakeMedia) deletedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

func upload(name string) *model.FileInput {
	return &model.FileInput{Header: &multipart.FileHeader{Filename: name, Size: 1}}
}

// =============================================================================
// RECORDING PUBLISHER
// =============================================================================

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	// apply, when set, handles each event synchronously like the worker would.
	apply func(ctx context.Context, e queue.Event) error
	err   error
}

func (p *recordingPublisher) Publish(ctx context.Context, _ string, e queue.Event) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.mu.Lock()
	p.events = append(p.events, e)
	n := len(p.events)
	p.mu.Unlock()
	if p.apply != nil {
		if err := p.apply(ctx, e); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%d-0", n), nil
}

func (p *recordingPublisher) ofType(eventType string) []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []queue.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// FIXTURE
// =============================================================================

type fixture struct {
	store     *ds.MemoryStore
	media     *fakeMedia
	publisher *recordingPublisher

	userRepo     repository.UserRepository
	videoRepo    repository.VideoRepository
	commentRepo  repository.CommentRepository
	tweetRepo    repository.TweetRepository
	playlistRepo repository.PlaylistRepository
	likeRepo     repository.LikeRepository
	subRepo      repository.SubscriptionRepository

	users         *UserService
	videos        *VideoService
	comments      *CommentService
	tweets        *TweetService
	likes         *LikeService
	subscriptions *SubscriptionService
	playlists     *PlaylistService
	dashboard     *DashboardService
	cleanup       *CleanupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := ds.NewMemoryStore()
	require.NoError(t, store.EnsureIndexes(context.Background(), repository.Indexes()))

	f := &fixture{
		store:        store,
		media:        &fakeMedia{duration: 12.34},
		publisher:    &recordingPublisher{},
		userRepo:     repository.NewUserRepository(store),
		videoRepo:    repository.NewVideoRepository(store),
		commentRepo:  repository.NewCommentRepository(store),
		tweetRepo:    repository.NewTweetRepository(store),
		playlistRepo: repository.NewPlaylistRepository(store),
		likeRepo:     repository.NewLikeRepository(store),
		subRepo:      repository.NewSubscriptionRepository(store),
	}
	f.users = NewUserService(f.userRepo, f.media)
	f.videos = NewVideoService(f.videoRepo, f.userRepo, f.media, cache.NewMemoryViewTracker(time.Hour), f.publisher)
	f.comments = NewCommentService(f.commentRepo, f.videoRepo, f.publisher)
	f.tweets = NewTweetService(f.tweetRepo, f.userRepo, f.publisher)
	f.likes = NewLikeService(f.likeRepo, f.videoRepo, f.commentRepo, f.tweetRepo)
	f.subscriptions = NewSubscriptionService(f.subRepo, f.userRepo)
	f.playlists = NewPlaylistService(f.playlistRepo, f.videoRepo, f.userRepo)
	f.dashboard = NewDashboardService(f.videoRepo, f.subRepo)
	f.cleanup = NewCleanupService(f.likeRepo, f.commentRepo, f.playlistRepo, f.media)
	return f
}

// applyEvents makes the publisher run each event inline the way the worker
// handler dispatches them.
func (f *fixture) applyEvents() {
	f.publisher.apply = func(ctx context.Context, e queue.Event) error {
		switch e.Type {
		case queue.EventVideoViewed:
			videoID, _ := bson.ObjectIDFromHex(e.VideoID)
			viewerID, _ := bson.ObjectIDFromHex(e.ViewerID)
			return f.videos.RecordView(ctx, videoID, viewerID)
		case queue.EventVideoDeleted:
			videoID, _ := bson.ObjectIDFromHex(e.VideoID)
			return f.cleanup.PurgeVideo(ctx, videoID, e.ObjectKeys)
		case queue.EventCommentDeleted:
			id, _ := bson.ObjectIDFromHex(e.CommentID)
			return f.cleanup.PurgeLikes(ctx, model.LikeTargetComment, id)
		case queue.EventTweetDeleted:
			id, _ := bson.ObjectIDFromHex(e.TweetID)
			return f.cleanup.PurgeLikes(ctx, model.LikeTargetTweet, id)
		}
		return errors.New("unknown event")
	}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), &model.RegisterRequest{
		UserName: name,
		Email:    name + "@example.com",
		FullName: "User " + name,
		Password: "password-" + name,
	}, upload("avatar.png"), nil)
	require.NoError(t, err)
	return u
}

func (f *fixture) video(t *testing.T, owner *model.User, title string) *model.Video {
	t.Helper()
	v, err := f.videos.Publish(context.Background(), owner.ID, &model.PublishVideoRequest{
		Title:       title,
		Description: "about " + title,
	}, upload("clip.mp4"), upload("thumb.jpg"))
	require.NoError(t, err)
	return v
}
