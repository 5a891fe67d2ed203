package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ViewKeyPrefix is the key prefix for view de-duplication markers
	ViewKeyPrefix = "view:"

	// DefaultViewWindow is how long a repeat view by the same viewer is ignored
	DefaultViewWindow = time.Hour
)

// ViewTracker decides whether a video view counts.
type ViewTracker interface {
	// MarkViewed records that viewerID opened videoID and reports whether
	// this is the first view inside the window.
	MarkViewed(ctx context.Context, videoID, viewerID string) (bool, error)
}

// RedisViewTracker implements ViewTracker with SET NX markers that expire
// after the window.
type RedisViewTracker struct {
	client *redis.Client
	window time.Duration
}

// NewViewTracker creates a ViewTracker backed by Redis.
func NewViewTracker(client *redis.Client, window time.Duration) ViewTracker {
	if window <= 0 {
		window = DefaultViewWindow
	}
	return &RedisViewTracker{client: client, window: window}
}

// viewKey returns the Redis key for one (video, viewer) marker.
func viewKey(videoID, viewerID string) string {
	return fmt.Sprintf("%s%s:%s", ViewKeyPrefix, videoID, viewerID)
}

func (t *RedisViewTracker) MarkViewed(ctx context.Context, videoID, viewerID string) (bool, error) {
	first, err := t.client.SetNX(ctx, viewKey(videoID, viewerID), 1, t.window).Result()
	if err != nil {
		return false, fmt.Errorf("setnx view marker: %w", err)
	}
	return first, nil
}

// MemoryViewTracker is the in-process ViewTracker used when Redis is not
// configured.
type MemoryViewTracker struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	now    func() time.Time
}

func NewMemoryViewTracker(window time.Duration) *MemoryViewTracker {
	if window <= 0 {
		window = DefaultViewWindow
	}
	return &MemoryViewTracker{seen: make(map[string]time.Time), window: window, now: time.Now}
}

func (t *MemoryViewTracker) MarkViewed(_ context.Context, videoID, viewerID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	key := viewKey(videoID, viewerID)
	if until, ok := t.seen[key]; ok && now.Before(until) {
		return false, nil
	}
	t.seen[key] = now.Add(t.window)

	// Sweep expired markers once the map grows.
	if len(t.seen) > 10000 {
		for k, until := range t.seen {
			if !now.Before(until) {
				delete(t.seen, k)
			}
		}
	}
	return true, nil
}
