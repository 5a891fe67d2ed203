package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionRetention is how long expired refresh tokens are kept for reuse
// detection before the janitor deletes them.
const SessionRetention = 7 * 24 * time.Hour

// SessionPurger deletes refresh tokens expired for longer than retention.
type SessionPurger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// Janitor periodically purges stale sessions.
type Janitor struct {
	purger    SessionPurger
	interval  time.Duration
	retention time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewJanitor(purger SessionPurger, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{purger: purger, interval: interval, retention: SessionRetention}
}

// Start runs one purge immediately and then one per interval.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			j.RunOnce(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// RunOnce purges once and logs the outcome.
func (j *Janitor) RunOnce(ctx context.Context) {
	n, err := j.purger.PurgeExpired(ctx, j.retention)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("[Janitor] Failed to purge expired sessions")
		}
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("[Janitor] Purged expired sessions")
	}
}

// Stop waits for the running purge to finish.
func (j *Janitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	j.wg.Wait()
}
