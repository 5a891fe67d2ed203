package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vidtube/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second

	maxReadBackoff = 30 * time.Second
)

// ManagerConfig tunes the stream consumers. Zero values fall back to the
// defaults above.
type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
	// ConsumerPrefix names this process inside the consumer group; the host
	// name is used when empty so replicas never share a pending list.
	ConsumerPrefix string
}

// Manager runs WorkerCount consumers of the event stream. Every delivered
// message is acknowledged once handled, whether or not the handler failed:
// the side effects are best effort and a poison event must not loop.
type Manager struct {
	consumer queue.Consumer
	handler  *Handler
	cfg      ManagerConfig

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}
	if cfg.ConsumerPrefix == "" {
		cfg.ConsumerPrefix = "vidtube"
		if host, err := os.Hostname(); err == nil && host != "" {
			cfg.ConsumerPrefix = host
		}
	}
	return &Manager{consumer: consumer, handler: handler, cfg: cfg}
}

// Start creates the consumer group if needed and launches the workers. They
// run until ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamEvents, queue.ConsumerGroupEvents); err != nil {
		m.cancel()
		return err
	}

	log.Info().
		Int("workers", m.cfg.WorkerCount).
		Str("stream", queue.StreamEvents).
		Str("group", queue.ConsumerGroupEvents).
		Msg("[Manager] Starting workers")

	for i := 1; i <= m.cfg.WorkerCount; i++ {
		w := &streamWorker{
			manager: m,
			name:    fmt.Sprintf("%s-%d", m.cfg.ConsumerPrefix, i),
		}
		w.logger = log.With().Str("consumer", w.name).Logger()

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.run()
		}()
	}
	return nil
}

// Stop cancels the workers and waits for their current batch to finish.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	log.Info().Msg("[Manager] All workers stopped")
}

// streamWorker is one named consumer in the group.
type streamWorker struct {
	manager *Manager
	name    string
	logger  zerolog.Logger
	backoff time.Duration
}

func (w *streamWorker) run() {
	ctx := w.manager.ctx

	// Entries delivered to this name before a restart come back first.
	w.drainPending(ctx)

	for ctx.Err() == nil {
		messages, err := w.manager.consumer.Read(ctx,
			queue.StreamEvents, queue.ConsumerGroupEvents, w.name,
			w.manager.cfg.BatchSize, w.manager.cfg.BlockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.wait(ctx, err)
			continue
		}
		w.backoff = 0
		_ = w.handle(ctx, messages)
	}
}

func (w *streamWorker) drainPending(ctx context.Context) {
	for ctx.Err() == nil {
		messages, err := w.manager.consumer.ReadPending(ctx,
			queue.StreamEvents, queue.ConsumerGroupEvents, w.name, w.manager.cfg.BatchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("[Worker] Reading pending entries failed")
			return
		}
		if len(messages) == 0 {
			return
		}
		w.logger.Info().Int("count", len(messages)).Msg("[Worker] Replaying pending entries")
		if err := w.handle(ctx, messages); err != nil {
			// Unacked entries stay pending and would be replayed at once.
			w.wait(ctx, err)
		} else {
			w.backoff = 0
		}
	}
}

// wait sleeps after a failed read or ack, doubling up to maxReadBackoff.
func (w *streamWorker) wait(ctx context.Context, cause error) {
	switch {
	case w.backoff == 0:
		w.backoff = time.Second
	case w.backoff < maxReadBackoff:
		w.backoff *= 2
		if w.backoff > maxReadBackoff {
			w.backoff = maxReadBackoff
		}
	}
	w.logger.Error().Err(cause).Dur("retry_in", w.backoff).Msg("[Worker] Stream call failed")

	t := time.NewTimer(w.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// handle runs the batch and acks it. The returned error is the ack failure.
func (w *streamWorker) handle(ctx context.Context, messages []queue.Message) error {
	if len(messages) == 0 {
		return nil
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		started := time.Now()
		if err := w.manager.handler.HandleEvent(ctx, msg.Event); err != nil {
			w.logger.Error().Err(err).
				Str("msg_id", msg.ID).
				Str("type", msg.Event.Type).
				Msg("[Worker] Event failed")
		} else {
			w.logger.Debug().
				Str("msg_id", msg.ID).
				Str("type", msg.Event.Type).
				Dur("took", time.Since(started)).
				Msg("[Worker] Event handled")
		}
		ids = append(ids, msg.ID)
	}

	// Acks go out even when ctx was cancelled mid-batch.
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.manager.consumer.Ack(ackCtx, queue.StreamEvents, queue.ConsumerGroupEvents, ids...); err != nil {
		w.logger.Error().Err(err).Strs("msg_ids", ids).Msg("[Worker] Ack failed")
		return err
	}
	return nil
}
