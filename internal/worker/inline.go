package worker

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"vidtube/internal/queue"
)

var errNoHandler = errors.New("inline publisher: no handler set")

// InlinePublisher runs every event through the handler synchronously. It
// stands in for the Redis stream when no Redis is configured.
type InlinePublisher struct {
	handler atomic.Pointer[Handler]
	seq     atomic.Int64
}

// NewInlinePublisher returns a publisher without a handler; services that the
// handler itself depends on can be built with it before SetHandler is called.
func NewInlinePublisher() *InlinePublisher {
	return &InlinePublisher{}
}

// SetHandler sets the handler events are dispatched to.
func (p *InlinePublisher) SetHandler(h *Handler) {
	p.handler.Store(h)
}

// Publish handles the event before returning. Ids mimic stream ids.
func (p *InlinePublisher) Publish(ctx context.Context, _ string, event queue.Event) (string, error) {
	h := p.handler.Load()
	if h == nil {
		return "", errNoHandler
	}
	if err := h.HandleEvent(ctx, event); err != nil {
		return "", err
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.FormatInt(p.seq.Add(1), 10), nil
}
