package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guildcasino/casino/internal/domain"
)

// OutboxSource yields committed outbox rows and drops relayed ones.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxDraft, error)
	MarkPublished(ctx context.Context, ids []int64) error
}

// EventPublisher delivers a batch of events to the broker.
type EventPublisher interface {
	PublishEvents(ctx context.Context, events []domain.OutboxDraft) error
}

// OutboxRelay polls the event_outbox table and publishes events to Kafka.
// Rows are removed only after the broker accepted them, so delivery is
// at least once.
type OutboxRelay struct {
	source    OutboxSource
	publisher EventPublisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxRelay creates a new relay.
func NewOutboxRelay(source OutboxSource, publisher EventPublisher, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		source:    source,
		publisher: publisher,
		logger:    logger,
		interval:  500 * time.Millisecond,
		batchSize: 100,
	}
}

// WithBatchSize sets how many rows one poll relays.
func (r *OutboxRelay) WithBatchSize(n int) *OutboxRelay {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// Start begins polling in a goroutine. Stops when ctx is cancelled.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize)

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.logger.Info("outbox relay stopped")
				return
			case <-ticker.C:
				if _, err := r.RelayOnce(ctx); err != nil {
					r.logger.Error("outbox relay error", "error", err)
				}
			}
		}
	}()
}

// RelayOnce publishes one batch and returns how many events it relayed.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	events, err := r.source.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := r.publisher.PublishEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("publish outbox: %w", err)
	}

	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.SeqID
	}
	if err := r.source.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}

	r.logger.Debug("outbox batch relayed", "count", len(events))
	return len(events), nil
}
