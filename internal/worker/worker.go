package worker

import (
	"context"
	"fmt"

	"order-lookup/internal/broker"
	"order-lookup/internal/models"
	"order-lookup/internal/service"
	"order-lookup/internal/util"

	"go.uber.org/zap"
)

// EventLedger remembers which events were already handled
type EventLedger interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// LikeWorker forwards published likes to the like sink
type LikeWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	sink         service.LikeSink
	ledger       EventLedger
	logger       *zap.Logger
}

// NewLikeWorker creates a new like worker. ledger may be nil.
func NewLikeWorker(consumer *broker.Consumer, sink service.LikeSink, ledger EventLedger) *LikeWorker {
	w := &LikeWorker{
		consumer: consumer,
		sink:     sink,
		ledger:   ledger,
		logger:   util.GetLogger(),
	}

	w.eventHandler = broker.NewEventHandler()
	w.eventHandler.OnAnnouncementLiked(w.HandleAnnouncementLiked)
	return w
}

// Start starts the worker
func (w *LikeWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting like worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *LikeWorker) Stop() error {
	w.logger.Info("Stopping like worker")
	return w.consumer.Close()
}

// HandleAnnouncementLiked forwards one like. Duplicates seen by the ledger are skipped.
func (w *LikeWorker) HandleAnnouncementLiked(ctx context.Context, event *models.AnnouncementLikedEvent) error {
	ctx, span := util.StartSpan(ctx, "LikeWorker.HandleAnnouncementLiked")
	defer span.End()

	if w.ledger != nil {
		done, err := w.ledger.IsEventProcessed(ctx, event.EventID)
		if err != nil {
			w.logger.Warn("Failed to check event ledger", zap.String("event_id", event.EventID), zap.Error(err))
		} else if done {
			w.logger.Debug("Skipping duplicate like event", zap.String("event_id", event.EventID))
			return nil
		}
	}

	if err := w.sink.IncrementLike(ctx, event.AnnouncementID); err != nil {
		util.LikesForwardFailed.WithLabelValues("sink").Inc()
		return fmt.Errorf("failed to forward like for %s: %w", event.AnnouncementID, err)
	}

	if w.ledger != nil {
		if err := w.ledger.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
			w.logger.Warn("Failed to mark event processed", zap.String("event_id", event.EventID), zap.Error(err))
		}
	}

	w.logger.Debug("Like forwarded", zap.String("announcement_id", event.AnnouncementID))
	return nil
}
