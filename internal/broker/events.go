package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"order-lookup/internal/models"
	"order-lookup/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewAnnouncementLikedEvent builds a like event with a fresh id
func NewAnnouncementLikedEvent(announcementID, visitorID string) *models.AnnouncementLikedEvent {
	return &models.AnnouncementLikedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeAnnouncementLiked,
			Timestamp: time.Now().UTC(),
		},
		AnnouncementID: announcementID,
		VisitorID:      visitorID,
	}
}

// PublishAnnouncementLiked publishes AnnouncementLiked event
func (ep *EventPublisher) PublishAnnouncementLiked(ctx context.Context, event *models.AnnouncementLikedEvent) error {
	key := fmt.Sprintf("announcement-%s", event.AnnouncementID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onAnnouncementLiked func(context.Context, *models.AnnouncementLikedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnAnnouncementLiked registers a handler for AnnouncementLiked events
func (eh *EventHandler) OnAnnouncementLiked(handler func(context.Context, *models.AnnouncementLikedEvent) error) {
	eh.onAnnouncementLiked = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID),
	)

	switch baseEvent.EventType {
	case models.EventTypeAnnouncementLiked:
		if eh.onAnnouncementLiked != nil {
			var event models.AnnouncementLikedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal AnnouncementLiked event: %w", err)
			}
			return eh.onAnnouncementLiked(ctx, &event)
		}

	default:
		logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
