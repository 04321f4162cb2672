package service

import (
	"context"
	"time"

	"order-lookup/internal/broker"
	"order-lookup/internal/redisclient"
)

// RedisLikeGuard keeps like state in Redis so it survives restarts
type RedisLikeGuard struct {
	redis *redisclient.Client
	ttl   time.Duration
}

// NewRedisLikeGuard creates a guard whose marks expire after ttl
func NewRedisLikeGuard(redis *redisclient.Client, ttl time.Duration) *RedisLikeGuard {
	return &RedisLikeGuard{redis: redis, ttl: ttl}
}

// MarkLiked records the like and reports whether it is the first one
func (g *RedisLikeGuard) MarkLiked(ctx context.Context, announcementID, visitorID string) (bool, error) {
	return g.redis.MarkLiked(ctx, announcementID, visitorID, g.ttl)
}

// HasLiked reports whether the visitor liked the announcement
func (g *RedisLikeGuard) HasLiked(ctx context.Context, announcementID, visitorID string) (bool, error) {
	return g.redis.HasLiked(ctx, announcementID, visitorID)
}

// KafkaLikeDispatcher publishes likes for the like worker to forward
type KafkaLikeDispatcher struct {
	publisher *broker.EventPublisher
}

// NewKafkaLikeDispatcher creates a dispatcher backed by the event publisher
func NewKafkaLikeDispatcher(publisher *broker.EventPublisher) *KafkaLikeDispatcher {
	return &KafkaLikeDispatcher{publisher: publisher}
}

// DispatchLike publishes an AnnouncementLiked event
func (d *KafkaLikeDispatcher) DispatchLike(ctx context.Context, announcementID, visitorID string) error {
	return d.publisher.PublishAnnouncementLiked(ctx, broker.NewAnnouncementLikedEvent(announcementID, visitorID))
}
