package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/config"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

// ReviewEvents fans moderation changes out over Redis Pub/Sub so every
// instance's review stream sees them.
type ReviewEvents struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewReviewEvents creates a publisher. A nil client disables publishing.
func NewReviewEvents(rdb *redis.Client, log zerolog.Logger) *ReviewEvents {
	return &ReviewEvents{rdb: rdb, log: log.With().Str("component", "review_events").Logger()}
}

// Publish is best-effort: a failed publish is logged, never returned.
func (e *ReviewEvents) Publish(ctx context.Context, ev model.ReviewEvent) {
	if e == nil || e.rdb == nil {
		return
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		e.log.Error().Err(err).Msg("marshal review event")
		return
	}
	if err := e.rdb.Publish(ctx, config.CacheKey.ReviewEventsChannel(), raw).Err(); err != nil {
		e.log.Warn().Err(err).Str("question_id", ev.QuestionID).Msg("publish review event")
	}
}

// Subscribe opens a subscription on the review channel. Callers close it.
func (e *ReviewEvents) Subscribe(ctx context.Context) *redis.PubSub {
	return e.rdb.Subscribe(ctx, config.CacheKey.ReviewEventsChannel())
}
