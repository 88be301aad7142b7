package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/config"
	"github.com/stemsi/assessment-pipeline/internal/metrics"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

const (
	AttemptBatchSize    = 50
	AttemptBatchTimeout = 2 * time.Second
	AttemptPollTimeout  = 1 * time.Second
	// AttemptMaxRetries is how many failed single inserts an attempt gets
	// before it is parked on the dead-letter list.
	AttemptMaxRetries = 5
)

// AttemptWriter is the durable sink for queued attempts.
type AttemptWriter interface {
	InsertBatch(ctx context.Context, batch []model.Attempt) error
	Insert(ctx context.Context, a model.Attempt) error
}

// AttemptWorker drains the attempt queue into the attempt store.
type AttemptWorker struct {
	store AttemptWriter
	rdb   *redis.Client
	log   zerolog.Logger

	batchSize    int
	batchTimeout time.Duration
	pollTimeout  time.Duration
	maxRetries   int64
}

func NewAttemptWorker(store AttemptWriter, rdb *redis.Client, log zerolog.Logger) *AttemptWorker {
	return &AttemptWorker{
		store:        store,
		rdb:          rdb,
		log:          log.With().Str("component", "attempt_worker").Logger(),
		batchSize:    AttemptBatchSize,
		batchTimeout: AttemptBatchTimeout,
		pollTimeout:  AttemptPollTimeout,
		maxRetries:   AttemptMaxRetries,
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled, then flushes what it holds.
func (w *AttemptWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttemptWorker started")

	batch := make([]model.Attempt, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= w.batchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, w.pollTimeout, config.WorkerKey.PersistAttemptsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(w.pollTimeout)
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var a model.Attempt
			if err := json.Unmarshal([]byte(item[1]), &a); err != nil {
				w.log.Error().Err(err).Msg("Invalid attempt payload, dropping")
				continue
			}
			batch = append(batch, a)
		}
	}
}

// ----------------------------------------------------------------
// Bulk insert with per-item fallback
// ----------------------------------------------------------------

func (w *AttemptWorker) flushSafe(ctx context.Context, batch []model.Attempt) {
	if len(batch) == 0 {
		return
	}

	err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		metrics.AttemptsPersisted.WithLabelValues("batch").Add(float64(len(batch)))
		w.log.Debug().Int("count", len(batch)).Msg("attempt batch persisted")
		w.forget(ctx, batch...)
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("bulk attempt insert failed, using fallback")

	for _, a := range batch {
		if err := w.store.Insert(ctx, a); err != nil {
			w.retry(ctx, a, err)
			continue
		}
		metrics.AttemptsPersisted.WithLabelValues("single").Inc()
		w.forget(ctx, a)
	}
}

// retry requeues a until it has failed maxRetries times, then moves it to
// the dead-letter list.
func (w *AttemptWorker) retry(ctx context.Context, a model.Attempt, cause error) {
	raw, err := json.Marshal(a)
	if err != nil {
		w.log.Error().Err(err).Str("session_id", a.SessionID).Msg("cannot re-encode attempt")
		return
	}

	failures, err := w.rdb.HIncrBy(ctx, config.WorkerKey.PersistAttemptsRetries, a.SessionID, 1).Result()
	if err != nil {
		w.log.Warn().Err(err).Str("session_id", a.SessionID).Msg("cannot count attempt retries")
	}

	queue := config.WorkerKey.PersistAttemptsQueue
	if failures >= w.maxRetries {
		queue = config.WorkerKey.PersistAttemptsDead
		w.log.Error().Err(cause).Str("session_id", a.SessionID).Int64("failures", failures).Msg("attempt insert keeps failing, dead-lettering")
	} else {
		w.log.Error().Err(cause).Str("session_id", a.SessionID).Int64("failures", failures).Msg("attempt insert failed, requeueing")
	}

	if err := w.rdb.RPush(ctx, queue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("session_id", a.SessionID).Msg("requeue failed, attempt lost")
		return
	}
	if queue == config.WorkerKey.PersistAttemptsDead {
		metrics.AttemptsPersisted.WithLabelValues("dead_letter").Inc()
		w.forget(ctx, a)
	}
}

func (w *AttemptWorker) forget(ctx context.Context, batch ...model.Attempt) {
	sessions := make([]string, len(batch))
	for i, a := range batch {
		sessions[i] = a.SessionID
	}
	if err := w.rdb.HDel(ctx, config.WorkerKey.PersistAttemptsRetries, sessions...).Err(); err != nil {
		w.log.Warn().Err(err).Msg("cannot clear attempt retries")
	}
}
