package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/metrics"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/review"
)

// ReviewService runs moderation workflows against stored questions.
// Each operation is a single read-then-write; concurrent approvals of the
// same question are last-write-wins.
type ReviewService struct {
	questions   *QuestionService
	store       QuestionStore
	events      *ReviewEvents
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(questions *QuestionService, store QuestionStore, events *ReviewEvents, concurrency int, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		questions:   questions,
		store:       store,
		events:      events,
		concurrency: concurrency,
		now:         time.Now,
		log:         log.With().Str("component", "review_service").Logger(),
	}
}

// SubmitEdits saves a partial edit without changing status.
func (s *ReviewService) SubmitEdits(ctx context.Context, id string, patch model.QuestionPatch) (model.Question, error) {
	q, err := s.questions.Get(ctx, id)
	if err != nil {
		return q, err
	}
	q, err = review.SubmitEdits(q, patch, s.now().UTC())
	if err != nil {
		return q, err
	}
	return q, s.save(ctx, q, model.ReviewActionEdited)
}

// Approve applies optional edits and approves the question.
func (s *ReviewService) Approve(ctx context.Context, id string, req model.ApproveRequest) (model.Question, error) {
	q, err := s.questions.Get(ctx, id)
	if err != nil {
		return q, err
	}
	q, err = review.Approve(q, req.Patch, req.VerifiedBy, s.now().UTC())
	if err != nil {
		return q, err
	}
	return q, s.save(ctx, q, model.ReviewActionApproved)
}

// Reject marks the question rejected.
func (s *ReviewService) Reject(ctx context.Context, id string, notes *string) (model.Question, error) {
	q, err := s.questions.Get(ctx, id)
	if err != nil {
		return q, err
	}
	q = review.Reject(q, notes, s.now().UTC())
	return q, s.save(ctx, q, model.ReviewActionRejected)
}

// BatchSetStatus writes status to every id independently. The returned
// error is only for an invalid status; per-id failures are in the outcome.
func (s *ReviewService) BatchSetStatus(ctx context.Context, ids []string, status model.QuestionStatus) (apperror.BatchOutcome, error) {
	if !review.ValidStatus(status) {
		return apperror.BatchOutcome{}, apperror.Validation("status", "unknown status "+string(status))
	}

	out := runBatch(ctx, ids, s.concurrency, func(ctx context.Context, id string) error {
		q, err := s.questions.Get(ctx, id)
		if err != nil {
			return err
		}
		q, err = review.SetStatus(q, status, s.now().UTC())
		if err != nil {
			return err
		}
		return s.save(ctx, q, model.ReviewActionStatus)
	})

	s.log.Info().
		Str("status", string(status)).
		Int("succeeded", len(out.Succeeded)).
		Int("failed", len(out.Failed)).
		Msg("batch status applied")
	return out, nil
}

func (s *ReviewService) save(ctx context.Context, q model.Question, action string) error {
	if err := s.store.Replace(ctx, q.ID, q.ToRecord()); err != nil {
		return apperror.Store("save question", err)
	}
	metrics.ReviewTransitions.WithLabelValues(action, string(q.Status)).Inc()
	s.events.Publish(ctx, model.ReviewEvent{QuestionID: q.ID, Action: action, Status: q.Status, At: q.UpdatedAt})
	return nil
}
