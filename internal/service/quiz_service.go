package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/assembler"
	"github.com/stemsi/assessment-pipeline/internal/config"
	"github.com/stemsi/assessment-pipeline/internal/metrics"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/repository"
	"github.com/stemsi/assessment-pipeline/internal/response"
	"github.com/stemsi/assessment-pipeline/internal/review"
)

const slugSaveAttempts = 3

// QuizService assembles quizzes and manages publishing and sharing.
// Point-weight edits are read-then-write: two concurrent edits of the same
// quiz can lose one update.
type QuizService struct {
	quizzes   QuizStore
	questions *QuestionService
	attempts  AttemptReader
	rdb       *redis.Client
	sharer    assembler.Sharer
	now       func() time.Time
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService. rdb may be nil to disable
// public payload invalidation.
func NewQuizService(quizzes QuizStore, questions *QuestionService, attempts AttemptReader, rdb *redis.Client, log zerolog.Logger) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		questions: questions,
		attempts:  attempts,
		rdb:       rdb,
		sharer:    assembler.Sharer{Slugs: quizzes, NextSlug: assembler.RandomSlug},
		now:       time.Now,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// Create inserts an empty draft.
func (s *QuizService) Create(ctx context.Context, req model.CreateQuizRequest) (model.Quiz, error) {
	q := assembler.NewQuiz(uuid.NewString(), req.Title, req.Description, s.now().UTC())
	if err := s.quizzes.Create(ctx, q); err != nil {
		return q, apperror.Store("create quiz", err)
	}
	return q, nil
}

// Get retrieves a quiz by id.
func (s *QuizService) Get(ctx context.Context, id string) (model.Quiz, error) {
	q, err := s.quizzes.Get(ctx, id)
	if err != nil {
		return q, apperror.Store("get quiz", err)
	}
	return assembler.Recount(q), nil
}

// List retrieves quizzes with pagination.
func (s *QuizService) List(ctx context.Context, query model.ListQuizzesQuery) ([]model.Quiz, *response.Pagination, error) {
	page, perPage := pageWindow(query.Page, query.PerPage)
	quizzes, total, err := s.quizzes.List(ctx, model.QuizFilter{
		Status: model.QuizStatus(query.Status),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return nil, nil, apperror.Store("list quizzes", err)
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}
	for i := range quizzes {
		quizzes[i] = assembler.Recount(quizzes[i])
	}
	return quizzes, response.NewPagination(page, perPage, total), nil
}

// SetQuestions rebuilds the quiz's questions from items, in order.
func (s *QuizService) SetQuestions(ctx context.Context, id string, items []model.SelectionItem) (model.Quiz, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return q, err
	}
	sel := assembler.NewSelection(items...)
	if err := s.requireApproved(ctx, sel.IDs()); err != nil {
		return q, err
	}
	return s.save(ctx, assembler.Apply(q, sel, s.now().UTC()))
}

// AddQuestion appends an approved question. added is false when the
// question was already part of the quiz.
func (s *QuizService) AddQuestion(ctx context.Context, id string, req model.AddQuestionRequest) (model.Quiz, bool, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return q, false, err
	}
	sel, added := assembler.FromQuiz(q).Add(req.QuestionID, req.Points)
	if !added {
		return q, false, nil
	}
	if err := s.requireApproved(ctx, []string{req.QuestionID}); err != nil {
		return q, false, err
	}
	q, err = s.save(ctx, assembler.Apply(q, sel, s.now().UTC()))
	return q, err == nil, err
}

// RemoveQuestion drops a question reference and closes the order gap.
func (s *QuizService) RemoveQuestion(ctx context.Context, id, questionID string) (model.Quiz, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return q, err
	}
	sel, ok := assembler.FromQuiz(q).Remove(questionID)
	if !ok {
		return q, fmt.Errorf("question %s in quiz %s: %w", questionID, id, apperror.ErrNotFound)
	}
	return s.save(ctx, assembler.Apply(q, sel, s.now().UTC()))
}

// UpdatePoints changes one question's weight.
func (s *QuizService) UpdatePoints(ctx context.Context, id, questionID string, points int) (model.Quiz, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return q, err
	}
	sel, ok := assembler.FromQuiz(q).SetPoints(questionID, points)
	if !ok {
		return q, fmt.Errorf("question %s in quiz %s: %w", questionID, id, apperror.ErrNotFound)
	}
	return s.save(ctx, assembler.Apply(q, sel, s.now().UTC()))
}

// Publish moves the quiz to published.
func (s *QuizService) Publish(ctx context.Context, id string) (model.Quiz, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return q, err
	}
	q, err = assembler.Publish(q, s.now().UTC())
	if err != nil {
		return q, err
	}
	q, err = s.save(ctx, q)
	if err == nil {
		metrics.QuizzesPublished.Inc()
		s.log.Info().Str("quiz_id", q.ID).Int("total_points", q.TotalPoints).Msg("quiz published")
	}
	return q, err
}

// EnableSharing makes the quiz public under a slug unique across all quizzes.
// A collision detected by the store on write is retried with a new slug.
func (s *QuizService) EnableSharing(ctx context.Context, id string, req model.EnableSharingRequest) (model.Quiz, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return q, err
	}

	for range slugSaveAttempts {
		shared, err := s.sharer.EnableSharing(ctx, q, req.Title, req.Password, s.now().UTC())
		if err != nil {
			return q, err
		}
		saved, err := s.save(ctx, shared)
		if errors.Is(err, repository.ErrSlugTaken) {
			s.log.Warn().Str("quiz_id", id).Str("slug", shared.PublicSlug).Msg("slug collided on write, retrying")
			q.PublicSlug = ""
			continue
		}
		return saved, err
	}
	return q, fmt.Errorf("enable sharing for quiz %s: %w", id, repository.ErrSlugTaken)
}

// DisableSharing hides the quiz; its slug is kept for re-enabling.
func (s *QuizService) DisableSharing(ctx context.Context, id string) (model.Quiz, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return q, err
	}
	return s.save(ctx, assembler.DisableSharing(q, s.now().UTC()))
}

// ListAttempts returns recorded attempts for a quiz.
func (s *QuizService) ListAttempts(ctx context.Context, id string, page, perPage int) ([]model.Attempt, *response.Pagination, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, nil, err
	}
	page, perPage = pageWindow(page, perPage)
	attempts, total, err := s.attempts.ListByQuiz(ctx, id, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, apperror.Store("list attempts", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, response.NewPagination(page, perPage, total), nil
}

// requireApproved checks that every id exists and is approved.
func (s *QuizService) requireApproved(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.questions.Resolve(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		q, ok := found[id]
		if !ok {
			return fmt.Errorf("question %s: %w", id, apperror.ErrNotFound)
		}
		if !review.Eligible(q) {
			return apperror.Validation("questionId", fmt.Sprintf("question %s is %s, not approved", id, q.Status))
		}
	}
	return nil
}

func (s *QuizService) save(ctx context.Context, q model.Quiz) (model.Quiz, error) {
	if err := s.quizzes.Replace(ctx, q); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return q, err
		}
		return q, apperror.Store("save quiz", err)
	}
	s.invalidatePublic(ctx, q)
	return q, nil
}

// invalidatePublic drops the cached public payload so the next visitor
// sees the current quiz, or a 404 once sharing is off.
func (s *QuizService) invalidatePublic(ctx context.Context, q model.Quiz) {
	if s.rdb == nil || q.PublicSlug == "" {
		return
	}
	if err := s.rdb.Del(ctx, config.CacheKey.PublicQuizPayloadKey(q.PublicSlug)).Err(); err != nil {
		s.log.Warn().Err(err).Str("slug", q.PublicSlug).Msg("invalidate public payload")
	}
}
