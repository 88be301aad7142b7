package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/metrics"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/normalizer"
	"github.com/stemsi/assessment-pipeline/internal/response"
)

// QuestionService ingests and serves canonical questions.
type QuestionService struct {
	store       QuestionStore
	normalizer  *normalizer.Normalizer
	events      *ReviewEvents
	concurrency int
	log         zerolog.Logger
}

// NewQuestionService creates a new QuestionService. concurrency bounds
// parallel store writes in bulk operations.
func NewQuestionService(store QuestionStore, events *ReviewEvents, concurrency int, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		store:       store,
		normalizer:  normalizer.New(time.Now),
		events:      events,
		concurrency: concurrency,
		log:         log.With().Str("component", "question_service").Logger(),
	}
}

// ImportResult reports a bulk import. Failed is keyed by record position.
type ImportResult struct {
	Imported []model.Question  `json:"imported"`
	Flagged  int               `json:"flagged"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// Import normalizes raw records and stores them. Records without an id get
// a fresh one; records with a known id replace the stored version. Failures
// are reported per record; an error is returned only when every write failed.
func (s *QuestionService) Import(ctx context.Context, records []map[string]any) (ImportResult, error) {
	questions := make([]model.Question, len(records))
	errs := make([]error, len(records))

	g := new(errgroup.Group)
	g.SetLimit(max(s.concurrency, 1))
	for i, raw := range records {
		g.Go(func() error {
			q := s.normalizer.Normalize(raw)
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			if err := s.store.Save(ctx, q.ID, q.ToRecord()); err != nil {
				errs[i] = apperror.Store("save question", err)
				return nil
			}
			questions[i] = q
			return nil
		})
	}
	_ = g.Wait()

	res := ImportResult{Imported: make([]model.Question, 0, len(records))}
	for i, q := range questions {
		if errs[i] != nil {
			if res.Failed == nil {
				res.Failed = make(map[string]string)
			}
			res.Failed[strconv.Itoa(i)] = errs[i].Error()
			continue
		}
		res.Imported = append(res.Imported, q)
		if q.Status == model.QuestionStatusPending && q.ReviewNotes != "" {
			res.Flagged++
		}
		metrics.QuestionsNormalized.WithLabelValues(string(q.Status)).Inc()
		s.events.Publish(ctx, model.ReviewEvent{
			QuestionID: q.ID, Action: model.ReviewActionImported, Status: q.Status, At: q.UpdatedAt,
		})
	}

	s.log.Info().
		Int("imported", len(res.Imported)).
		Int("flagged", res.Flagged).
		Int("failed", len(res.Failed)).
		Msg("questions imported")

	if len(res.Imported) == 0 && len(res.Failed) > 0 {
		for _, err := range errs {
			if err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// Get returns the canonical form of a stored question.
func (s *QuestionService) Get(ctx context.Context, id string) (model.Question, error) {
	raw, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Question{}, apperror.Store("get question", err)
	}
	return s.canonical(id, raw), nil
}

func (s *QuestionService) canonical(id string, raw map[string]any) model.Question {
	q := s.normalizer.Normalize(raw)
	if q.ID == "" {
		q.ID = id
	}
	return q
}

// List returns canonical questions matching the query.
func (s *QuestionService) List(ctx context.Context, query model.ListQuestionsQuery) ([]model.Question, *response.Pagination, error) {
	page, perPage := pageWindow(query.Page, query.PerPage)
	records, total, err := s.store.List(ctx, model.QuestionFilter{
		Status:   model.QuestionStatus(query.Status),
		DomainID: query.DomainID,
		TopicID:  query.TopicID,
		Limit:    perPage,
		Offset:   (page - 1) * perPage,
	})
	if err != nil {
		return nil, nil, apperror.Store("list questions", err)
	}

	questions := make([]model.Question, 0, len(records))
	for _, raw := range records {
		questions = append(questions, s.canonical("", raw))
	}
	return questions, response.NewPagination(page, perPage, total), nil
}

// Delete removes a question. Quizzes keep their references, which then
// resolve as unavailable.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return apperror.Store("delete question", err)
	}
	s.events.Publish(ctx, model.ReviewEvent{QuestionID: id, Action: model.ReviewActionDeleted, At: time.Now().UTC()})
	return nil
}

// BulkDelete deletes every id, one write each, and reports per-id outcomes.
func (s *QuestionService) BulkDelete(ctx context.Context, ids []string) apperror.BatchOutcome {
	out := runBatch(ctx, ids, s.concurrency, s.Delete)
	if len(out.Failed) > 0 {
		s.log.Warn().
			Int("succeeded", len(out.Succeeded)).
			Int("failed", len(out.Failed)).
			Msg("bulk delete partially failed")
	}
	return out
}

// Resolve loads the canonical questions that still exist among ids.
func (s *QuestionService) Resolve(ctx context.Context, ids []string) (map[string]model.Question, error) {
	records, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, apperror.Store("resolve questions", err)
	}
	out := make(map[string]model.Question, len(records))
	for id, raw := range records {
		out[id] = s.canonical(id, raw)
	}
	return out, nil
}
