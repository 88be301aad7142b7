package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/curation"
	"github.com/stemsi/assessment-pipeline/internal/metrics"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/review"
)

// ErrClassifierUnavailable is returned when no classifier is configured.
var ErrClassifierUnavailable = errors.New("curation classifier is not configured")

// CurationService asks the classifier for a filter descriptor and applies
// it to the approved question pool.
type CurationService struct {
	classifier Classifier
	questions  QuestionStore
	normalize  func(map[string]any) model.Question
	rnd        curation.RandomSource
	log        zerolog.Logger
}

// NewCurationService creates a new CurationService. classifier may be nil.
func NewCurationService(classifier Classifier, questions *QuestionService, rnd curation.RandomSource, log zerolog.Logger) *CurationService {
	return &CurationService{
		classifier: classifier,
		questions:  questions.store,
		normalize:  questions.normalizer.Normalize,
		rnd:        rnd,
		log:        log.With().Str("component", "curation_service").Logger(),
	}
}

// Suggest returns up to req.Count approved candidates not already in
// req.Selection, plus the classifier's justification.
func (s *CurationService) Suggest(ctx context.Context, req model.SuggestRequest) (model.CurationResult, error) {
	if s.classifier == nil {
		return model.CurationResult{}, ErrClassifierUnavailable
	}

	desc, err := s.classifier.Classify(ctx, req.Prompt)
	if err != nil {
		metrics.ClassifierRequests.WithLabelValues("error").Inc()
		return model.CurationResult{}, apperror.Store("classify", err)
	}
	metrics.ClassifierRequests.WithLabelValues("ok").Inc()

	records, _, err := s.questions.List(ctx, model.QuestionFilter{
		Status:   model.QuestionStatusApproved,
		DomainID: desc.Filters.Domain,
		TopicID:  desc.Filters.Topic,
	})
	if err != nil {
		return model.CurationResult{}, apperror.Store("load curation pool", err)
	}

	pool := make([]model.Question, 0, len(records))
	for _, raw := range records {
		if q := s.normalize(raw); review.Eligible(q) {
			pool = append(pool, q)
		}
	}

	res := curation.Filter(pool, desc, req.Count, req.Selection, s.rnd)
	if res.Candidates == nil {
		res.Candidates = []model.Question{}
	}

	s.log.Info().
		Int("pool", len(pool)).
		Int("requested", res.Requested).
		Int("returned", len(res.Candidates)).
		Int("shortfall", res.Shortfall).
		Msg("curation suggested")
	return res, nil
}
