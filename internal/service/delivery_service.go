package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/assembler"
	"github.com/stemsi/assessment-pipeline/internal/config"
	"github.com/stemsi/assessment-pipeline/internal/metrics"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/scoring"
)

// PlayView is what a participant receives when opening or unlocking a quiz.
// Questions are withheld while the session is locked.
type PlayView struct {
	Quiz      model.PublicQuizPayload `json:"quiz"`
	State     scoring.PlayState       `json:"state"`
	PlayToken string                  `json:"playToken"`
	ExpiresAt time.Time               `json:"expiresAt"`
}

// DeliveryService serves shared quizzes to anonymous participants. It holds
// no in-memory session state: sessions travel in signed tokens, the public
// payload is cached in Redis and attempts are queued there.
type DeliveryService struct {
	quizzes   QuizStore
	questions *QuestionService
	rdb       *redis.Client
	tokens    *PlayTokens
	policy    scoring.TrustPolicy
	cacheTTL  time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(
	quizzes QuizStore,
	questions *QuestionService,
	rdb *redis.Client,
	tokens *PlayTokens,
	policy scoring.TrustPolicy,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *DeliveryService {
	return &DeliveryService{
		quizzes:   quizzes,
		questions: questions,
		rdb:       rdb,
		tokens:    tokens,
		policy:    policy,
		cacheTTL:  cacheTTL,
		now:       time.Now,
		log:       log.With().Str("component", "delivery_service").Logger(),
	}
}

// Resolve returns the shared quiz behind slug. Unshared quizzes are NotFound.
func (s *DeliveryService) Resolve(ctx context.Context, slug string) (model.Quiz, error) {
	q, err := s.quizzes.GetBySlug(ctx, slug)
	if err != nil {
		return q, apperror.Store("resolve slug", err)
	}
	if !q.IsPublic {
		return model.Quiz{}, fmt.Errorf("quiz %s: %w", slug, apperror.ErrNotFound)
	}
	return assembler.Recount(q), nil
}

// Open starts a play session. Without a password it is unlocked at once.
func (s *DeliveryService) Open(ctx context.Context, slug string) (PlayView, error) {
	payload, err := s.Payload(ctx, slug)
	if err != nil {
		return PlayView{}, err
	}
	play := scoring.Play{State: scoring.StateUnlocked}
	if payload.PasswordRequired {
		play = scoring.Play{State: scoring.StateLocked}
	}
	return s.view(payload, play, "")
}

// Unlock checks the password and returns an unlocked session. A wrong
// password is ErrAccessDenied; the caller may simply try again.
func (s *DeliveryService) Unlock(ctx context.Context, slug, password string) (PlayView, error) {
	q, err := s.Resolve(ctx, slug)
	if err != nil {
		return PlayView{}, err
	}
	play, ok := scoring.StartPlay(q).Unlock(q, password)
	if !ok {
		return PlayView{}, apperror.ErrAccessDenied
	}
	payload, err := s.Payload(ctx, slug)
	if err != nil {
		return PlayView{}, err
	}
	return s.view(payload, play, "")
}

func (s *DeliveryService) view(payload model.PublicQuizPayload, play scoring.Play, sessionID string) (PlayView, error) {
	token, sess, err := s.tokens.Issue(model.PlaySession{
		SessionID: sessionID,
		QuizID:    payload.QuizID,
		Slug:      payload.Slug,
		Unlocked:  play.State != scoring.StateLocked,
	})
	if err != nil {
		return PlayView{}, err
	}
	if play.State == scoring.StateLocked {
		payload.Questions = nil
	}
	return PlayView{Quiz: payload, State: play.State, PlayToken: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Grade scores answers for an unlocked session without recording anything.
// A session whose attempt was recorded can no longer grade.
func (s *DeliveryService) Grade(ctx context.Context, slug, token string, answers map[string]any) (model.GradeResult, error) {
	q, play, _, err := s.authorize(ctx, slug, token)
	if err != nil {
		return model.GradeResult{}, err
	}
	if _, err := play.Begin(); err != nil {
		return model.GradeResult{}, err
	}
	questions, err := s.questions.Resolve(ctx, questionIDs(q))
	if err != nil {
		return model.GradeResult{}, err
	}
	return scoring.Grade(q, questions, answers), nil
}

// Submit records the session's single attempt. The persisted score comes
// from the configured trust policy. A second submit for the same session
// is ErrAlreadySubmitted.
func (s *DeliveryService) Submit(ctx context.Context, slug, token string, req model.SubmitAttemptRequest) (model.Attempt, error) {
	q, play, sess, err := s.authorize(ctx, slug, token)
	if err != nil {
		return model.Attempt{}, err
	}
	if play, err = play.Begin(); err != nil {
		return model.Attempt{}, err
	}
	if _, err := play.Submit(); err != nil {
		return model.Attempt{}, err
	}
	if req.QuizID != q.ID {
		return model.Attempt{}, apperror.Validation("quizId", "does not match the shared quiz")
	}
	if err := checkClaimedScore(req); err != nil {
		return model.Attempt{}, err
	}

	var questions map[string]model.Question
	if s.policy.Regrades() {
		if questions, err = s.questions.Resolve(ctx, questionIDs(q)); err != nil {
			return model.Attempt{}, err
		}
	}
	result := s.policy.Score(q, questions, req)

	guard := config.CacheKey.SubmittedSessionKey(sess.SessionID)
	first, err := s.rdb.SetNX(ctx, guard, s.now().UTC().Format(time.RFC3339), s.tokens.TTL()).Result()
	if err != nil {
		return model.Attempt{}, apperror.Store("claim session", err)
	}
	if !first {
		return model.Attempt{}, apperror.ErrAlreadySubmitted
	}

	attempt := model.Attempt{
		SessionID:   sess.SessionID,
		QuizID:      q.ID,
		Slug:        slug,
		PlayerName:  req.PlayerName,
		Answers:     req.Answers,
		Score:       result.Score,
		MaxScore:    result.MaxScore,
		SubmittedAt: s.now().UTC(),
	}
	raw, err := json.Marshal(attempt)
	if err != nil {
		s.rdb.Del(ctx, guard)
		return model.Attempt{}, fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raw).Err(); err != nil {
		s.rdb.Del(ctx, guard)
		return model.Attempt{}, apperror.Store("queue attempt", err)
	}

	metrics.AttemptsSubmitted.WithLabelValues(s.policy.Name()).Inc()
	s.log.Info().
		Str("quiz_id", q.ID).
		Str("session_id", sess.SessionID).
		Int("score", attempt.Score).
		Int("max_score", attempt.MaxScore).
		Str("policy", s.policy.Name()).
		Msg("attempt queued")
	return attempt, nil
}

func checkClaimedScore(req model.SubmitAttemptRequest) error {
	switch {
	case req.MaxScore < 0 || req.MaxScore > model.MaxClaimedScore:
		return apperror.Validation("maxScore", fmt.Sprintf("must be between 0 and %d", model.MaxClaimedScore))
	case req.Score < 0 || req.Score > req.MaxScore:
		return apperror.Validation("score", "must be between 0 and maxScore")
	}
	return nil
}

// authorize checks that token is a session for slug's quiz and resumes its
// play state. The submitted guard in Redis marks a finished session.
func (s *DeliveryService) authorize(ctx context.Context, slug, token string) (model.Quiz, scoring.Play, model.PlaySession, error) {
	var play scoring.Play
	sess, err := s.tokens.Parse(token)
	if err != nil {
		return model.Quiz{}, play, sess, err
	}
	if sess.Slug != slug {
		return model.Quiz{}, play, sess, apperror.ErrAccessDenied
	}
	q, err := s.Resolve(ctx, slug)
	if err != nil {
		return q, play, sess, err
	}
	if q.ID != sess.QuizID {
		return model.Quiz{}, play, sess, apperror.ErrAccessDenied
	}
	submitted, err := s.rdb.Exists(ctx, config.CacheKey.SubmittedSessionKey(sess.SessionID)).Result()
	if err != nil {
		return model.Quiz{}, play, sess, apperror.Store("load session", err)
	}
	return q, scoring.ResumePlay(sess.Unlocked, submitted > 0), sess, nil
}

// Payload returns the public view of a shared quiz, served from Redis when
// warm. Dangling question references are listed as unavailable.
func (s *DeliveryService) Payload(ctx context.Context, slug string) (model.PublicQuizPayload, error) {
	key := config.CacheKey.PublicQuizPayloadKey(slug)

	cached, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var p model.PublicQuizPayload
		if jsonErr := json.Unmarshal(cached, &p); jsonErr == nil {
			return p, nil
		}
		s.log.Warn().Str("slug", slug).Msg("corrupt cached payload, rebuilding")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("slug", slug).Msg("payload cache read failed")
	}

	q, err := s.Resolve(ctx, slug)
	if err != nil {
		return model.PublicQuizPayload{}, err
	}
	questions, err := s.questions.Resolve(ctx, questionIDs(q))
	if err != nil {
		return model.PublicQuizPayload{}, err
	}
	p := BuildPublicPayload(q, questions)

	if raw, err := json.Marshal(p); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("slug", slug).Msg("payload cache write failed")
		}
	}
	return p, nil
}

// BuildPublicPayload renders the participant view: option texts only, no
// correctness data, questions in quiz order.
func BuildPublicPayload(q model.Quiz, questions map[string]model.Question) model.PublicQuizPayload {
	p := model.PublicQuizPayload{
		QuizID:           q.ID,
		Slug:             q.PublicSlug,
		Title:            q.Title,
		Description:      q.Description,
		TotalPoints:      q.TotalPoints,
		PasswordRequired: q.HasPassword(),
		Questions:        make([]model.PublicQuestion, 0, len(q.Questions)),
	}
	for _, ref := range assembler.FromQuiz(q).Items() {
		pq := model.PublicQuestion{ID: ref.QuestionID, Points: ref.Points, Order: ref.Order}
		question, ok := questions[ref.QuestionID]
		if !ok {
			pq.Unavailable = true
			p.Questions = append(p.Questions, pq)
			continue
		}
		pq.Content = question.Content
		pq.Type = question.Type
		pq.Images = question.Images
		for _, o := range question.Options {
			pq.Options = append(pq.Options, o.Text)
		}
		p.Questions = append(p.Questions, pq)
	}
	return p
}

func questionIDs(q model.Quiz) []string {
	ids := make([]string, len(q.Questions))
	for i, ref := range q.Questions {
		ids[i] = ref.QuestionID
	}
	return ids
}
