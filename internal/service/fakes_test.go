package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/repository"
)

type memQuestions struct {
	mu       sync.Mutex
	docs     map[string]map[string]any
	failSave map[string]error
}

func newMemQuestions() *memQuestions {
	return &memQuestions{docs: map[string]map[string]any{}, failSave: map[string]error{}}
}

func (m *memQuestions) Get(_ context.Context, id string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, apperror.ErrNotFound)
	}
	return doc, nil
}

func (m *memQuestions) GetMany(_ context.Context, ids []string) (map[string]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]map[string]any{}
	for _, id := range ids {
		if doc, ok := m.docs[id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}

func (m *memQuestions) List(_ context.Context, f model.QuestionFilter) ([]map[string]any, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []map[string]any
	for _, doc := range m.docs {
		if f.Status != "" && doc["status"] != string(f.Status) {
			continue
		}
		if f.DomainID != "" && !strings.EqualFold(fmt.Sprint(doc["domainId"]), f.DomainID) {
			continue
		}
		if f.TopicID != "" && !strings.EqualFold(fmt.Sprint(doc["topicId"]), f.TopicID) {
			continue
		}
		out = append(out, doc)
	}
	return out, len(out), nil
}

func (m *memQuestions) Save(_ context.Context, id string, doc map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSave[id]; err != nil {
		return err
	}
	m.docs[id] = doc
	return nil
}

func (m *memQuestions) Replace(_ context.Context, id string, doc map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSave[id]; err != nil {
		return err
	}
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("question %s: %w", id, apperror.ErrNotFound)
	}
	m.docs[id] = doc
	return nil
}

func (m *memQuestions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("question %s: %w", id, apperror.ErrNotFound)
	}
	delete(m.docs, id)
	return nil
}

func (m *memQuestions) put(q model.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[q.ID] = q.ToRecord()
}

type memQuizzes struct {
	mu sync.Mutex
	m  map[string]model.Quiz
	// collideOnce makes the next Replace carrying a slug fail as a collision.
	collideOnce bool
}

func newMemQuizzes() *memQuizzes { return &memQuizzes{m: map[string]model.Quiz{}} }

func (s *memQuizzes) Get(_ context.Context, id string) (model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.m[id]
	if !ok {
		return q, fmt.Errorf("quiz %s: %w", id, apperror.ErrNotFound)
	}
	return q, nil
}

func (s *memQuizzes) GetBySlug(_ context.Context, slug string) (model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.m {
		if q.PublicSlug == slug {
			return q, nil
		}
	}
	return model.Quiz{}, fmt.Errorf("quiz %s: %w", slug, apperror.ErrNotFound)
}

func (s *memQuizzes) List(_ context.Context, f model.QuizFilter) ([]model.Quiz, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Quiz
	for _, q := range s.m {
		if f.Status == "" || q.Status == f.Status {
			out = append(out, q)
		}
	}
	return out, len(out), nil
}

func (s *memQuizzes) Create(_ context.Context, q model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[q.ID] = q
	return nil
}

func (s *memQuizzes) Replace(_ context.Context, q model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[q.ID]; !ok {
		return fmt.Errorf("quiz %s: %w", q.ID, apperror.ErrNotFound)
	}
	if q.PublicSlug != "" && s.collideOnce {
		s.collideOnce = false
		return repository.ErrSlugTaken
	}
	for id, other := range s.m {
		if id != q.ID && q.PublicSlug != "" && other.PublicSlug == q.PublicSlug {
			return repository.ErrSlugTaken
		}
	}
	s.m[q.ID] = q
	return nil
}

func (s *memQuizzes) SlugTaken(_ context.Context, slug, quizID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, q := range s.m {
		if id != quizID && q.PublicSlug == slug {
			return true, nil
		}
	}
	return false, nil
}

type memAttempts struct {
	rows []model.Attempt
}

func (m *memAttempts) ListByQuiz(_ context.Context, quizID string, limit, offset int) ([]model.Attempt, int, error) {
	var out []model.Attempt
	for _, a := range m.rows {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

type stubClassifier struct {
	desc   model.FilterDescriptor
	err    error
	prompt string
}

func (c *stubClassifier) Classify(_ context.Context, prompt string) (model.FilterDescriptor, error) {
	c.prompt = prompt
	return c.desc, c.err
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func strPtr(s string) *string { return &s }

func approvedQuestion(id string) model.Question {
	return model.Question{
		ID:         id,
		Content:    "Question " + id,
		Type:       model.QuestionTypeFreeResponse,
		Difficulty: model.DifficultyBeginner,
		Status:     model.QuestionStatusApproved,
		Source:     model.Source{Dataset: "Manual"},
	}
}

var nopLog = zerolog.Nop()
