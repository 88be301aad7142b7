package service

import (
	"context"

	"github.com/stemsi/assessment-pipeline/internal/model"
)

// QuestionStore is the document store boundary for questions. Records are
// untyped; every read is normalized before use.
type QuestionStore interface {
	Get(ctx context.Context, id string) (map[string]any, error)
	GetMany(ctx context.Context, ids []string) (map[string]map[string]any, error)
	List(ctx context.Context, f model.QuestionFilter) ([]map[string]any, int, error)
	Save(ctx context.Context, id string, doc map[string]any) error
	Replace(ctx context.Context, id string, doc map[string]any) error
	Delete(ctx context.Context, id string) error
}

// QuizStore is the document store boundary for quizzes.
type QuizStore interface {
	Get(ctx context.Context, id string) (model.Quiz, error)
	GetBySlug(ctx context.Context, slug string) (model.Quiz, error)
	List(ctx context.Context, f model.QuizFilter) ([]model.Quiz, int, error)
	Create(ctx context.Context, q model.Quiz) error
	Replace(ctx context.Context, q model.Quiz) error
	SlugTaken(ctx context.Context, slug, quizID string) (bool, error)
}

// AttemptReader lists recorded attempts.
type AttemptReader interface {
	ListByQuiz(ctx context.Context, quizID string, limit, offset int) ([]model.Attempt, int, error)
}

// Classifier turns a natural-language request into a filter descriptor.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (model.FilterDescriptor, error)
}

// pageWindow clamps page and perPage to sane bounds.
func pageWindow(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 200 {
		perPage = 200
	}
	return page, perPage
}
