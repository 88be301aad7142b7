package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

// QuizRepository stores quiz documents.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// Get retrieves a quiz by id.
func (r *QuizRepository) Get(ctx context.Context, id string) (model.Quiz, error) {
	return r.getOne(ctx, `SELECT doc FROM quizzes WHERE id = $1`, id)
}

// GetBySlug retrieves a quiz by its public slug, shared or not.
func (r *QuizRepository) GetBySlug(ctx context.Context, slug string) (model.Quiz, error) {
	return r.getOne(ctx, `SELECT doc FROM quizzes WHERE public_slug = $1`, slug)
}

func (r *QuizRepository) getOne(ctx context.Context, query, arg string) (model.Quiz, error) {
	var q model.Quiz
	var raw []byte
	err := r.pool.QueryRow(ctx, query, arg).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return q, fmt.Errorf("quiz %s: %w", arg, apperror.ErrNotFound)
	}
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal(raw, &q); err != nil {
		return q, fmt.Errorf("decode quiz %s: %w", arg, err)
	}
	return q, nil
}

// List returns quizzes matching f, newest first, and the total count.
func (r *QuizRepository) List(ctx context.Context, f model.QuizFilter) ([]model.Quiz, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quizzes WHERE ($1 = '' OR status = $1)`, string(f.Status),
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageArgs(f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT doc FROM quizzes WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		string(f.Status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, 0, err
		}
		var q model.Quiz
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, 0, fmt.Errorf("decode quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, total, rows.Err()
}

// Create inserts a new quiz.
func (r *QuizRepository) Create(ctx context.Context, q model.Quiz) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quiz %s: %w", q.ID, err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO quizzes (id, doc) VALUES ($1, $2::jsonb)`, q.ID, raw)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	return err
}

// Replace overwrites a quiz document. Last write wins.
func (r *QuizRepository) Replace(ctx context.Context, q model.Quiz) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quiz %s: %w", q.ID, err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET doc = $2::jsonb, updated_at = NOW() WHERE id = $1`, q.ID, raw)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quiz %s: %w", q.ID, apperror.ErrNotFound)
	}
	return nil
}

// SlugTaken reports whether any quiz other than quizID owns slug.
func (r *QuizRepository) SlugTaken(ctx context.Context, slug, quizID string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quizzes WHERE public_slug = $1 AND id <> $2)`,
		slug, quizID,
	).Scan(&taken)
	return taken, err
}
