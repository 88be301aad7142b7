package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

// QuestionRepository stores question documents. Reads return untyped
// records; callers normalize them.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Get returns the raw record for id.
func (r *QuestionRepository) Get(ctx context.Context, id string) (map[string]any, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM questions WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("question %s: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

// GetMany returns the records that exist among ids, keyed by id.
func (r *QuestionRepository) GetMany(ctx context.Context, ids []string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id, doc FROM questions WHERE id = ANY($1::text[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		out[id] = rec
	}
	return out, rows.Err()
}

// List returns records matching f, newest first, and the total match count.
// A zero Limit returns every match.
func (r *QuestionRepository) List(ctx context.Context, f model.QuestionFilter) ([]map[string]any, int, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.DomainID != "" {
		add("domain_id = lower($%d)", f.DomainID)
	}
	if f.TopicID != "" {
		add("topic_id = lower($%d)", f.TopicID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT doc FROM questions` + clause + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		limit, offset := pageArgs(f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []map[string]any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, 0, err
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// Save inserts the record or replaces an existing one with the same id.
func (r *QuestionRepository) Save(ctx context.Context, id string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode question %s: %w", id, err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO questions (id, doc) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		id, raw)
	return err
}

// Replace overwrites an existing record.
func (r *QuestionRepository) Replace(ctx context.Context, id string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode question %s: %w", id, err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET doc = $2::jsonb, updated_at = NOW() WHERE id = $1`, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}

// Delete removes a question. Quizzes referencing it are left as they are.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}

func decodeRecord(raw []byte) (map[string]any, error) {
	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return rec, nil
}
