package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/assessment-pipeline/internal/model"
)

// AttemptRepository persists attempts. Each session yields at most one row.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// InsertBatch writes attempts in one statement. Sessions already recorded
// are skipped. Scores outside the int column's range fail the statement
// instead of wrapping.
func (r *AttemptRepository) InsertBatch(ctx context.Context, batch []model.Attempt) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	sessions := make([]string, n)
	quizIDs := make([]string, n)
	slugs := make([]string, n)
	players := make([]string, n)
	answers := make([]string, n)
	scores := make([]int64, n)
	maxScores := make([]int64, n)
	submitted := make([]time.Time, n)

	for i, a := range batch {
		raw, err := json.Marshal(a.Answers)
		if err != nil {
			return fmt.Errorf("encode answers for session %s: %w", a.SessionID, err)
		}
		sessions[i] = a.SessionID
		quizIDs[i] = a.QuizID
		slugs[i] = a.Slug
		players[i] = a.PlayerName
		answers[i] = string(raw)
		scores[i] = int64(a.Score)
		maxScores[i] = int64(a.MaxScore)
		submitted[i] = a.SubmittedAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO attempts (session_id, quiz_id, slug, player_name, answers, score, max_score, submitted_at)
		SELECT u.session_id, u.quiz_id, u.slug, u.player_name, u.answers::jsonb, u.score, u.max_score, u.submitted_at
		FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[],
			$5::text[], $6::int8[], $7::int8[], $8::timestamptz[]
		) AS u (session_id, quiz_id, slug, player_name, answers, score, max_score, submitted_at)
		ON CONFLICT (session_id) DO NOTHING`,
		sessions, quizIDs, slugs, players, answers, scores, maxScores, submitted)
	return err
}

// Insert writes a single attempt.
func (r *AttemptRepository) Insert(ctx context.Context, a model.Attempt) error {
	raw, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("encode answers for session %s: %w", a.SessionID, err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO attempts (session_id, quiz_id, slug, player_name, answers, score, max_score, submitted_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)
		 ON CONFLICT (session_id) DO NOTHING`,
		a.SessionID, a.QuizID, a.Slug, a.PlayerName, raw, a.Score, a.MaxScore, a.SubmittedAt)
	return err
}

// ListByQuiz returns a quiz's attempts, newest first, with the total count.
func (r *AttemptRepository) ListByQuiz(ctx context.Context, quizID string, limit, offset int) ([]model.Attempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attempts WHERE quiz_id = $1`, quizID).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset = pageArgs(limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, quiz_id, slug, player_name, answers, score, max_score, submitted_at
		 FROM attempts WHERE quiz_id = $1
		 ORDER BY submitted_at DESC, id DESC LIMIT $2 OFFSET $3`,
		quizID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		var raw []byte
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuizID, &a.Slug, &a.PlayerName,
			&raw, &a.Score, &a.MaxScore, &a.SubmittedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(raw, &a.Answers); err != nil {
			return nil, 0, fmt.Errorf("decode answers for attempt %d: %w", a.ID, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, total, rows.Err()
}
