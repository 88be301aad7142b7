package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
)

// ErrSlugTaken is returned when a quiz write collides on public_slug.
var ErrSlugTaken = apperror.ErrSlugTaken

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func pageArgs(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
