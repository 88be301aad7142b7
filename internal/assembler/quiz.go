package assembler

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

const maxSlugAttempts = 5

// NewQuiz returns an empty draft.
func NewQuiz(id, title, description string, now time.Time) model.Quiz {
	return model.Quiz{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      model.QuizStatusDraft,
		Questions:   []model.QuizQuestion{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply writes s into q and recomputes TotalPoints.
func Apply(q model.Quiz, s Selection, now time.Time) model.Quiz {
	q.Questions = s.Items()
	q.TotalPoints = s.TotalPoints()
	q.UpdatedAt = now
	return q
}

// Recount rebuilds q's question order and TotalPoints from its items.
// Stored documents are recounted on read so a stale total never reaches scoring.
func Recount(q model.Quiz) model.Quiz {
	s := FromQuiz(q)
	q.Questions = s.Items()
	q.TotalPoints = s.TotalPoints()
	return q
}

// Publish moves a quiz to published. Title and at least one question are required.
func Publish(q model.Quiz, now time.Time) (model.Quiz, error) {
	if strings.TrimSpace(q.Title) == "" {
		return q, apperror.Validation("title", "a published quiz needs a title")
	}
	if len(q.Questions) == 0 {
		return q, apperror.Validation("questions", "a published quiz needs at least one question")
	}
	q.Status = model.QuizStatusPublished
	q.TotalPoints = FromQuiz(q).TotalPoints()
	q.UpdatedAt = now
	return q, nil
}

// SlugChecker reports whether a slug is used by any quiz other than quizID.
type SlugChecker interface {
	SlugTaken(ctx context.Context, slug, quizID string) (bool, error)
}

// SlugFunc builds a candidate slug from a base.
type SlugFunc func(base string) string

// RandomSlug appends a short random suffix to base.
func RandomSlug(base string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Sharer enables and disables public sharing.
type Sharer struct {
	Slugs    SlugChecker
	NextSlug SlugFunc
}

// EnableSharing makes q public. A quiz that was shared before keeps its slug;
// otherwise a fresh slug is generated until one is free. password nil or
// empty leaves the quiz ungated.
func (s Sharer) EnableSharing(ctx context.Context, q model.Quiz, title string, password *string, now time.Time) (model.Quiz, error) {
	if t := strings.TrimSpace(title); t != "" {
		q.Title = t
	}
	if q.Title == "" {
		return q, apperror.Validation("title", "a shared quiz needs a title")
	}

	if q.PublicSlug == "" {
		slug, err := s.freeSlug(ctx, q)
		if err != nil {
			return q, err
		}
		q.PublicSlug = slug
	}

	q.IsPublic = true
	q.AccessPassword = ""
	if password != nil {
		q.AccessPassword = *password
	}
	q.UpdatedAt = now
	return q, nil
}

func (s Sharer) freeSlug(ctx context.Context, q model.Quiz) (string, error) {
	next := s.NextSlug
	if next == nil {
		next = RandomSlug
	}
	base := Slugify(q.Title)
	for range maxSlugAttempts {
		candidate := next(base)
		taken, err := s.Slugs.SlugTaken(ctx, candidate, q.ID)
		if err != nil {
			return "", apperror.Store("check slug", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts: %w", base, maxSlugAttempts, apperror.ErrSlugTaken)
}

// DisableSharing hides q but keeps its slug so re-enabling restores the same URL.
func DisableSharing(q model.Quiz, now time.Time) model.Quiz {
	q.IsPublic = false
	q.UpdatedAt = now
	return q
}

// Slugify lowercases title, strips diacritics and joins words with hyphens.
func Slugify(title string) string {
	decomposed := norm.NFKD.String(title)
	var b strings.Builder
	dash := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 48 {
		slug = strings.TrimSuffix(slug[:48], "-")
	}
	return slug
}
