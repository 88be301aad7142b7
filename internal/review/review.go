// Package review implements the moderation state machine over canonical
// questions. It does not forbid any status transition; which transitions a
// workflow exposes is decided by the caller.
package review

import (
	"strings"
	"time"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

// ValidStatus reports whether s is a known moderation state.
func ValidStatus(s model.QuestionStatus) bool {
	switch s {
	case model.QuestionStatusDraft, model.QuestionStatusPending,
		model.QuestionStatusApproved, model.QuestionStatusRejected:
		return true
	}
	return false
}

// ValidDifficulty reports whether d is a canonical difficulty.
func ValidDifficulty(d model.Difficulty) bool {
	switch d {
	case model.DifficultyBeginner, model.DifficultyIntermediate,
		model.DifficultyAdvanced, model.DifficultyCompetition:
		return true
	}
	return false
}

// Diff drops patch fields that equal the question's current values.
func Diff(q model.Question, p model.QuestionPatch) model.QuestionPatch {
	var out model.QuestionPatch
	if p.Content != nil && *p.Content != q.Content {
		out.Content = p.Content
	}
	if p.Difficulty != nil && *p.Difficulty != q.Difficulty {
		out.Difficulty = p.Difficulty
	}
	if p.ReviewNotes != nil && *p.ReviewNotes != q.ReviewNotes {
		out.ReviewNotes = p.ReviewNotes
	}
	return out
}

// IsEmpty reports whether p changes nothing.
func IsEmpty(p model.QuestionPatch) bool {
	return p.Content == nil && p.Difficulty == nil && p.ReviewNotes == nil
}

func validate(p model.QuestionPatch) error {
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return apperror.Validation("content", "must not be empty")
	}
	if p.Difficulty != nil && !ValidDifficulty(*p.Difficulty) {
		return apperror.Validation("difficulty", "unknown difficulty "+string(*p.Difficulty))
	}
	return nil
}

func apply(q model.Question, p model.QuestionPatch, now time.Time) model.Question {
	if p.Content != nil {
		q.Content = *p.Content
	}
	if p.Difficulty != nil {
		q.Difficulty = *p.Difficulty
	}
	if p.ReviewNotes != nil {
		q.ReviewNotes = *p.ReviewNotes
	}
	q.UpdatedAt = now
	return q
}

// SubmitEdits applies a partial edit without touching status. It returns
// apperror.ErrNothingToSave when the patch matches the current values.
func SubmitEdits(q model.Question, p model.QuestionPatch, now time.Time) (model.Question, error) {
	changes := Diff(q, p)
	if IsEmpty(changes) {
		return q, apperror.ErrNothingToSave
	}
	if err := validate(changes); err != nil {
		return q, err
	}
	return apply(q, changes, now), nil
}

// Approve applies any edits, then marks the question approved.
func Approve(q model.Question, p model.QuestionPatch, verifiedBy string, now time.Time) (model.Question, error) {
	changes := Diff(q, p)
	if err := validate(changes); err != nil {
		return q, err
	}
	q = apply(q, changes, now)
	q.Status = model.QuestionStatusApproved
	if verifiedBy != "" {
		q.VerifiedBy = verifiedBy
	}
	return q, nil
}

// Reject marks the question rejected, replacing review notes when given.
// Quizzes that already reference it are not affected.
func Reject(q model.Question, notes *string, now time.Time) model.Question {
	if notes != nil {
		q.ReviewNotes = *notes
	}
	q.Status = model.QuestionStatusRejected
	q.UpdatedAt = now
	return q
}

// SetStatus moves q to status unconditionally.
func SetStatus(q model.Question, status model.QuestionStatus, now time.Time) (model.Question, error) {
	if !ValidStatus(status) {
		return q, apperror.Validation("status", "unknown status "+string(status))
	}
	q.Status = status
	q.UpdatedAt = now
	return q, nil
}

// Eligible reports whether q may enter curation pools and new quizzes.
func Eligible(q model.Question) bool {
	return q.Status == model.QuestionStatusApproved
}
