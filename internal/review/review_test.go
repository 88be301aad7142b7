package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func pendingQuestion() model.Question {
	return model.Question{
		ID:         "q1",
		Content:    "What is 2 + 2?",
		Difficulty: model.DifficultyBeginner,
		Status:     model.QuestionStatusPending,
	}
}

func TestSubmitEditsKeepsStatus(t *testing.T) {
	q, err := SubmitEdits(pendingQuestion(), model.QuestionPatch{
		Content:    ptr("What is 2 + 3?"),
		Difficulty: ptr(model.DifficultyIntermediate),
	}, now)

	require.NoError(t, err)
	assert.Equal(t, "What is 2 + 3?", q.Content)
	assert.Equal(t, model.DifficultyIntermediate, q.Difficulty)
	assert.Equal(t, model.QuestionStatusPending, q.Status)
	assert.Equal(t, now, q.UpdatedAt)
}

func TestSubmitEditsNothingToSave(t *testing.T) {
	orig := pendingQuestion()
	q, err := SubmitEdits(orig, model.QuestionPatch{Content: ptr(orig.Content)}, now)

	assert.ErrorIs(t, err, apperror.ErrNothingToSave)
	assert.Equal(t, orig, q)

	_, err = SubmitEdits(orig, model.QuestionPatch{}, now)
	assert.ErrorIs(t, err, apperror.ErrNothingToSave)
}

func TestSubmitEditsRejectsBlankContent(t *testing.T) {
	_, err := SubmitEdits(pendingQuestion(), model.QuestionPatch{Content: ptr("  ")}, now)

	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "content", ve.Field)
}

func TestApproveAppliesEditsFirst(t *testing.T) {
	q, err := Approve(pendingQuestion(), model.QuestionPatch{ReviewNotes: ptr("checked")}, "reviewer@example.com", now)

	require.NoError(t, err)
	assert.Equal(t, model.QuestionStatusApproved, q.Status)
	assert.Equal(t, "checked", q.ReviewNotes)
	assert.Equal(t, "reviewer@example.com", q.VerifiedBy)
	assert.True(t, Eligible(q))
}

func TestApproveWithoutEdits(t *testing.T) {
	q, err := Approve(pendingQuestion(), model.QuestionPatch{}, "", now)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionStatusApproved, q.Status)
	assert.Empty(t, q.VerifiedBy)
}

func TestReject(t *testing.T) {
	q := Reject(pendingQuestion(), ptr("duplicate of q9"), now)
	assert.Equal(t, model.QuestionStatusRejected, q.Status)
	assert.Equal(t, "duplicate of q9", q.ReviewNotes)
	assert.False(t, Eligible(q))

	keep := pendingQuestion()
	keep.ReviewNotes = "earlier"
	assert.Equal(t, "earlier", Reject(keep, nil, now).ReviewNotes)
}

func TestSetStatusAllowsAnyKnownTransition(t *testing.T) {
	approved := pendingQuestion()
	approved.Status = model.QuestionStatusApproved

	back, err := SetStatus(approved, model.QuestionStatusPending, now)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionStatusPending, back.Status)

	_, err = SetStatus(approved, "archived", now)
	var ve *apperror.ValidationError
	assert.ErrorAs(t, err, &ve)
}
