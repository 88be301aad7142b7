package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

func TestPlayWithoutPasswordSkipsLocked(t *testing.T) {
	p := StartPlay(model.Quiz{})
	assert.Equal(t, StateUnlocked, p.State)
}

func TestPlayLifecycle(t *testing.T) {
	quiz := model.Quiz{AccessPassword: "s3cret"}
	p := StartPlay(quiz)
	require.Equal(t, StateLocked, p.State)

	_, err := p.Begin()
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)

	p, ok := p.Unlock(quiz, "S3CRET")
	assert.False(t, ok)
	assert.Equal(t, StateLocked, p.State)

	p, ok = p.Unlock(quiz, "s3cret")
	require.True(t, ok)
	assert.Equal(t, StateUnlocked, p.State)

	p, err = p.Begin()
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, p.State)

	p, err = p.Submit()
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, p.State)

	_, err = p.Submit()
	assert.ErrorIs(t, err, apperror.ErrAlreadySubmitted)
}

func TestResumePlay(t *testing.T) {
	assert.Equal(t, StateLocked, ResumePlay(false, false).State)
	assert.Equal(t, StateLocked, ResumePlay(false, true).State)
	assert.Equal(t, StateUnlocked, ResumePlay(true, false).State)

	done := ResumePlay(true, true)
	assert.Equal(t, StateSubmitted, done.State)
	_, err := done.Begin()
	assert.ErrorIs(t, err, apperror.ErrAlreadySubmitted)
}

func TestTrustPolicies(t *testing.T) {
	quiz, questions := capitalsQuiz()
	req := model.SubmitAttemptRequest{
		Answers:  map[string]any{"q1": "London", "q2": "42"},
		Score:    8,
		MaxScore: 8,
	}

	assert.Equal(t, model.GradeResult{Score: 8, MaxScore: 8}, PolicyFor("client").Score(quiz, questions, req))
	assert.Equal(t, model.GradeResult{Score: 3, MaxScore: 8}, PolicyFor("regrade").Score(quiz, questions, req))
	assert.Equal(t, "client", PolicyFor("bogus").Name())
}
