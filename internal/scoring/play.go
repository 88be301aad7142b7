package scoring

import (
	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

// PlayState is the state of one participant's play-through.
type PlayState string

const (
	StateLocked     PlayState = "locked"
	StateUnlocked   PlayState = "unlocked"
	StateInProgress PlayState = "in_progress"
	StateSubmitted  PlayState = "submitted"
)

// Play tracks a single play session. Values are immutable.
type Play struct {
	State PlayState
}

// StartPlay opens a session; it starts unlocked when the quiz has no password.
func StartPlay(quiz model.Quiz) Play {
	if quiz.HasPassword() {
		return Play{State: StateLocked}
	}
	return Play{State: StateUnlocked}
}

// ResumePlay rebuilds a session from its signed grant and whether its
// attempt was already recorded.
func ResumePlay(unlocked, submitted bool) Play {
	switch {
	case !unlocked:
		return Play{State: StateLocked}
	case submitted:
		return Play{State: StateSubmitted}
	}
	return Play{State: StateUnlocked}
}

// Unlock compares attempt to the quiz password exactly. A mismatch leaves
// the session locked; there is no lockout.
func Unlock(quiz model.Quiz, attempt string) bool {
	return !quiz.HasPassword() || attempt == quiz.AccessPassword
}

// Unlock moves a locked session forward when attempt matches.
func (p Play) Unlock(quiz model.Quiz, attempt string) (Play, bool) {
	if p.State != StateLocked {
		return p, true
	}
	if !Unlock(quiz, attempt) {
		return p, false
	}
	return Play{State: StateUnlocked}, true
}

// Begin starts answering.
func (p Play) Begin() (Play, error) {
	switch p.State {
	case StateUnlocked, StateInProgress:
		return Play{State: StateInProgress}, nil
	case StateSubmitted:
		return p, apperror.ErrAlreadySubmitted
	}
	return p, apperror.ErrAccessDenied
}

// Submit ends the session. A session submits at most once.
func (p Play) Submit() (Play, error) {
	switch p.State {
	case StateInProgress, StateUnlocked:
		return Play{State: StateSubmitted}, nil
	case StateSubmitted:
		return p, apperror.ErrAlreadySubmitted
	}
	return p, apperror.ErrAccessDenied
}
