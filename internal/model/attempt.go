package model

import "time"

// Attempt is an immutable record of one completed play-through.
type Attempt struct {
	ID          int64          `json:"id,omitempty"`
	SessionID   string         `json:"sessionId"`
	QuizID      string         `json:"quizId"`
	Slug        string         `json:"slug"`
	PlayerName  string         `json:"playerName"`
	Answers     map[string]any `json:"answers"`
	Score       int            `json:"score"`
	MaxScore    int            `json:"maxScore"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// GradeResult is the outcome of grading an answer map.
type GradeResult struct {
	Score    int `json:"score"`
	MaxScore int `json:"maxScore"`
}

// UnlockRequest carries the participant's password guess.
type UnlockRequest struct {
	Password string `json:"password"`
}

// GradeRequest carries answers to grade without recording an attempt.
type GradeRequest struct {
	Answers map[string]any `json:"answers" binding:"required"`
}

// MaxClaimedScore bounds the score and maxScore a client may submit.
const MaxClaimedScore = 1_000_000

// SubmitAttemptRequest is the attempt submission boundary.
type SubmitAttemptRequest struct {
	QuizID     string         `json:"quizId" binding:"required"`
	PlayerName string         `json:"playerName" binding:"required,min=1,max=100"`
	Answers    map[string]any `json:"answers" binding:"required"`
	Score      int            `json:"score" binding:"min=0,max=1000000,ltefield=MaxScore"`
	MaxScore   int            `json:"maxScore" binding:"min=0,max=1000000"`
}

// PlaySession is the grant embedded in a signed play token.
type PlaySession struct {
	SessionID string
	QuizID    string
	Slug      string
	Unlocked  bool
	ExpiresAt time.Time
}
