package model

import "time"

// ReviewEvent is published whenever a question's moderation state changes.
type ReviewEvent struct {
	QuestionID string         `json:"questionId"`
	Action     string         `json:"action"`
	Status     QuestionStatus `json:"status"`
	At         time.Time      `json:"at"`
}

// Review event actions.
const (
	ReviewActionEdited   = "edited"
	ReviewActionApproved = "approved"
	ReviewActionRejected = "rejected"
	ReviewActionStatus   = "status_changed"
	ReviewActionDeleted  = "deleted"
	ReviewActionImported = "imported"
)
