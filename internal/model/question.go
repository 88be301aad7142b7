package model

import (
	"encoding/json"
	"time"
)

// QuestionType enumerates canonical question kinds.
type QuestionType string

const (
	QuestionTypeMCQSingle    QuestionType = "MCQ_SINGLE"
	QuestionTypeMCQMulti     QuestionType = "MCQ_MULTI"
	QuestionTypeFillInBlank  QuestionType = "FILL_IN_BLANK"
	QuestionTypeFreeResponse QuestionType = "FREE_RESPONSE"
	QuestionTypePassageBased QuestionType = "PASSAGE_BASED"
	QuestionTypeTrueFalse    QuestionType = "TRUE_FALSE"
)

// UsesCorrectAnswer reports whether correctness lives in CorrectAnswer
// rather than in option flags.
func (t QuestionType) UsesCorrectAnswer() bool {
	return t == QuestionTypeFreeResponse || t == QuestionTypeFillInBlank
}

// Difficulty is the coarse difficulty bucket of a question.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
	DifficultyCompetition  Difficulty = "Competition"
)

// QuestionStatus is a moderation state.
type QuestionStatus string

const (
	QuestionStatusDraft    QuestionStatus = "draft"
	QuestionStatusPending  QuestionStatus = "pending"
	QuestionStatusApproved QuestionStatus = "approved"
	QuestionStatusRejected QuestionStatus = "rejected"
)

// Option is one choice of a choice-style question.
type Option struct {
	Text        string `json:"text"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
}

// Source attributes a question to the dataset it came from.
type Source struct {
	Dataset    string `json:"dataset"`
	OriginalID string `json:"originalId,omitempty"`
	License    string `json:"license,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Question is the canonical form of an assessable item.
// CorrectAnswer is nil for choice types; correctness there lives in Options.
type Question struct {
	ID            string         `json:"id"`
	Content       string         `json:"content"`
	Type          QuestionType   `json:"type"`
	Options       []Option       `json:"options,omitempty"`
	CorrectAnswer *string        `json:"correctAnswer,omitempty"`
	Explanation   string         `json:"explanation,omitempty"`
	Difficulty    Difficulty     `json:"difficulty"`
	DomainID      string         `json:"domainId,omitempty"`
	TopicID       string         `json:"topicId,omitempty"`
	SubTopicID    string         `json:"subTopicId,omitempty"`
	Curricula     []string       `json:"curricula,omitempty"`
	Images        []string       `json:"images,omitempty"`
	Source        Source         `json:"source"`
	Status        QuestionStatus `json:"status"`
	ReviewNotes   string         `json:"reviewNotes,omitempty"`
	VerifiedBy    string         `json:"verifiedBy,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// CorrectOption returns the first option flagged correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o, true
		}
	}
	return Option{}, false
}

// ToRecord renders the question as an untyped document record, the shape
// the store persists and the normalizer reads back.
func (q Question) ToRecord() map[string]any {
	b, err := json.Marshal(q)
	if err != nil {
		return map[string]any{}
	}
	var rec map[string]any
	if err := json.Unmarshal(b, &rec); err != nil {
		return map[string]any{}
	}
	return rec
}

// QuestionFilter narrows question listings. Zero values mean "any".
type QuestionFilter struct {
	Status   QuestionStatus
	DomainID string
	TopicID  string
	Limit    int
	Offset   int
}

// QuestionPatch is a partial moderation edit. Nil fields are untouched.
type QuestionPatch struct {
	Content     *string     `json:"content" binding:"omitempty,min=1,max=20000"`
	Difficulty  *Difficulty `json:"difficulty" binding:"omitempty,difficulty"`
	ReviewNotes *string     `json:"reviewNotes" binding:"omitempty,max=2000"`
}

// ListQuestionsQuery is the query string for GET /questions.
type ListQuestionsQuery struct {
	Status   string `form:"status" binding:"omitempty,qstatus"`
	DomainID string `form:"domain"`
	TopicID  string `form:"topic"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"per_page" binding:"omitempty,min=1,max=200"`
}

// ImportQuestionsRequest carries raw records of any shape.
type ImportQuestionsRequest struct {
	Records []map[string]any `json:"records" binding:"required,min=1,max=1000"`
}

// ApproveRequest optionally carries edits to apply before approval.
type ApproveRequest struct {
	Patch      QuestionPatch `json:"patch"`
	VerifiedBy string        `json:"verifiedBy" binding:"omitempty,max=255"`
}

// RejectRequest carries optional reviewer notes.
type RejectRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=2000"`
}

// BatchStatusRequest applies one status to many questions.
type BatchStatusRequest struct {
	IDs    []string       `json:"ids" binding:"required,min=1,max=500,dive,required"`
	Status QuestionStatus `json:"status" binding:"required,qstatus"`
}

// BulkDeleteRequest deletes many questions.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500,dive,required"`
}
