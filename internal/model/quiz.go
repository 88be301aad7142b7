package model

import "time"

// QuizStatus enumerates quiz lifecycle states.
type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
)

// QuizQuestion is a weighted, ordered reference to a Question by id.
type QuizQuestion struct {
	QuestionID string `json:"questionId"`
	Points     int    `json:"points"`
	Order      int    `json:"order"`
}

// Quiz is an ordered, weighted collection of question references.
// TotalPoints always equals the sum of Questions[].Points.
type Quiz struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Status         QuizStatus     `json:"status"`
	Questions      []QuizQuestion `json:"questions"`
	TotalPoints    int            `json:"totalPoints"`
	IsPublic       bool           `json:"isPublic"`
	PublicSlug     string         `json:"publicSlug,omitempty"`
	AccessPassword string         `json:"accessPassword,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// HasPassword reports whether the public quiz is gated.
func (q Quiz) HasPassword() bool {
	return q.AccessPassword != ""
}

// QuizFilter narrows quiz listings.
type QuizFilter struct {
	Status QuizStatus
	Limit  int
	Offset int
}

// CreateQuizRequest is the payload for creating a draft quiz.
type CreateQuizRequest struct {
	Title       string `json:"title" binding:"max=255"`
	Description string `json:"description" binding:"max=5000"`
}

// ListQuizzesQuery is the query string for GET /quizzes.
type ListQuizzesQuery struct {
	Status  string `form:"status" binding:"omitempty,oneof=draft published"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=200"`
}

// SelectionItem is one entry of an explicit selection rebuild.
type SelectionItem struct {
	QuestionID string `json:"questionId" binding:"required"`
	Points     int    `json:"points" binding:"min=0"`
}

// SetQuestionsRequest rebuilds a quiz's questions from a list.
type SetQuestionsRequest struct {
	Questions []SelectionItem `json:"questions" binding:"dive"`
}

// AddQuestionRequest appends one question to a quiz.
type AddQuestionRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Points     int    `json:"points" binding:"min=0"`
}

// UpdatePointsRequest changes a single question's weight.
type UpdatePointsRequest struct {
	Points int `json:"points" binding:"min=0"`
}

// EnableSharingRequest turns on public sharing.
type EnableSharingRequest struct {
	Title    string  `json:"title" binding:"max=255"`
	Password *string `json:"password" binding:"omitempty,max=128"`
}

// PublicQuestion is a question as shown to a participant: no correctness data.
type PublicQuestion struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Type        QuestionType `json:"type"`
	Options     []string     `json:"options,omitempty"`
	Images      []string     `json:"images,omitempty"`
	Points      int          `json:"points"`
	Order       int          `json:"order"`
	Unavailable bool         `json:"unavailable,omitempty"`
}

// PublicQuizPayload is the cached public view of a shared quiz.
type PublicQuizPayload struct {
	QuizID           string           `json:"quizId"`
	Slug             string           `json:"slug"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	TotalPoints      int              `json:"totalPoints"`
	PasswordRequired bool             `json:"passwordRequired"`
	Questions        []PublicQuestion `json:"questions,omitempty"`
}
