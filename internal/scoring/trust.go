package scoring

import (
	"github.com/stemsi/assessment-pipeline/internal/model"
)

// TrustPolicy decides which score is persisted for a submitted attempt.
type TrustPolicy interface {
	Name() string
	// Regrades reports whether Score needs the resolved questions.
	Regrades() bool
	Score(quiz model.Quiz, questions map[string]model.Question, req model.SubmitAttemptRequest) model.GradeResult
}

// ClientScorePolicy persists the caller's pre-computed score verbatim.
type ClientScorePolicy struct{}

func (ClientScorePolicy) Name() string { return "client" }

func (ClientScorePolicy) Regrades() bool { return false }

func (ClientScorePolicy) Score(_ model.Quiz, _ map[string]model.Question, req model.SubmitAttemptRequest) model.GradeResult {
	return model.GradeResult{Score: req.Score, MaxScore: req.MaxScore}
}

// RegradePolicy ignores the submitted score and grades the answers.
type RegradePolicy struct{}

func (RegradePolicy) Name() string { return "regrade" }

func (RegradePolicy) Regrades() bool { return true }

func (RegradePolicy) Score(quiz model.Quiz, questions map[string]model.Question, req model.SubmitAttemptRequest) model.GradeResult {
	return Grade(quiz, questions, req.Answers)
}

// PolicyFor maps a configured trust mode to a policy. Unknown modes trust the client.
func PolicyFor(mode string) TrustPolicy {
	if mode == "regrade" {
		return RegradePolicy{}
	}
	return ClientScorePolicy{}
}
