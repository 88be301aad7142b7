// Package scoring grades participant answers against a quiz and tracks the
// per-session play state of public quizzes.
package scoring

import (
	"strconv"

	"github.com/stemsi/assessment-pipeline/internal/model"
)

// Grade scores answers against quiz. questions maps ids to resolved
// questions; references missing from it earn nothing. MaxScore is always
// quiz.TotalPoints.
//
// Choice questions compare the answer to the text of the first option
// flagged correct. MCQ_MULTI questions are graded the same way, so a
// multi-select answer can never match; that gap is kept for compatibility
// with already recorded attempts.
func Grade(quiz model.Quiz, questions map[string]model.Question, answers map[string]any) model.GradeResult {
	score := 0
	for _, ref := range quiz.Questions {
		q, ok := questions[ref.QuestionID]
		if !ok {
			continue
		}
		given, ok := AnswerString(answers[ref.QuestionID])
		if !ok {
			continue
		}
		if Correct(q, given) {
			score += ref.Points
		}
	}
	return model.GradeResult{Score: score, MaxScore: quiz.TotalPoints}
}

// Correct reports exact, case-sensitive correctness of a single answer.
func Correct(q model.Question, answer string) bool {
	if len(q.Options) > 0 {
		opt, ok := q.CorrectOption()
		return ok && opt.Text == answer
	}
	return q.CorrectAnswer != nil && *q.CorrectAnswer == answer
}

// AnswerString renders a raw answer (string, number or boolean) the way it
// is compared. ok is false for absent or composite answers.
func AnswerString(v any) (string, bool) {
	switch a := v.(type) {
	case string:
		return a, true
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64), true
	case int:
		return strconv.Itoa(a), true
	case int64:
		return strconv.FormatInt(a, 10), true
	case bool:
		return strconv.FormatBool(a), true
	}
	return "", false
}
