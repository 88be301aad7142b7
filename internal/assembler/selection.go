// Package assembler composes approved questions into weighted, ordered
// quizzes and manages their publish and sharing settings.
package assembler

import (
	"sort"

	"github.com/stemsi/assessment-pipeline/internal/model"
)

// Selection is an immutable ordered set of weighted question references.
// Every method returns a new value; order is always 0..n-1.
type Selection struct {
	items []model.QuizQuestion
}

// NewSelection rebuilds a selection from a list. Later duplicates of an id
// are dropped; negative weights are clamped to zero.
func NewSelection(list ...model.SelectionItem) Selection {
	items := make([]model.QuizQuestion, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, it := range list {
		if _, dup := seen[it.QuestionID]; dup {
			continue
		}
		seen[it.QuestionID] = struct{}{}
		items = append(items, model.QuizQuestion{QuestionID: it.QuestionID, Points: clamp(it.Points)})
	}
	return Selection{items: reorder(items)}
}

// FromQuiz reads a quiz's questions in display order. Ties on order keep
// their stored sequence.
func FromQuiz(q model.Quiz) Selection {
	items := make([]model.QuizQuestion, len(q.Questions))
	copy(items, q.Questions)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })

	list := make([]model.SelectionItem, len(items))
	for i, it := range items {
		list[i] = model.SelectionItem{QuestionID: it.QuestionID, Points: it.Points}
	}
	return NewSelection(list...)
}

// Add appends id. It reports false and returns s unchanged if id is present.
func (s Selection) Add(id string, points int) (Selection, bool) {
	if s.Contains(id) {
		return s, false
	}
	items := append(s.clone(), model.QuizQuestion{QuestionID: id, Points: clamp(points)})
	return Selection{items: reorder(items)}, true
}

// Remove drops id and closes the gap in order.
func (s Selection) Remove(id string) (Selection, bool) {
	items := make([]model.QuizQuestion, 0, len(s.items))
	found := false
	for _, it := range s.items {
		if it.QuestionID == id {
			found = true
			continue
		}
		items = append(items, it)
	}
	if !found {
		return s, false
	}
	return Selection{items: reorder(items)}, true
}

// SetPoints changes the weight of id.
func (s Selection) SetPoints(id string, points int) (Selection, bool) {
	items := s.clone()
	for i := range items {
		if items[i].QuestionID == id {
			items[i].Points = clamp(points)
			return Selection{items: items}, true
		}
	}
	return s, false
}

func (s Selection) Contains(id string) bool {
	for _, it := range s.items {
		if it.QuestionID == id {
			return true
		}
	}
	return false
}

func (s Selection) Len() int { return len(s.items) }

// IDs returns question ids in order.
func (s Selection) IDs() []string {
	ids := make([]string, len(s.items))
	for i, it := range s.items {
		ids[i] = it.QuestionID
	}
	return ids
}

// Items returns a copy of the ordered references.
func (s Selection) Items() []model.QuizQuestion {
	return s.clone()
}

// TotalPoints is the sum of all weights.
func (s Selection) TotalPoints() int {
	total := 0
	for _, it := range s.items {
		total += it.Points
	}
	return total
}

func (s Selection) clone() []model.QuizQuestion {
	out := make([]model.QuizQuestion, len(s.items))
	copy(out, s.items)
	return out
}

func reorder(items []model.QuizQuestion) []model.QuizQuestion {
	for i := range items {
		items[i].Order = i
	}
	return items
}

func clamp(points int) int {
	if points < 0 {
		return 0
	}
	return points
}
