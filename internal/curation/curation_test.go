package curation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/assessment-pipeline/internal/model"
)

func intPtr(v int) *int { return &v }

func question(id, domain, topic string, d model.Difficulty) model.Question {
	return model.Question{ID: id, DomainID: domain, TopicID: topic, Difficulty: d, Status: model.QuestionStatusApproved}
}

func ids(qs []model.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func samplePool() []model.Question {
	return []model.Question{
		question("a1", "Algebra", "linear", model.DifficultyBeginner),
		question("a2", "algebra", "linear", model.DifficultyIntermediate),
		question("a3", "ALGEBRA", "quadratic", model.DifficultyAdvanced),
		question("a4", "algebra", "quadratic", model.DifficultyAdvanced),
		question("g1", "geometry", "circles", model.DifficultyBeginner),
	}
}

func TestTargetDifficulty(t *testing.T) {
	tests := []struct {
		name    string
		filters model.CurationFilters
		want    model.Difficulty
		ok      bool
	}{
		{"fluency", model.CurationFilters{CognitiveDepth: "Fluency"}, model.DifficultyBeginner, true},
		{"conceptual", model.CurationFilters{CognitiveDepth: "Conceptual"}, model.DifficultyIntermediate, true},
		{"application", model.CurationFilters{CognitiveDepth: "Application"}, model.DifficultyAdvanced, true},
		{"synthesis", model.CurationFilters{CognitiveDepth: "Synthesis"}, model.DifficultyAdvanced, true},
		{"depth wins over scaffold", model.CurationFilters{CognitiveDepth: "Fluency", ScaffoldLevelMin: intPtr(5)}, model.DifficultyBeginner, true},
		{"unmapped depth", model.CurationFilters{CognitiveDepth: "Recall", ScaffoldLevelMin: intPtr(5)}, "", false},
		{"scaffold high", model.CurationFilters{ScaffoldLevelMin: intPtr(4)}, model.DifficultyAdvanced, true},
		{"scaffold low", model.CurationFilters{ScaffoldLevelMin: intPtr(2)}, model.DifficultyBeginner, true},
		{"scaffold mid", model.CurationFilters{ScaffoldLevelMin: intPtr(3)}, model.DifficultyIntermediate, true},
		{"nothing", model.CurationFilters{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TargetDifficulty(tt.filters)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterConjunctive(t *testing.T) {
	res := Filter(samplePool(), model.FilterDescriptor{
		Filters: model.CurationFilters{Domain: "algebra", Topic: "QUADRATIC", CognitiveDepth: "Application"},
	}, 10, nil, NewSeededSource(1))

	assert.ElementsMatch(t, []string{"a3", "a4"}, ids(res.Candidates))
	assert.Equal(t, 10, res.Requested)
	assert.Equal(t, 8, res.Shortfall)
}

func TestFilterUnmappedDepthLeavesPoolUntouched(t *testing.T) {
	res := Filter(samplePool(), model.FilterDescriptor{
		Filters: model.CurationFilters{Domain: "algebra", CognitiveDepth: "Recall"},
	}, 10, nil, NewSeededSource(1))

	assert.ElementsMatch(t, []string{"a1", "a2", "a3", "a4"}, ids(res.Candidates))
}

func TestFilterExcludesSelection(t *testing.T) {
	res := Filter(samplePool(), model.FilterDescriptor{}, 10, []string{"a1", "g1"}, NewSeededSource(7))

	assert.ElementsMatch(t, []string{"a2", "a3", "a4"}, ids(res.Candidates))
}

func TestFilterDefaultCountAndDeterminism(t *testing.T) {
	pool := make([]model.Question, 0, 20)
	for i := range 20 {
		pool = append(pool, question(fmt.Sprintf("q%02d", i), "d", "t", model.DifficultyBeginner))
	}

	first := Filter(pool, model.FilterDescriptor{Justification: "warm-up set"}, 0, nil, NewSeededSource(42))
	second := Filter(pool, model.FilterDescriptor{Justification: "warm-up set"}, 0, nil, NewSeededSource(42))

	require.Len(t, first.Candidates, DefaultCount)
	assert.Equal(t, ids(first.Candidates), ids(second.Candidates))
	assert.Equal(t, "warm-up set", first.Justification)
	assert.Zero(t, first.Shortfall)
	assert.Equal(t, "q00", pool[0].ID, "pool must not be reordered")
}

func TestFilterUsesDescriptorCount(t *testing.T) {
	res := Filter(samplePool(), model.FilterDescriptor{Count: 2}, 0, nil, NewSeededSource(3))
	assert.Len(t, res.Candidates, 2)
}
