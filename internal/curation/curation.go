// Package curation narrows a pool of canonical questions using the filter
// descriptor returned by the classification service.
package curation

import (
	"math/rand/v2"
	"strings"

	"github.com/stemsi/assessment-pipeline/internal/model"
)

// DefaultCount is used when the caller asks for zero or fewer candidates.
const DefaultCount = 5

// RandomSource drives sampling. *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Shuffle(n int, swap func(i, j int))
}

// NewSeededSource returns a deterministic source for reproducible sampling.
func NewSeededSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type globalSource struct{}

func (globalSource) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultSource samples from the process-wide generator.
func DefaultSource() RandomSource { return globalSource{} }

var depthDifficulty = map[string]model.Difficulty{
	"fluency":     model.DifficultyBeginner,
	"conceptual":  model.DifficultyIntermediate,
	"application": model.DifficultyAdvanced,
	"synthesis":   model.DifficultyAdvanced,
}

// TargetDifficulty resolves the difficulty bucket requested by f.
// cognitiveDepth wins over scaffoldLevelMin; an unmapped depth yields no bucket.
func TargetDifficulty(f model.CurationFilters) (model.Difficulty, bool) {
	if f.CognitiveDepth != "" {
		d, ok := depthDifficulty[strings.ToLower(strings.TrimSpace(string(f.CognitiveDepth)))]
		return d, ok
	}
	if f.ScaffoldLevelMin != nil {
		switch lvl := *f.ScaffoldLevelMin; {
		case lvl >= 4:
			return model.DifficultyAdvanced, true
		case lvl <= 2:
			return model.DifficultyBeginner, true
		default:
			return model.DifficultyIntermediate, true
		}
	}
	return "", false
}

// Match reports whether q passes every filter in f.
func Match(q model.Question, f model.CurationFilters) bool {
	if f.Domain != "" && !strings.EqualFold(q.DomainID, f.Domain) {
		return false
	}
	if f.Topic != "" && !strings.EqualFold(q.TopicID, f.Topic) {
		return false
	}
	if d, ok := TargetDifficulty(f); ok && q.Difficulty != d {
		return false
	}
	return true
}

// Filter selects up to count questions from pool matching d, skipping ids
// already in selected. Fewer candidates than requested is not an error; the
// result reports the shortfall. The pool is not modified.
func Filter(pool []model.Question, d model.FilterDescriptor, count int, selected []string, rnd RandomSource) model.CurationResult {
	if count <= 0 {
		count = d.Count
	}
	if count <= 0 {
		count = DefaultCount
	}
	if rnd == nil {
		rnd = DefaultSource()
	}

	taken := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		taken[id] = struct{}{}
	}

	matched := make([]model.Question, 0, len(pool))
	for _, q := range pool {
		if _, dup := taken[q.ID]; dup && q.ID != "" {
			continue
		}
		if Match(q, d.Filters) {
			matched = append(matched, q)
		}
	}

	rnd.Shuffle(len(matched), func(i, j int) { matched[i], matched[j] = matched[j], matched[i] })
	if len(matched) > count {
		matched = matched[:count]
	}

	return model.CurationResult{
		Candidates:    matched,
		Requested:     count,
		Shortfall:     count - len(matched),
		Justification: d.Justification,
	}
}
