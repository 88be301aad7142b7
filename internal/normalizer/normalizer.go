// Package normalizer converts arbitrary question records, including legacy
// shapes, into the canonical model.Question. Normalize never fails:
// ambiguity is reported in-band through a pending status and review notes.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/assessment-pipeline/internal/model"
)

const (
	// LegacyFlagNote is set when legacy string options carry no verifiable answer.
	LegacyFlagNote = "Auto-flagged: legacy question normalized, correct answer unverified"
	// MissingContentNote is set when neither content nor stemMarkdown is present.
	MissingContentNote = "Auto-flagged: question content missing"
	// MissingContentPlaceholder keeps content non-empty for flagged records.
	MissingContentPlaceholder = "(question content missing)"

	defaultDataset = "Manual"
)

var legacyTypes = map[string]model.QuestionType{
	"MULTIPLE_CHOICE": model.QuestionTypeMCQSingle,
}

var difficulties = map[string]model.Difficulty{
	"beginner":     model.DifficultyBeginner,
	"intermediate": model.DifficultyIntermediate,
	"advanced":     model.DifficultyAdvanced,
	"competition":  model.DifficultyCompetition,
}

var statuses = map[string]model.QuestionStatus{
	"draft":    model.QuestionStatusDraft,
	"pending":  model.QuestionStatusPending,
	"approved": model.QuestionStatusApproved,
	"rejected": model.QuestionStatusRejected,
}

// Matches "A. text", "b) text", "3. text". The delimiter must be followed by
// whitespace or the end so that "3.14" is not read as label "3".
var labelPrefix = regexp.MustCompile(`^\s*([A-Za-z]|\d{1,2})\s*[.)](\s|$)`)

// Normalizer holds the clock used for defaulted timestamps.
type Normalizer struct {
	now func() time.Time
}

// New returns a Normalizer using now for absent timestamps.
func New(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

var defaultNormalizer = New(time.Now)

// Normalize converts raw with the wall clock.
func Normalize(raw map[string]any) model.Question {
	return defaultNormalizer.Normalize(raw)
}

// Normalize converts raw into a canonical question. Applying it to the
// record form of its own output yields the same question.
func (n *Normalizer) Normalize(raw map[string]any) model.Question {
	if raw == nil {
		raw = map[string]any{}
	}
	now := n.now().UTC().Round(0)

	correct, hasCorrect := scalar(raw["correctAnswer"])
	options, legacy := materializeOptions(raw["options"], correct, hasCorrect)

	q := model.Question{
		ID:          firstString(raw, "id", "_id"),
		Type:        resolveType(raw["type"], len(options) > 0),
		Options:     options,
		Explanation: stringField(raw, "explanation"),
		Difficulty:  resolveDifficulty(raw["difficulty"]),
		Source:      resolveSource(raw["source"]),
		Status:      resolveStatus(raw["status"]),
		ReviewNotes: stringField(raw, "reviewNotes"),
		VerifiedBy:  stringField(raw, "verifiedBy"),
		CreatedAt:   resolveTime(raw["createdAt"], now),
		UpdatedAt:   resolveTime(raw["updatedAt"], now),
	}

	if legacy && !anyCorrect(options) && strings.TrimSpace(correct) == "" {
		q.Status = model.QuestionStatusPending
		q.ReviewNotes = LegacyFlagNote
	}

	if q.Type.UsesCorrectAnswer() {
		q.Options = nil
		if hasCorrect {
			answer := correct
			q.CorrectAnswer = &answer
		}
	}

	taxonomy, _ := raw["taxonomy"].(map[string]any)
	q.Content = firstString(raw, "content", "stemMarkdown")
	if raw["images"] != nil {
		q.Images = stringSlice(raw["images"])
	} else {
		q.Images = stringSlice(raw["figureUrls"])
	}
	q.DomainID = fallbackString(raw, "domainId", taxonomy, "domain")
	q.TopicID = fallbackString(raw, "topicId", taxonomy, "topic")
	q.SubTopicID = fallbackString(raw, "subTopicId", taxonomy, "subTopic")
	q.Curricula = resolveCurricula(raw, taxonomy)

	if q.Content == "" {
		q.Content = MissingContentPlaceholder
		q.Status = model.QuestionStatusPending
		q.ReviewNotes = joinNotes(q.ReviewNotes, MissingContentNote)
	}

	return q
}

func resolveType(v any, hasOptions bool) model.QuestionType {
	raw, _ := v.(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if hasOptions {
			return model.QuestionTypeMCQSingle
		}
		return model.QuestionTypeFreeResponse
	}
	if mapped, ok := legacyTypes[strings.ToUpper(raw)]; ok {
		return mapped
	}
	return model.QuestionType(raw)
}

// materializeOptions returns the canonical options and whether any element
// was a legacy plain value that had to be converted.
func materializeOptions(v any, correct string, hasCorrect bool) ([]model.Option, bool) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		if typed, ok := v.([]string); ok && len(typed) > 0 {
			items = make([]any, len(typed))
			for i, s := range typed {
				items[i] = s
			}
		} else {
			return nil, false
		}
	}

	options := make([]model.Option, 0, len(items))
	legacy := false
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			options = append(options, decodeOption(obj))
			continue
		}
		text, ok := scalar(item)
		if !ok {
			continue
		}
		legacy = true
		options = append(options, model.Option{
			Text:      text,
			IsCorrect: hasCorrect && matchesAnswer(text, correct),
		})
	}
	if len(options) == 0 {
		return nil, legacy
	}
	return options, legacy
}

func decodeOption(obj map[string]any) model.Option {
	text, _ := scalar(obj["text"])
	opt := model.Option{Text: text, IsCorrect: truthy(obj["isCorrect"])}
	if exp, ok := obj["explanation"].(string); ok {
		opt.Explanation = exp
	}
	return opt
}

func matchesAnswer(text, answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	if text == answer || strings.TrimSpace(text) == answer {
		return true
	}
	m := labelPrefix.FindStringSubmatch(text)
	return m != nil && strings.EqualFold(m[1], answer)
}

func anyCorrect(options []model.Option) bool {
	for _, o := range options {
		if o.IsCorrect {
			return true
		}
	}
	return false
}

func resolveDifficulty(v any) model.Difficulty {
	raw, _ := v.(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.DifficultyBeginner
	}
	if d, ok := difficulties[strings.ToLower(raw)]; ok {
		return d
	}
	return model.Difficulty(raw)
}

func resolveStatus(v any) model.QuestionStatus {
	raw, _ := v.(string)
	if s, ok := statuses[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return model.QuestionStatusDraft
}

func resolveSource(v any) model.Source {
	var src model.Source
	switch s := v.(type) {
	case map[string]any:
		src.Dataset = stringField(s, "dataset")
		src.OriginalID = stringField(s, "originalId")
		src.License = stringField(s, "license")
		src.URL = stringField(s, "url")
	case string:
		src.Dataset = strings.TrimSpace(s)
	}
	if src.Dataset == "" {
		src.Dataset = defaultDataset
	}
	return src
}

func resolveCurricula(raw, taxonomy map[string]any) []string {
	if _, ok := raw["curricula"].([]any); ok {
		return stringSlice(raw["curricula"])
	}
	if typed, ok := raw["curricula"].([]string); ok {
		return stringSlice(typed)
	}
	if c := stringField(taxonomy, "curriculum"); c != "" {
		return []string{c}
	}
	if c := stringField(raw, "curriculum"); c != "" {
		return []string{c}
	}
	return nil
}

// resolveTime accepts RFC 3339 strings, time values, unix seconds or
// milliseconds, and {seconds, nanoseconds} objects.
func resolveTime(v any, fallback time.Time) time.Time {
	switch t := v.(type) {
	case time.Time:
		if !t.IsZero() {
			return t.UTC().Round(0)
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t)); err == nil {
			return parsed.UTC()
		}
	case float64:
		return fromUnix(int64(t))
	case int64:
		return fromUnix(t)
	case int:
		return fromUnix(int64(t))
	case map[string]any:
		secs, ok := t["seconds"].(float64)
		if !ok {
			secs, ok = t["_seconds"].(float64)
		}
		if ok {
			nanos, _ := t["nanoseconds"].(float64)
			return time.Unix(int64(secs), int64(nanos)).UTC()
		}
	}
	return fallback
}

func fromUnix(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func joinNotes(existing, note string) string {
	switch {
	case existing == "":
		return note
	case strings.Contains(existing, note):
		return existing
	}
	return existing + "; " + note
}

// ─── record helpers ─────────────────────────────────────────────────────

// scalar stringifies strings, numbers and booleans. ok is false for nil
// and composite values.
func scalar(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	}
	return false
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := scalar(m[k]); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func fallbackString(raw map[string]any, key string, taxonomy map[string]any, nested string) string {
	if s := stringField(raw, key); s != "" {
		return s
	}
	return stringField(taxonomy, nested)
}

func stringSlice(v any) []string {
	var out []string
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range items {
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
