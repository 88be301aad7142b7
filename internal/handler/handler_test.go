package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/curation"
	"github.com/stemsi/assessment-pipeline/internal/middleware"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/scoring"
	"github.com/stemsi/assessment-pipeline/internal/service"
	"github.com/stemsi/assessment-pipeline/internal/validator"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

// ─── Fakes ──────────────────────────────────────────────────────────

type questionDocs struct {
	mu   sync.Mutex
	docs map[string]map[string]any
}

func (s *questionDocs) Get(_ context.Context, id string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, apperror.ErrNotFound)
	}
	return doc, nil
}

func (s *questionDocs) GetMany(_ context.Context, ids []string) (map[string]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]map[string]any{}
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}

func (s *questionDocs) List(_ context.Context, _ model.QuestionFilter) ([]map[string]any, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	return out, len(out), nil
}

func (s *questionDocs) Save(_ context.Context, id string, doc map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = doc
	return nil
}

func (s *questionDocs) Replace(ctx context.Context, id string, doc map[string]any) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.Save(ctx, id, doc)
}

func (s *questionDocs) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

type sharedQuiz struct {
	quiz model.Quiz
}

func (s *sharedQuiz) Get(_ context.Context, id string) (model.Quiz, error) {
	if id != s.quiz.ID {
		return model.Quiz{}, fmt.Errorf("quiz %s: %w", id, apperror.ErrNotFound)
	}
	return s.quiz, nil
}

func (s *sharedQuiz) GetBySlug(_ context.Context, slug string) (model.Quiz, error) {
	if slug != s.quiz.PublicSlug {
		return model.Quiz{}, fmt.Errorf("quiz %s: %w", slug, apperror.ErrNotFound)
	}
	return s.quiz, nil
}

func (s *sharedQuiz) List(context.Context, model.QuizFilter) ([]model.Quiz, int, error) {
	return []model.Quiz{s.quiz}, 1, nil
}

func (s *sharedQuiz) Create(context.Context, model.Quiz) error { return nil }

func (s *sharedQuiz) Replace(_ context.Context, q model.Quiz) error {
	s.quiz = q
	return nil
}

func (s *sharedQuiz) SlugTaken(context.Context, string, string) (bool, error) { return false, nil }

// ─── Fixture ────────────────────────────────────────────────────────

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func newQuestionDocs(qs ...model.Question) *questionDocs {
	s := &questionDocs{docs: map[string]map[string]any{}}
	for _, q := range qs {
		s.docs[q.ID] = q.ToRecord()
	}
	return s
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func capitalQuestion() model.Question {
	return model.Question{
		ID:      "q1",
		Content: "Capital of France?",
		Type:    model.QuestionTypeMCQSingle,
		Options: []model.Option{{Text: "London"}, {Text: "Paris", IsCorrect: true}},
		Status:  model.QuestionStatusApproved,
	}
}

func newAdminEngine(store *questionDocs) *gin.Engine {
	log := zerolog.Nop()
	questions := service.NewQuestionService(store, nil, 2, log)
	qh := NewQuestionHandler(questions)
	rh := NewReviewHandler(service.NewReviewService(questions, store, nil, 2, log))
	ch := NewCurationHandler(service.NewCurationService(nil, questions, curation.NewSeededSource(1), log))

	r := gin.New()
	r.POST("/questions/import", qh.ImportQuestions)
	r.GET("/questions/:id", qh.GetQuestion)
	r.POST("/questions/bulk-delete", qh.BulkDeleteQuestions)
	r.PATCH("/questions/:id", rh.SubmitEdits)
	r.POST("/questions/batch-status", rh.BatchSetStatus)
	r.POST("/curation/suggest", ch.Suggest)
	return r
}

func newPublicEngine(t *testing.T) *gin.Engine {
	t.Helper()
	log := zerolog.Nop()
	store := newQuestionDocs(capitalQuestion())
	quizzes := &sharedQuiz{quiz: model.Quiz{
		ID:          "quiz-1",
		Title:       "Capitals",
		Status:      model.QuizStatusPublished,
		Questions:   []model.QuizQuestion{{QuestionID: "q1", Points: 5}},
		TotalPoints: 5,
		IsPublic:    true,
		PublicSlug:  "capitals-abc123",
	}}
	delivery := service.NewDeliveryService(quizzes, service.NewQuestionService(store, nil, 1, log), newRedis(t),
		service.NewPlayTokens("secret", time.Hour), scoring.ClientScorePolicy{}, time.Minute, log)
	ph := NewPlayHandler(delivery)

	r := gin.New()
	public := r.Group("/public/quizzes/:slug", middleware.NoStore())
	public.GET("", ph.OpenQuiz)
	public.POST("/grade", middleware.RequirePlayToken(), ph.GradeAnswers)
	public.POST("/attempts", middleware.RequirePlayToken(), ph.SubmitAttempt)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

// ─── Admin ──────────────────────────────────────────────────────────

func TestImportQuestionsFlagsLegacyRecords(t *testing.T) {
	r := newAdminEngine(newQuestionDocs())

	w, env := do(t, r, http.MethodPost, "/questions/import", map[string]any{"records": []map[string]any{
		{"id": "a", "content": "Pick", "options": []string{"x", "y"}},
		{"id": "b", "content": "Six times seven?", "type": "FREE_RESPONSE", "correctAnswer": "42"},
	}}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var res service.ImportResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Len(t, res.Imported, 2)
	assert.Equal(t, 1, res.Flagged)
}

func TestImportQuestionsRejectsEmptyBody(t *testing.T) {
	r := newAdminEngine(newQuestionDocs())

	w, env := do(t, r, http.MethodPost, "/questions/import", map[string]any{"records": []any{}}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "records")
}

func TestGetQuestionNotFound(t *testing.T) {
	r := newAdminEngine(newQuestionDocs())

	w, env := do(t, r, http.MethodGet, "/questions/ghost", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestSubmitEditsWithoutChanges(t *testing.T) {
	r := newAdminEngine(newQuestionDocs(capitalQuestion()))

	w, env := do(t, r, http.MethodPatch, "/questions/q1", map[string]any{}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Saved bool `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.False(t, body.Saved)
}

func TestBatchStatusPartialFailure(t *testing.T) {
	store := newQuestionDocs(capitalQuestion())
	r := newAdminEngine(store)

	w, env := do(t, r, http.MethodPost, "/questions/batch-status", map[string]any{
		"ids":    []string{"q1", "ghost"},
		"status": "rejected",
	}, nil)

	require.Equal(t, http.StatusMultiStatus, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "PARTIAL_FAILURE", env.Error.Code)

	var res struct {
		Succeeded []string          `json:"succeeded"`
		Failed    map[string]string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, []string{"q1"}, res.Succeeded)
	assert.Contains(t, res.Failed, "ghost")
	assert.Equal(t, "rejected", store.docs["q1"]["status"])
}

func TestBatchStatusUnknownStatus(t *testing.T) {
	r := newAdminEngine(newQuestionDocs(capitalQuestion()))

	w, env := do(t, r, http.MethodPost, "/questions/batch-status", map[string]any{
		"ids":    []string{"q1"},
		"status": "archived",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "status")
}

func TestBulkDeleteAllSucceeded(t *testing.T) {
	store := newQuestionDocs(capitalQuestion())
	r := newAdminEngine(store)

	w, env := do(t, r, http.MethodPost, "/questions/bulk-delete", map[string]any{"ids": []string{"q1"}}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, env.Error)
	assert.Empty(t, store.docs)
}

func TestSuggestWithoutClassifier(t *testing.T) {
	r := newAdminEngine(newQuestionDocs())

	w, env := do(t, r, http.MethodPost, "/curation/suggest", map[string]any{"prompt": "five easy physics questions"}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CLASSIFIER_UNAVAILABLE", env.Error.Code)
}

// ─── Public ─────────────────────────────────────────────────────────

func openPlay(t *testing.T, r http.Handler) string {
	t.Helper()
	w, env := do(t, r, http.MethodGet, "/public/quizzes/capitals-abc123", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var view service.PlayView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.NotEmpty(t, view.PlayToken)
	require.Len(t, view.Quiz.Questions, 1)
	return view.PlayToken
}

func TestOpenUnknownSlug(t *testing.T) {
	r := newPublicEngine(t)

	w, _ := do(t, r, http.MethodGet, "/public/quizzes/nope", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGradeRequiresPlayToken(t *testing.T) {
	r := newPublicEngine(t)

	w, env := do(t, r, http.MethodPost, "/public/quizzes/capitals-abc123/grade",
		map[string]any{"answers": map[string]any{"q1": "Paris"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "PLAY_TOKEN_REQUIRED", env.Error.Code)
}

func TestGradeAnswers(t *testing.T) {
	r := newPublicEngine(t)
	token := openPlay(t, r)

	w, env := do(t, r, http.MethodPost, "/public/quizzes/capitals-abc123/grade",
		map[string]any{"answers": map[string]any{"q1": "Paris"}},
		map[string]string{middleware.PlayTokenHeader: token})

	require.Equal(t, http.StatusOK, w.Code)
	var res model.GradeResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, model.GradeResult{Score: 5, MaxScore: 5}, res)
}

func TestSubmitAttemptOncePerSession(t *testing.T) {
	r := newPublicEngine(t)
	token := openPlay(t, r)
	header := map[string]string{middleware.PlayTokenHeader: token}
	body := map[string]any{
		"quizId":     "quiz-1",
		"playerName": "Ana",
		"answers":    map[string]any{"q1": "Paris"},
		"score":      5,
		"maxScore":   5,
	}

	w, _ := do(t, r, http.MethodPost, "/public/quizzes/capitals-abc123/attempts", body, header)
	require.Equal(t, http.StatusAccepted, w.Code)

	w, env := do(t, r, http.MethodPost, "/public/quizzes/capitals-abc123/attempts", body, header)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ALREADY_SUBMITTED", env.Error.Code)
}

func TestSubmitAttemptMissingPlayerName(t *testing.T) {
	r := newPublicEngine(t)
	token := openPlay(t, r)

	w, env := do(t, r, http.MethodPost, "/public/quizzes/capitals-abc123/attempts", map[string]any{
		"quizId":  "quiz-1",
		"answers": map[string]any{},
	}, map[string]string{middleware.PlayTokenHeader: token})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "playerName")
}

func TestSubmitAttemptScoreOutOfRange(t *testing.T) {
	r := newPublicEngine(t)
	token := openPlay(t, r)

	w, env := do(t, r, http.MethodPost, "/public/quizzes/capitals-abc123/attempts", map[string]any{
		"quizId":     "quiz-1",
		"playerName": "Ana",
		"answers":    map[string]any{},
		"score":      3_000_000_000,
		"maxScore":   3_000_000_000,
	}, map[string]string{middleware.PlayTokenHeader: token})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "maxScore")
}
