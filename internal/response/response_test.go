package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
)

func init() { gin.SetMode(gin.TestMode) }

func TestNewPagination(t *testing.T) {
	assert.Equal(t, &Pagination{Page: 2, PerPage: 20, TotalItems: 41, TotalPages: 3}, NewPagination(2, 20, 41))
	assert.Equal(t, 0, NewPagination(1, 20, 0).TotalPages)
	assert.Equal(t, 0, NewPagination(1, 0, 10).TotalPages)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrCode
	}{
		{"validation", apperror.Validation("title", "required"), http.StatusBadRequest, ErrValidation},
		{"nothing to save", apperror.ErrNothingToSave, http.StatusBadRequest, ErrNothingToSave},
		{"access denied", fmt.Errorf("unlock: %w", apperror.ErrAccessDenied), http.StatusForbidden, ErrAccessDenied},
		{"not found", fmt.Errorf("quiz x: %w", apperror.ErrNotFound), http.StatusNotFound, ErrNotFound},
		{"already submitted", apperror.ErrAlreadySubmitted, http.StatusConflict, ErrAlreadySubmitted},
		{"slug exhausted", fmt.Errorf("no free slug: %w", apperror.ErrSlugTaken), http.StatusConflict, ErrSlugTaken},
		{"partial", apperror.BatchOutcome{Failed: map[string]error{"a": errors.New("x")}}.Err(), http.StatusMultiStatus, ErrPartialFailure},
		{"store", apperror.Store("get quiz", errors.New("conn reset")), http.StatusBadGateway, ErrUpstream},
		{"store not found", apperror.Store("get quiz", apperror.ErrNotFound), http.StatusNotFound, ErrNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func serve(t *testing.T, h gin.HandlerFunc, header map[string]string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return w, res
}

func TestRequestIDReusedWhenSane(t *testing.T) {
	w, res := serve(t, func(c *gin.Context) { Success(c, http.StatusOK, "ok") },
		map[string]string{RequestIDHeader: "abc-123"})

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", res.Metadata.RequestID)
}

func TestRequestIDReplacedWhenTooLong(t *testing.T) {
	long := strings.Repeat("x", maxRequestIDLen+1)
	w, res := serve(t, func(c *gin.Context) { Success(c, http.StatusOK, "ok") },
		map[string]string{RequestIDHeader: long})

	got := w.Header().Get(RequestIDHeader)
	assert.NotEqual(t, long, got)
	assert.Len(t, got, 36)
	assert.Equal(t, got, res.Metadata.RequestID)
}

func TestErrorCarriesValidationField(t *testing.T) {
	w, res := serve(t, func(c *gin.Context) { Error(c, apperror.Validation("questions", "quiz has no questions")) }, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrValidation, res.Error.Code)
	assert.Equal(t, map[string]string{"questions": "quiz has no questions"}, res.Error.Fields)
	assert.Nil(t, res.Data)
}

func TestBatch(t *testing.T) {
	w, res := serve(t, func(c *gin.Context) {
		Batch(c, apperror.BatchOutcome{Succeeded: []string{"a"}, Failed: map[string]error{"b": apperror.ErrNotFound}})
	}, nil)

	assert.Equal(t, http.StatusMultiStatus, w.Code)
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrPartialFailure, res.Error.Code)
	assert.Equal(t, map[string]any{
		"succeeded": []any{"a"},
		"failed":    map[string]any{"b": "not found"},
	}, res.Data)

	w, res = serve(t, func(c *gin.Context) { Batch(c, apperror.BatchOutcome{}) }, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, res.Error)
	assert.Equal(t, map[string]any{"succeeded": []any{}}, res.Data)
}
