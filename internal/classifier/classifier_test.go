package classifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "test-key", 2*time.Second, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestClassifyDecodesDescriptor(t *testing.T) {
	var gotPrompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req classifyRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		gotPrompt = req.Request

		_, _ = w.Write([]byte(`{
			"filters": {"domain": "algebra", "cognitiveDepth": "Application", "scaffoldLevelMin": 4, "topic": null},
			"count": 3,
			"justification": "Harder linear systems"
		}`))
	})

	desc, err := c.Classify(context.Background(), "three hard algebra questions")

	require.NoError(t, err)
	assert.Equal(t, "three hard algebra questions", gotPrompt)
	assert.Equal(t, "algebra", desc.Filters.Domain)
	assert.Equal(t, model.CognitiveDepthApplication, desc.Filters.CognitiveDepth)
	require.NotNil(t, desc.Filters.ScaffoldLevelMin)
	assert.Equal(t, 4, *desc.Filters.ScaffoldLevelMin)
	assert.Empty(t, desc.Filters.Topic)
	assert.Equal(t, 3, desc.Count)
	assert.Equal(t, "Harder linear systems", desc.Justification)
}

func TestClassifyMissingFiltersIsHardFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"count": 5, "justification": "anything"}`))
	})

	_, err := c.Classify(context.Background(), "anything")

	var se *apperror.StoreError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClassifyUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := c.Classify(context.Background(), "x")

	var se *apperror.StoreError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "status 503")
}

func TestDecodeRejectsBadTypes(t *testing.T) {
	c, err := NewClient("http://unused", "", time.Second, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.Decode([]byte(`{"filters": {"scaffoldLevelMin": "high"}}`))
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = c.Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedResponse)

	desc, err := c.Decode([]byte(`{"filters": {}}`))
	require.NoError(t, err)
	assert.Zero(t, desc.Count)
}
