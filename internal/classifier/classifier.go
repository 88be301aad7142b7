// Package classifier talks to the external curation service that turns a
// natural-language request into a structured filter descriptor.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

// ErrMalformedResponse is returned when the response does not match the
// descriptor schema. A response without "filters" is malformed, never
// "no filters".
var ErrMalformedResponse = errors.New("classifier returned a malformed descriptor")

const maxResponseBytes = 1 << 20

const descriptorSchema = `{
  "type": "object",
  "required": ["filters"],
  "properties": {
    "filters": {
      "type": "object",
      "properties": {
        "domain":           {"type": ["string", "null"]},
        "topic":            {"type": ["string", "null"]},
        "cognitiveDepth":   {"type": ["string", "null"]},
        "scaffoldLevelMin": {"type": ["integer", "null"], "minimum": 1, "maximum": 5},
        "scaffoldLevelMax": {"type": ["integer", "null"], "minimum": 1, "maximum": 5}
      }
    },
    "count":         {"type": ["integer", "null"], "minimum": 0},
    "justification": {"type": ["string", "null"]}
  }
}`

// Client is a Classifier backed by an HTTP endpoint.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
	schema *gojsonschema.Schema
	log    zerolog.Logger
}

type classifyRequest struct {
	Request string `json:"request"`
}

// NewClient builds a client for url. timeout bounds each call.
func NewClient(url, apiKey string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(descriptorSchema))
	if err != nil {
		return nil, fmt.Errorf("compile descriptor schema: %w", err)
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
		schema: schema,
		log:    log.With().Str("component", "classifier").Logger(),
	}, nil
}

// Classify sends prompt and decodes the validated descriptor. Transport
// failures and malformed responses come back as *apperror.StoreError.
func (c *Client) Classify(ctx context.Context, prompt string) (model.FilterDescriptor, error) {
	var desc model.FilterDescriptor

	body, err := json.Marshal(classifyRequest{Request: prompt})
	if err != nil {
		return desc, fmt.Errorf("encode classifier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return desc, fmt.Errorf("build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return desc, apperror.Store("classify", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return desc, apperror.Store("classify", fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return desc, apperror.Store("classify",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	desc, err = c.Decode(raw)
	if err != nil {
		return desc, apperror.Store("classify", err)
	}

	c.log.Debug().
		Dur("took", time.Since(start)).
		Int("count", desc.Count).
		Msg("classifier responded")
	return desc, nil
}

// Decode validates raw against the descriptor schema and decodes it.
func (c *Client) Decode(raw []byte) (model.FilterDescriptor, error) {
	var desc model.FilterDescriptor

	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return desc, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return desc, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(raw, &desc); err != nil {
		return desc, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return desc, nil
}
