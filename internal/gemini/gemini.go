// Package gemini talks to the Gemini generative-language API: it lists the
// models a key can use and runs the study-guide and quiz prompts.
package gemini

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"studyguideai/internal/metrics"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured and is always offered by
// ListModels.
const DefaultModel = "gemini-2.0-flash"

const generateMethod = "generateContent"

// Options configures a Client. Zero values select the public API endpoint,
// http.DefaultClient and DefaultModel.
type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	DefaultModel string
}

// Client issues Gemini calls on behalf of users. The API key belongs to the
// user, so an SDK client is built per call rather than held.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	defaultModel string
}

// NewClient creates a new Gemini client.
func NewClient(opts Options) *Client {
	model := opts.DefaultModel
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:      strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient:   opts.HTTPClient,
		defaultModel: model,
	}
}

// DefaultModel returns the model used when a caller passes none.
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

func (c *Client) sdk(ctx context.Context, apiKey string) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL + "/"}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Generate runs the task's prompt over text and returns the model's text.
func (c *Client) Generate(ctx context.Context, apiKey, model string, task Task, text string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if model == "" {
		model = c.defaultModel
	}
	prompt, err := BuildPrompt(task, text)
	if err != nil {
		return "", err
	}

	client, err := c.sdk(ctx, apiKey)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	started := time.Now()
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		mapped := mapError(err)
		metrics.ObserveGeneration(string(task), outcomeOf(mapped), started)
		log.Printf("ERROR: Gemini %s generation with model %s failed: %v", task, model, mapped)
		return "", mapped
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		metrics.ObserveGeneration(string(task), "empty", started)
		return "", &APIError{Status: http.StatusBadGateway, Message: "no content generated"}
	}

	metrics.ObserveGeneration(string(task), "ok", started)
	out := resp.Text()
	log.Printf("INFO: Gemini %s generation with model %s returned %d characters in %s", task, model, len(out), time.Since(started).Round(time.Millisecond))
	return out, nil
}

// ListModels returns the ids of models that support content generation,
// without the "models/" prefix and in upstream order. DefaultModel is
// prepended when the listing succeeds without it. Any failure yields an
// empty list.
func (c *Client) ListModels(ctx context.Context, apiKey string) []string {
	if apiKey == "" {
		log.Printf("WARN: Model listing skipped: no API key")
		return []string{}
	}
	client, err := c.sdk(ctx, apiKey)
	if err != nil {
		log.Printf("WARN: Model listing failed: %v", err)
		return []string{}
	}

	ids := []string{}
	for m, err := range client.Models.All(ctx) {
		if err != nil {
			log.Printf("WARN: Model listing failed: %v", mapError(err))
			return []string{}
		}
		if m == nil || !slices.Contains(m.SupportedActions, generateMethod) {
			continue
		}
		ids = append(ids, strings.TrimPrefix(m.Name, "models/"))
	}

	if !slices.Contains(ids, c.defaultModel) {
		ids = append([]string{c.defaultModel}, ids...)
	}
	log.Printf("INFO: Listed %d generation models", len(ids))
	return ids
}

func outcomeOf(err error) string {
	switch err.(type) {
	case *APIError:
		return "api_error"
	case *TransportError:
		return "transport_error"
	}
	return "error"
}
