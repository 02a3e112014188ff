package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textResponse(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})
	return string(body)
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), DefaultModel: "gemini-test"}), &calls
}

func TestGenerateStudyGuide(t *testing.T) {
	var gotPath, gotKey, gotBody string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, textResponse("# Guide\n\n- point"))
	})

	out, err := c.Generate(context.Background(), "secret", "gemini-pro-x", TaskStudyGuide, "photosynthesis notes")
	require.NoError(t, err)
	assert.Equal(t, "# Guide\n\n- point", out)
	assert.Equal(t, "secret", gotKey)
	assert.True(t, strings.HasSuffix(gotPath, "/models/gemini-pro-x:generateContent"), gotPath)
	assert.Contains(t, gotBody, "expert tutor")
	assert.Contains(t, gotBody, "photosynthesis notes")
}

func TestGenerateDefaultsModelAndTruncates(t *testing.T) {
	var gotPath, gotBody string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		io.WriteString(w, textResponse("[]"))
	})

	text := strings.Repeat("a", MaxInputChars) + "TAIL"
	_, err := c.Generate(context.Background(), "k", "", TaskQuiz, text)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(gotPath, "/models/gemini-test:generateContent"), gotPath)
	assert.Contains(t, gotBody, "5-question multiple choice quiz")
	assert.NotContains(t, gotBody, "TAIL")
}

func TestGenerateMissingKeyMakesNoRequest(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Generate(context.Background(), "", "", TaskStudyGuide, "text")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestGenerateAPIErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"json error body", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`, 400, "API key not valid."},
		{"empty body", http.StatusServiceUnavailable, "", 503, "Service Unavailable"},
		{"json error without message", http.StatusInternalServerError, `{"error":{"code":500}}`, 500, "Internal Server Error"},
		{"plain text body", http.StatusInternalServerError, "upstream proxy exploded", 500, "Internal Server Error"},
		{"html body", http.StatusBadGateway, "<html><body>Bad Gateway</body></html>", 502, "Bad Gateway"},
		{"unrelated json body", http.StatusInternalServerError, `{"detail":"x"}`, 500, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.Generate(context.Background(), "k", "", TaskStudyGuide, "text")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %T: %v", err, err)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestGenerateNoCandidates(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := c.Generate(context.Background(), "k", "", TaskQuiz, "text")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url})
	_, err := c.Generate(context.Background(), "k", "", TaskStudyGuide, "text")
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr), "got %T: %v", err, err)
}

func TestGenerateCancelled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "k", "", TaskStudyGuide, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func modelsHandler(pages ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "p2" && len(pages) > 1 {
			io.WriteString(w, pages[1])
			return
		}
		io.WriteString(w, pages[0])
	}
}

func TestListModels(t *testing.T) {
	c, _ := newTestClient(t, modelsHandler(`{"models":[
		{"name":"models/gemini-a","supportedGenerationMethods":["generateContent","countTokens"]},
		{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]},
		{"name":"models/gemini-b","supportedGenerationMethods":["generateContent"]}
	]}`))

	got := c.ListModels(context.Background(), "k")
	assert.Equal(t, []string{"gemini-test", "gemini-a", "gemini-b"}, got)
}

func TestListModelsKeepsDefaultPosition(t *testing.T) {
	c, _ := newTestClient(t, modelsHandler(
		`{"models":[{"name":"models/gemini-a","supportedGenerationMethods":["generateContent"]}],"nextPageToken":"p2"}`,
		`{"models":[{"name":"models/gemini-test","supportedGenerationMethods":["generateContent"]}]}`,
	))

	got := c.ListModels(context.Background(), "k")
	assert.Equal(t, []string{"gemini-a", "gemini-test"}, got)
}

func TestListModelsFailureIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403,"message":"denied"}}`)
	})

	got := c.ListModels(context.Background(), "k")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, c.ListModels(context.Background(), ""))
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestBuildPromptUnknownTask(t *testing.T) {
	_, err := BuildPrompt(Task("poem"), "x")
	assert.Error(t, err)
}
