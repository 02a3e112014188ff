package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"studyguideai/internal/api/handlers"
	"studyguideai/internal/db"
	"studyguideai/internal/study"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func init() {
	gin.SetMode(gin.TestMode)
	handlers.RegisterSessionTypes()
}

const frontendURL = "http://frontend.test"

type fakeLister struct {
	mu     sync.Mutex
	models []string
	keys   []string
}

func (f *fakeLister) ListModels(_ context.Context, apiKey string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, apiKey)
	return append([]string{}, f.models...)
}

func (f *fakeLister) DefaultModel() string { return "gemini-2.0-flash" }

func (f *fakeLister) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

type fakeUploader struct {
	mu   sync.Mutex
	html []string
	err  error
}

func (f *fakeUploader) UploadGuide(_ context.Context, userID, materialID uuid.UUID, html string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.html = append(f.html, html)
	return "https://cdn.test/material/" + userID.String() + "/" + materialID.String() + "/guide.html", nil
}

type harness struct {
	t       *testing.T
	router  *gin.Engine
	handler *handlers.Handler
	store   *study.MemoryStore
	gen     *study.MockGenerator
	orch    *study.Orchestrator
	sql     sqlmock.Sqlmock
	lister  *fakeLister
	uploads *fakeUploader
	userID  uuid.UUID

	mu      sync.Mutex
	cookies map[string]*http.Cookie
}

func newHarness(t *testing.T, responses ...study.MockResponse) *harness {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	h := &harness{
		t:       t,
		store:   study.NewMemoryStore(time.Hour),
		gen:     study.NewMockGenerator(responses...),
		sql:     mock,
		lister:  &fakeLister{},
		uploads: &fakeUploader{},
		userID:  uuid.New(),
		cookies: map[string]*http.Cookie{},
	}
	h.orch = study.NewOrchestrator(h.store, h.gen, 0, time.Minute)

	oauthConfig := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://api.test/auth/google/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: "http://google.test/auth", TokenURL: "http://google.test/token"},
	}
	h.handler = handlers.NewHandler(oauthConfig, "test_session", frontendURL, db.Wrap(conn), h.lister, h.store, h.orch, h.uploads)

	h.router = gin.New()
	h.router.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	h.router.POST("/test/signin", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(handlers.ProfileSessionKey, handlers.UserProfile{DatabaseID: h.userID, Email: "ada@example.com", Name: "Ada"})
		require.NoError(t, s.Save())
		c.Status(http.StatusOK)
	})
	SetupRoutes(h.router, h.handler, frontendURL, nil)
	return h
}

// request builds a request carrying the harness cookies.
func (h *harness) request(method, path string, body *bytes.Buffer, contentType string) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	h.mu.Lock()
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	h.mu.Unlock()
	return req
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	h.mu.Lock()
	for _, c := range w.Result().Cookies() {
		h.cookies[c.Name] = c
	}
	h.mu.Unlock()
	return w
}

func (h *harness) do(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	return h.serve(h.request(method, path, body, contentType))
}

func (h *harness) doJSON(method, path string, v any) *httptest.ResponseRecorder {
	data, err := json.Marshal(v)
	require.NoError(h.t, err)
	return h.do(method, path, bytes.NewBuffer(data), "application/json")
}

func (h *harness) upload(filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(h.t, err)
	_, err = part.Write(content)
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())
	return h.do(http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
}

func (h *harness) signIn() {
	w := h.do(http.MethodPost, "/test/signin", nil, "")
	require.Equal(h.t, http.StatusOK, w.Code)
}

func (h *harness) saveKey() {
	w := h.doJSON(http.MethodPut, "/api/settings", map[string]string{"api_key": "test-key-1234", "model": "gemini-x"})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
