package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"studyguideai/internal/gemini"
	"studyguideai/internal/pdftext"
	"studyguideai/internal/quiz"
	"studyguideai/internal/settings"
	"studyguideai/internal/study"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{gemini.ErrMissingAPIKey, http.StatusBadRequest, "Please enter your Gemini API Key first."},
		{study.ErrNoDocument, http.StatusBadRequest, study.ErrNoDocument.Error()},
		{fmt.Errorf("%w: bad xref", pdftext.ErrNotPDF), http.StatusBadRequest, "file is not a readable PDF: bad xref"},
		{quiz.ErrUnknownOption, http.StatusBadRequest, quiz.ErrUnknownOption.Error()},
		{&settings.ValidationError{Field: "model", Reason: "nope"}, http.StatusBadRequest, "invalid model: nope"},
		{study.ErrBusy, http.StatusConflict, study.ErrBusy.Error()},
		{quiz.ErrAlreadyGraded, http.StatusConflict, quiz.ErrAlreadyGraded.Error()},
		{study.ErrSessionNotFound, http.StatusNotFound, study.ErrSessionNotFound.Error()},
		{&gemini.APIError{Status: 400, Message: "API key not valid"}, http.StatusBadGateway, "Generation failed: API Error (400): API key not valid"},
		{&gemini.TransportError{Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "Generation failed: network error: context deadline exceeded"},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		status, msg := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.msg, msg)
	}
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/dashboard", safeRedirect("/dashboard"))
	assert.Equal(t, "/", safeRedirect(""))
	assert.Equal(t, "/", safeRedirect("https://evil.test"))
	assert.Equal(t, "/", safeRedirect("//evil.test"))
	assert.Equal(t, "/", safeRedirect("/\\evil.test"))
}

func TestRequireDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{}
	r := gin.New()
	r.GET("/materials", h.RequireDatabase(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/materials", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
