package handlers

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"studyguideai/internal/gemini"
	"studyguideai/internal/metrics"
	"studyguideai/internal/models"
	"studyguideai/internal/pdftext"
	"studyguideai/internal/settings"
	"studyguideai/internal/study"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// MaxUploadBytes bounds a document upload.
const MaxUploadBytes = 32 << 20

// HandleUploadDocument extracts text from the uploaded PDF ("file" field) and
// makes it the session's document. Generated content stays until the next
// successful generation.
func (h *Handler) HandleUploadDocument(c *gin.Context) {
	startTime := time.Now()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		log.Printf("WARN: Upload without a usable file field: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Please choose a PDF file to upload."})
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Only PDF files are supported."})
		return
	}

	sess, err := h.studySession(c)
	if err != nil {
		h.handleError(c, "Failed to load study session", err)
		return
	}
	if h.Orchestrator.Busy(sess.ID) {
		h.handleError(c, "Upload rejected during generation", study.ErrBusy)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.handleError(c, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	doc, err := pdftext.Extract(file, header.Size)
	if err != nil {
		h.handleError(c, fmt.Sprintf("Failed to extract text from %s", header.Filename), err)
		return
	}

	filename := filepath.Base(header.Filename)
	updated, err := h.Sessions.Update(c.Request.Context(), sess.ID, func(s *study.Session) error {
		s.LoadDocument(filename, doc.Text)
		return nil
	})
	if err != nil {
		h.handleError(c, "Failed to store extracted text", err)
		return
	}

	log.Printf("INFO: Extracted %d characters from %d/%d pages of %s in %v", doc.Chars, doc.ReadPages, doc.TotalPages, filename, time.Since(startTime))
	c.JSON(http.StatusOK, models.UploadResponse{
		Title:      updated.Title,
		Filename:   updated.Filename,
		TotalPages: doc.TotalPages,
		ReadPages:  doc.ReadPages,
		Chars:      doc.Chars,
		Truncated:  doc.Chars > gemini.MaxInputChars,
		Message:    "Document ready. Generate a study guide when you are.",
	})
}

// HandleGetSession returns the current study session.
func (h *Handler) HandleGetSession(c *gin.Context) {
	sess, err := h.studySession(c)
	if err != nil {
		h.handleError(c, "Failed to load study session", err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// HandleGenerate runs the guide-then-quiz pipeline with the browser's saved
// settings and returns the finished session.
func (h *Handler) HandleGenerate(c *gin.Context) {
	st := settings.Load(sessions.Default(c))
	if st.APIKey == "" {
		h.handleError(c, "Generation requested without an API key", gemini.ErrMissingAPIKey)
		return
	}

	sess, err := h.studySession(c)
	if err != nil {
		h.handleError(c, "Failed to load study session", err)
		return
	}

	done, err := h.Orchestrator.Run(c.Request.Context(), sess.ID, st)
	if err != nil {
		h.handleError(c, "Generation failed", err)
		return
	}
	c.JSON(http.StatusOK, done.View())
}

// HandleCancelGeneration stops the session's running generation.
func (h *Handler) HandleCancelGeneration(c *gin.Context) {
	id, _ := sessions.Default(c).Get(StudySessionKey).(string)
	if id == "" || !h.Orchestrator.Cancel(id) {
		c.AbortWithStatusJSON(http.StatusNotFound, models.ErrorResponse{Error: "No generation is running."})
		return
	}
	log.Printf("INFO: Generation cancelled for session %s", id)
	c.JSON(http.StatusAccepted, gin.H{"cancelled": true})
}

// HandleResetSession starts over: any running generation is cancelled and
// the study session is discarded. Settings and sign-in are kept.
func (h *Handler) HandleResetSession(c *gin.Context) {
	session := sessions.Default(c)
	id, _ := session.Get(StudySessionKey).(string)
	if id != "" {
		h.Orchestrator.Cancel(id)
		if err := h.Sessions.Delete(c.Request.Context(), id); err != nil {
			h.handleError(c, "Failed to discard study session", err)
			return
		}
		h.Orchestrator.Forget(id)
		log.Printf("INFO: Study session %s discarded", id)
	}

	session.Delete(StudySessionKey)
	if err := session.Save(); err != nil {
		h.handleError(c, "Failed to save session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleSelectAnswer records the chosen option for one question.
func (h *Handler) HandleSelectAnswer(c *gin.Context) {
	var req models.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	h.updateAttempt(c, "Failed to record answer", func(s *study.Session) error {
		return s.Quiz.Select(*req.QuestionIndex, req.Option)
	})
}

// HandleSubmitQuiz grades the attempt and reveals the answers.
func (h *Handler) HandleSubmitQuiz(c *gin.Context) {
	sess, err := h.studySession(c)
	if err != nil {
		h.handleError(c, "Failed to load study session", err)
		return
	}

	var result models.SubmitResponse
	updated, err := h.Sessions.Update(c.Request.Context(), sess.ID, func(s *study.Session) error {
		result.Result = s.Quiz.Grade()
		return nil
	})
	if err != nil {
		h.handleError(c, "Failed to grade quiz", err)
		return
	}
	result.Session = updated.View()
	metrics.QuizGrades.Inc()
	log.Printf("INFO: Quiz graded for session %s: %d/%d (%d%%)", sess.ID, result.Result.Correct, result.Result.Total, result.Result.Percentage)
	c.JSON(http.StatusOK, result)
}

// HandleRetryQuiz clears the answers and unlocks the attempt.
func (h *Handler) HandleRetryQuiz(c *gin.Context) {
	h.updateAttempt(c, "Failed to reset quiz", func(s *study.Session) error {
		s.Quiz.Retry()
		return nil
	})
}

func (h *Handler) updateAttempt(c *gin.Context, errorContext string, fn func(*study.Session) error) {
	sess, err := h.studySession(c)
	if err != nil {
		h.handleError(c, "Failed to load study session", err)
		return
	}
	updated, err := h.Sessions.Update(c.Request.Context(), sess.ID, fn)
	if err != nil {
		h.handleError(c, errorContext, err)
		return
	}
	c.JSON(http.StatusOK, updated.View())
}
