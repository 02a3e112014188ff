package handlers

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log"
	"net/http"

	"studyguideai/internal/db"
	"studyguideai/internal/gemini"
	"studyguideai/internal/models"
	"studyguideai/internal/pdftext"
	"studyguideai/internal/quiz"
	"studyguideai/internal/settings"
	"studyguideai/internal/study"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// UserProfile stores information about the authenticated user.
type UserProfile struct {
	DatabaseID    uuid.UUID `json:"-"`  // internal users.id
	GoogleID      string    `json:"id"` // Google's ID
	Email         string    `json:"email"`
	VerifiedEmail bool      `json:"verified_email"`
	Name          string    `json:"name"`
	GivenName     string    `json:"given_name"`
	FamilyName    string    `json:"family_name"`
	Picture       string    `json:"picture"`
	Locale        string    `json:"locale"`
}

// Cookie session keys.
const (
	OauthStateSessionKey    = "oauthstate"
	OauthRedirectSessionKey = "oauthredirect"
	ProfileSessionKey       = "profile"
	StudySessionKey         = "study_session"
)

// RegisterSessionTypes registers the values kept in cookie sessions with gob.
func RegisterSessionTypes() {
	gob.Register(UserProfile{})
	gob.Register(settings.Settings{})
}

// ModelLister resolves the models a key can generate with.
type ModelLister interface {
	ListModels(ctx context.Context, apiKey string) []string
	DefaultModel() string
}

// SnapshotUploader stores a saved guide's HTML and returns its public URL.
type SnapshotUploader interface {
	UploadGuide(ctx context.Context, userID, materialID uuid.UUID, html string) (string, error)
}

// Handler contains the API handlers dependencies
type Handler struct {
	OauthConfig  *oauth2.Config
	StoreName    string
	FrontendURL  string
	DB           *db.DB
	Models       ModelLister
	Sessions     study.Store
	Orchestrator *study.Orchestrator
	Snapshots    SnapshotUploader

	// GoogleAPIEndpoint overrides the userinfo API base URL.
	GoogleAPIEndpoint string
}

// NewHandler creates a new Handler. db and snapshots may be nil when sign-in
// or R2 are not configured.
func NewHandler(oauth *oauth2.Config, storeName, frontendURL string, database *db.DB, lister ModelLister, store study.Store, orch *study.Orchestrator, snapshots SnapshotUploader) *Handler {
	return &Handler{
		OauthConfig:  oauth,
		StoreName:    storeName,
		FrontendURL:  frontendURL,
		DB:           database,
		Models:       lister,
		Sessions:     store,
		Orchestrator: orch,
		Snapshots:    snapshots,
	}
}

// statusFor decides the HTTP status and user-visible message for err.
func statusFor(err error) (int, string) {
	var apiErr *gemini.APIError
	var transportErr *gemini.TransportError
	var settingsErr *settings.ValidationError

	switch {
	case errors.Is(err, gemini.ErrMissingAPIKey),
		errors.Is(err, study.ErrNoDocument),
		errors.Is(err, pdftext.ErrNotPDF),
		errors.Is(err, pdftext.ErrInsufficientText),
		errors.Is(err, quiz.ErrQuestionOutOfRange),
		errors.Is(err, quiz.ErrUnknownOption),
		errors.As(err, &settingsErr):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, quiz.ErrAlreadyGraded), errors.Is(err, study.ErrBusy):
		return http.StatusConflict, err.Error()
	case errors.Is(err, study.ErrCancelled):
		return http.StatusConflict, err.Error()
	case errors.Is(err, study.ErrSessionNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, fmt.Sprintf("Generation failed: %s", apiErr.Error())
	case errors.As(err, &transportErr):
		return http.StatusGatewayTimeout, fmt.Sprintf("Generation failed: %s", transportErr.Error())
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// handleError logs err with its context and aborts with the mapped status.
func (h *Handler) handleError(c *gin.Context, errorContext string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("ERROR: %s: %v (path %s)", errorContext, err, c.Request.URL.Path)
	} else {
		log.Printf("WARN: %s: %v (path %s)", errorContext, err, c.Request.URL.Path)
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg})
}

// currentUserID returns the user id set by AuthRequired.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// studySession returns the browser's study session, creating one when the
// cookie has none or it expired.
func (h *Handler) studySession(c *gin.Context) (*study.Session, error) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	if id, ok := session.Get(StudySessionKey).(string); ok && id != "" {
		s, err := h.Sessions.Get(ctx, id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, study.ErrSessionNotFound) {
			return nil, err
		}
		log.Printf("INFO: Study session %s expired, starting a new one", id)
		h.Orchestrator.Forget(id)
	}

	s := study.NewSession()
	if err := h.Sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	session.Set(StudySessionKey, s.ID)
	if err := session.Save(); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RequireDatabase rejects saved-material requests when no database is
// configured.
func (h *Handler) RequireDatabase() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.DB == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Saved study materials are not available"})
			return
		}
		c.Next()
	}
}
