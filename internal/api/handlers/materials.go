package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"studyguideai/internal/db"
	"studyguideai/internal/markdown"
	"studyguideai/internal/models"
	"studyguideai/internal/quiz"
	"studyguideai/internal/study"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func summaryOf(m db.StudyMaterialSummary) models.MaterialSummary {
	return models.MaterialSummary{
		ID:               m.ID,
		Title:            m.Title,
		OriginalFilename: m.OriginalFilename,
		Model:            m.Model,
		SnapshotURL:      m.SnapshotURL.String,
		CreatedAt:        m.CreatedAt,
	}
}

// HandleSaveMaterial stores the session's guide and quiz for the signed-in
// user. The guide is saved as sanitised HTML next to its Markdown source.
func (h *Handler) HandleSaveMaterial(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := currentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	sess, err := h.studySession(c)
	if err != nil {
		h.handleError(c, "Failed to load study session", err)
		return
	}
	if !sess.HasContent() {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Generate a study guide before saving."})
		return
	}

	items := sess.Quiz.Items
	if items == nil {
		items = []quiz.Item{}
	}
	quizData, err := json.Marshal(items)
	if err != nil {
		h.handleError(c, "Failed to encode quiz", err)
		return
	}

	guideHTML := markdown.Sanitize(sess.GuideHTML)
	if guideHTML == "" && sess.Guide != "" {
		guideHTML = markdown.RenderHTML(sess.Guide)
	}

	materialID := uuid.New()
	params := db.CreateStudyMaterialParams{
		ID:                 materialID,
		UserID:             userID,
		Title:              sess.Title,
		OriginalFilename:   sess.Filename,
		StudyGuideContent:  guideHTML,
		StudyGuideMarkdown: sess.Guide,
		QuizData:           quizData,
		Model:              sess.Model,
	}
	if params.Title == "" {
		params.Title = "Untitled study guide"
	}

	if h.Snapshots != nil {
		url, err := h.Snapshots.UploadGuide(ctx, userID, materialID, guideHTML)
		if err != nil {
			log.Printf("WARN: Guide snapshot upload failed for material %s: %v", materialID, err)
		} else {
			params.SnapshotURL = sql.NullString{String: url, Valid: true}
		}
	}

	saved, err := h.DB.Queries.CreateStudyMaterial(ctx, params)
	if err != nil {
		h.handleError(c, "Failed to save study material", err)
		return
	}

	if _, err := h.Sessions.Update(ctx, sess.ID, func(s *study.Session) error {
		s.MaterialID = materialID.String()
		return nil
	}); err != nil {
		log.Printf("WARN: Failed to mark session %s as saved: %v", sess.ID, err)
	}

	log.Printf("INFO: Saved study material %s (%q) for user %s", materialID, saved.Title, userID)
	c.JSON(http.StatusCreated, models.SaveMaterialResponse{
		Material: models.MaterialSummary{
			ID:               saved.ID,
			Title:            saved.Title,
			OriginalFilename: saved.OriginalFilename,
			Model:            saved.Model,
			SnapshotURL:      saved.SnapshotURL.String,
			CreatedAt:        saved.CreatedAt,
		},
		Message: "Study guide saved.",
	})
}

// HandleListMaterials lists the user's saved materials, newest first.
func (h *Handler) HandleListMaterials(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	rows, err := h.DB.Queries.ListStudyMaterialsByUser(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, "Failed to list study materials", err)
		return
	}

	resp := models.MaterialListResponse{Materials: make([]models.MaterialSummary, 0, len(rows)), Total: len(rows)}
	for _, m := range rows {
		resp.Materials = append(resp.Materials, summaryOf(m))
	}
	c.JSON(http.StatusOK, resp)
}

// loadMaterial fetches a material owned by the current user. Other users'
// materials are reported as missing.
func (h *Handler) loadMaterial(c *gin.Context) (db.StudyMaterial, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return db.StudyMaterial{}, false
	}
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid material ID format"})
		return db.StudyMaterial{}, false
	}

	m, err := h.DB.Queries.GetStudyMaterial(c.Request.Context(), db.GetStudyMaterialParams{ID: materialID, UserID: userID})
	if errors.Is(err, sql.ErrNoRows) {
		c.AbortWithStatusJSON(http.StatusNotFound, models.ErrorResponse{Error: "Study material not found"})
		return db.StudyMaterial{}, false
	}
	if err != nil {
		h.handleError(c, "Failed to load study material", err)
		return db.StudyMaterial{}, false
	}
	return m, true
}

// HandleRestoreMaterial loads a saved guide and quiz into the current
// session with a fresh attempt.
func (h *Handler) HandleRestoreMaterial(c *gin.Context) {
	m, ok := h.loadMaterial(c)
	if !ok {
		return
	}

	items := quiz.Decode(string(m.QuizData))

	sess, err := h.studySession(c)
	if err != nil {
		h.handleError(c, "Failed to load study session", err)
		return
	}
	if h.Orchestrator.Busy(sess.ID) {
		h.handleError(c, "Restore rejected during generation", study.ErrBusy)
		return
	}

	updated, err := h.Sessions.Update(c.Request.Context(), sess.ID, func(s *study.Session) error {
		s.Restore(m.ID.String(), m.Title, m.Model, m.StudyGuideMarkdown, markdown.Sanitize(m.StudyGuideContent), items)
		return nil
	})
	if err != nil {
		h.handleError(c, "Failed to restore study material", err)
		return
	}

	log.Printf("INFO: Restored study material %s into session %s", m.ID, sess.ID)
	c.JSON(http.StatusOK, updated.View())
}

// HandleDeleteMaterial removes one of the user's saved materials.
func (h *Handler) HandleDeleteMaterial(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid material ID format"})
		return
	}

	n, err := h.DB.Queries.DeleteStudyMaterial(c.Request.Context(), db.DeleteStudyMaterialParams{ID: materialID, UserID: userID})
	if err != nil {
		h.handleError(c, "Failed to delete study material", err)
		return
	}
	if n == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, models.ErrorResponse{Error: "Study material not found"})
		return
	}
	log.Printf("INFO: Deleted study material %s for user %s", materialID, userID)
	c.Status(http.StatusNoContent)
}
