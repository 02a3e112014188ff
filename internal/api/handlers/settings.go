package handlers

import (
	"net/http"
	"strings"

	"studyguideai/internal/models"
	"studyguideai/internal/settings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// APIKeyHeader lets the settings dialog list models for a key before saving it.
const APIKeyHeader = "X-Gemini-Api-Key"

// HandleGetSettings returns the saved settings with the key masked.
func (h *Handler) HandleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, settings.Load(sessions.Default(c)).View())
}

// HandleSaveSettings validates and stores the API key and model.
func (h *Handler) HandleSaveSettings(c *gin.Context) {
	var req settings.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	saved, err := settings.Save(sessions.Default(c), req)
	if err != nil {
		h.handleError(c, "Failed to save settings", err)
		return
	}
	c.JSON(http.StatusOK, saved.View())
}

// HandleListModels lists generation-capable models for the key in the
// request header, or the saved key. Listing never fails; without a key or on
// any error only the default model is offered.
func (h *Handler) HandleListModels(c *gin.Context) {
	key := strings.TrimSpace(c.GetHeader(APIKeyHeader))
	if key == "" {
		key = settings.Load(sessions.Default(c)).APIKey
	}

	list := []string{h.Models.DefaultModel()}
	if key != "" {
		list = h.Models.ListModels(c.Request.Context(), key)
		if len(list) == 0 {
			list = []string{h.Models.DefaultModel()}
		}
	}
	c.JSON(http.StatusOK, models.ModelsResponse{Models: list, Default: h.Models.DefaultModel()})
}
