package api

import (
	"net/http"

	"studyguideai/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes. Sign-in is only offered when the
// handler has a database and OAuth client; without it the saved-material
// routes always answer 401.
func SetupRoutes(router *gin.Engine, handler *handlers.Handler, frontendURL string, metricsHandler http.Handler) {
	router.Use(CORSMiddleware(frontendURL))

	router.GET("/healthz", handler.HandleHealth)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	authEnabled := handler.DB != nil && handler.OauthConfig != nil
	if authEnabled {
		router.GET("/login", handler.HandleGoogleLogin)
		router.GET("/auth/google/callback", handler.HandleGoogleCallback)
	}

	api := router.Group("/api")
	{
		api.GET("/settings", handler.HandleGetSettings)
		api.PUT("/settings", handler.HandleSaveSettings)
		api.GET("/models", handler.HandleListModels)

		api.POST("/documents", handler.HandleUploadDocument)
		api.GET("/session", handler.HandleGetSession)
		api.DELETE("/session", handler.HandleResetSession)
		api.POST("/generate", handler.HandleGenerate)
		api.POST("/generate/cancel", handler.HandleCancelGeneration)

		api.POST("/quiz/answers", handler.HandleSelectAnswer)
		api.POST("/quiz/submit", handler.HandleSubmitQuiz)
		api.POST("/quiz/retry", handler.HandleRetryQuiz)

		api.GET("/auth/status", handler.HandleAuthStatus)

		authorized := api.Group("/")
		authorized.Use(AuthRequired())
		{
			authorized.POST("/logout", handler.HandleLogout)

			materials := authorized.Group("/materials")
			materials.Use(handler.RequireDatabase())
			materials.POST("", handler.HandleSaveMaterial)
			materials.GET("", handler.HandleListMaterials)
			materials.POST("/:id/restore", handler.HandleRestoreMaterial)
			materials.DELETE("/:id", handler.HandleDeleteMaterial)
		}
	}
}
