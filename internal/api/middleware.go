package api

import (
	"log"
	"net/http"
	"strings"

	"studyguideai/internal/api/handlers"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CORSMiddleware allows credentialed requests from the frontend origin.
func CORSMiddleware(frontendURL string) gin.HandlerFunc {
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}
	origin := strings.TrimSuffix(frontendURL, "/")
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, "+handlers.APIKeyHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AuthRequired is middleware to ensure the user is authenticated.
// It adds the internal user id (uuid.UUID) and profile to the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		profileData, ok := session.Get(handlers.ProfileSessionKey).(handlers.UserProfile)
		if !ok || profileData.DatabaseID == uuid.Nil {
			log.Printf("WARN: AuthRequired failed - profile not found, invalid type, or missing DatabaseID in session.")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to save and view study materials."})
			return
		}

		c.Set("userID", profileData.DatabaseID)
		c.Set("userProfile", profileData)
		c.Next()
	}
}
