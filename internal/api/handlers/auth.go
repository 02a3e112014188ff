package handlers

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"studyguideai/internal/db"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// safeRedirect keeps only same-site paths such as "/dashboard".
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/"
	}
	return target
}

// HandleGoogleLogin: Initiates the Google OAuth flow. An optional ?redirect=
// path is restored after the callback.
func (h *Handler) HandleGoogleLogin(c *gin.Context) {
	session := sessions.Default(c)

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		log.Printf("ERROR: Failed to generate state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate state"})
		return
	}
	oauthStateString := base64.URLEncoding.EncodeToString(stateBytes)

	session.Set(OauthStateSessionKey, oauthStateString)
	session.Set(OauthRedirectSessionKey, safeRedirect(c.DefaultQuery("redirect", "/")))
	if err := session.Save(); err != nil {
		log.Printf("ERROR: Failed to save session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	url := h.OauthConfig.AuthCodeURL(oauthStateString, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// HandleGoogleCallback: Handles the redirect back from Google.
func (h *Handler) HandleGoogleCallback(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)
	retrievedState, _ := session.Get(OauthStateSessionKey).(string)
	originalState := c.Query("state")

	if originalState == "" || retrievedState == "" || retrievedState != originalState {
		log.Printf("WARN: Invalid state parameter. Session state: %q, Query state: %q", retrievedState, originalState)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid state parameter."})
		return
	}

	token, err := h.OauthConfig.Exchange(ctx, c.Query("code"))
	if err != nil {
		log.Printf("ERROR: Failed to exchange code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange code"})
		return
	}
	if !token.Valid() {
		log.Printf("WARN: Retrieved invalid token.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Retrieved invalid token"})
		return
	}

	opts := []option.ClientOption{option.WithHTTPClient(h.OauthConfig.Client(ctx, token))}
	if h.GoogleAPIEndpoint != "" {
		opts = append(opts, option.WithEndpoint(h.GoogleAPIEndpoint))
	}
	oauth2Service, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		log.Printf("ERROR: Failed to create OAuth2 service: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create OAuth2 service"})
		return
	}

	userinfo, err := oauth2Service.Userinfo.V2.Me.Get().Context(ctx).Do()
	if err != nil {
		log.Printf("ERROR: Failed to get user info: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user info"})
		return
	}

	dbUser, err := h.upsertUser(c, userinfo)
	if err != nil {
		log.Printf("ERROR: Failed to load user profile for %s: %v", userinfo.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking user profile"})
		return
	}

	profile := UserProfile{
		DatabaseID:    dbUser.ID,
		GoogleID:      userinfo.Id,
		Email:         userinfo.Email,
		VerifiedEmail: userinfo.VerifiedEmail != nil && *userinfo.VerifiedEmail,
		Name:          userinfo.Name,
		GivenName:     userinfo.GivenName,
		FamilyName:    userinfo.FamilyName,
		Picture:       userinfo.Picture,
		Locale:        userinfo.Locale,
	}
	log.Printf("INFO: User %s mapped to internal ID %s", profile.Email, dbUser.ID)

	redirect, _ := session.Get(OauthRedirectSessionKey).(string)
	session.Set(ProfileSessionKey, profile)
	session.Delete(OauthStateSessionKey)
	session.Delete(OauthRedirectSessionKey)
	if err := session.Save(); err != nil {
		log.Printf("ERROR: Failed to save session after login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	target := strings.TrimSuffix(h.FrontendURL, "/") + safeRedirect(redirect)
	log.Printf("INFO: Redirecting user %s to frontend: %s", profile.Email, target)
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// upsertUser finds the user by email or creates them. Existing users get
// their name and picture refreshed. Both steps run in one transaction.
func (h *Handler) upsertUser(c *gin.Context, info *oauth2api.Userinfo) (db.User, error) {
	var dbUser db.User
	err := h.DB.InTx(c.Request.Context(), func(q *db.Queries) error {
		ctx := c.Request.Context()
		found, err := q.GetUserByEmail(ctx, info.Email)
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("INFO: User with email %s not found, creating new user.", info.Email)
			dbUser, err = q.CreateUser(ctx, db.CreateUserParams{
				Email:    info.Email,
				Name:     info.Name,
				GoogleID: sql.NullString{String: info.Id, Valid: info.Id != ""},
				Picture:  info.Picture,
			})
			if err != nil {
				return err
			}
			log.Printf("INFO: Created user with ID %s for email %s", dbUser.ID, dbUser.Email)
			return nil
		}
		if err != nil {
			return err
		}

		dbUser = found
		log.Printf("INFO: Found existing user with ID %s for email %s", dbUser.ID, dbUser.Email)
		if dbUser.Name == info.Name && dbUser.Picture == info.Picture {
			return nil
		}
		if err := q.UpdateUserProfile(ctx, db.UpdateUserProfileParams{ID: dbUser.ID, Name: info.Name, Picture: info.Picture}); err != nil {
			return fmt.Errorf("failed to refresh profile of user %s: %w", dbUser.ID, err)
		}
		dbUser.Name = info.Name
		dbUser.Picture = info.Picture
		return nil
	})
	if err != nil {
		return db.User{}, err
	}
	return dbUser, nil
}

// HandleLogout: Signs the user out. Saved settings and the current study
// session stay with the browser.
func (h *Handler) HandleLogout(c *gin.Context) {
	session := sessions.Default(c)
	userID, _ := currentUserID(c)

	session.Delete(ProfileSessionKey)
	if err := session.Save(); err != nil {
		log.Printf("ERROR: Failed to save session during logout for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}

	log.Printf("INFO: User session cleared successfully for user ID: %s", userID)
	c.Status(http.StatusOK)
}

// HandleAuthStatus checks if a user is currently authenticated via session.
func (h *Handler) HandleAuthStatus(c *gin.Context) {
	session := sessions.Default(c)
	profile, ok := session.Get(ProfileSessionKey).(UserProfile)
	if !ok || profile.DatabaseID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          profile,
	})
}
