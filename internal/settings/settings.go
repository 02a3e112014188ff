// Package settings persists a browser's Gemini API key and model choice in
// its cookie session.
package settings

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-contrib/sessions"
)

// SessionKey is the cookie-session key holding Settings.
const SessionKey = "settings"

var modelPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Settings are read once at the start of every generation run.
type Settings struct {
	APIKey string
	Model  string
}

// View is the client-facing form of Settings with the key masked.
type View struct {
	HasAPIKey bool   `json:"has_api_key"`
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
}

// Update is a request to change Settings.
type Update struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// ValidationError rejects an Update; nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Load returns the Settings stored in session, or zero Settings.
func Load(session sessions.Session) Settings {
	if s, ok := session.Get(SessionKey).(Settings); ok {
		return s
	}
	return Settings{}
}

// Apply validates u against current. A blank API key leaves both fields as
// they were; a blank model keeps the current model.
func Apply(current Settings, u Update) (Settings, error) {
	key := strings.TrimSpace(u.APIKey)
	if key == "" {
		return current, nil
	}
	model := strings.TrimSpace(u.Model)
	if model != "" && !modelPattern.MatchString(model) {
		return current, &ValidationError{Field: "model", Reason: fmt.Sprintf("%q is not a model id", model)}
	}
	next := Settings{APIKey: key, Model: current.Model}
	if model != "" {
		next.Model = model
	}
	return next, nil
}

// Save validates and stores u in session.
func Save(session sessions.Session, u Update) (Settings, error) {
	next, err := Apply(Load(session), u)
	if err != nil {
		return Settings{}, err
	}
	session.Set(SessionKey, next)
	if err := session.Save(); err != nil {
		return Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return next, nil
}

// View masks the API key down to its last four characters.
func (s Settings) View() View {
	v := View{HasAPIKey: s.APIKey != "", Model: s.Model}
	if s.APIKey != "" {
		tail := s.APIKey
		if len(tail) > 4 {
			tail = tail[len(tail)-4:]
		}
		v.APIKey = "••••" + tail
	}
	return v
}
