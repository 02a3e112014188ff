// Package study holds a browser's working state (uploaded document, generated
// guide and quiz attempt) and runs the guide-then-quiz generation pipeline.
package study

import (
	"errors"
	"strings"
	"time"

	"studyguideai/internal/gemini"
	"studyguideai/internal/markdown"
	"studyguideai/internal/quiz"

	"github.com/google/uuid"
)

// State is where a session is in the generation lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateReady      State = "ready"
)

var (
	ErrSessionNotFound = errors.New("study session not found or expired")
	ErrNoDocument      = errors.New("upload a PDF before generating")
	ErrBusy            = errors.New("a generation is already running for this session")
	ErrCancelled       = errors.New("generation cancelled")
)

// Session is one browser's working state. It is transient and expires after
// the store's TTL.
type Session struct {
	ID            string       `json:"id"`
	ExtractedText string       `json:"extracted_text"`
	Title         string       `json:"title"`
	Filename      string       `json:"filename"`
	Model         string       `json:"model"`
	Guide         string       `json:"guide"`
	GuideHTML     string       `json:"guide_html"`
	Quiz          quiz.Attempt `json:"quiz"`
	State         State        `json:"state"`
	Stage         gemini.Task  `json:"stage,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
	MaterialID    string       `json:"material_id,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewSession returns an idle session with a fresh id.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		Quiz:      quiz.NewAttempt(nil),
		State:     StateIdle,
		UpdatedAt: time.Now(),
	}
}

// TitleFromFilename strips a trailing .pdf extension, case-insensitively.
func TitleFromFilename(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return name[:len(name)-len(".pdf")]
	}
	return name
}

// LoadDocument replaces the extracted text. Generated content is kept until
// the next successful run.
func (s *Session) LoadDocument(filename, text string) {
	s.Filename = filename
	s.Title = TitleFromFilename(filename)
	s.ExtractedText = text
	s.LastError = ""
}

// Install replaces the guide and quiz and starts a fresh attempt.
func (s *Session) Install(model, guide, guideHTML string, items []quiz.Item) {
	s.Model = model
	s.Guide = guide
	s.GuideHTML = guideHTML
	s.Quiz = quiz.NewAttempt(items)
	s.MaterialID = ""
}

// Restore loads a saved material. Its guide and quiz replace the current ones
// with a fresh attempt; the uploaded document is kept.
func (s *Session) Restore(materialID, title, model, guide, guideHTML string, items []quiz.Item) {
	s.Install(model, guide, guideHTML, items)
	s.Title = title
	s.MaterialID = materialID
	s.State = StateReady
	s.Stage = ""
	s.LastError = ""
}

// HasContent reports whether a guide or quiz is loaded.
func (s *Session) HasContent() bool {
	return s.Guide != "" || s.GuideHTML != "" || len(s.Quiz.Items) > 0
}

// QuestionView is a quiz question as shown to the client. The correct
// answer is only revealed once the attempt is graded.
type QuestionView struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Selected string   `json:"selected,omitempty"`
	Answer   string   `json:"answer,omitempty"`
}

// View is the client-facing snapshot of a session.
type View struct {
	ID          string         `json:"id"`
	State       State          `json:"state"`
	Stage       gemini.Task    `json:"stage,omitempty"`
	Title       string         `json:"title"`
	Filename    string         `json:"filename"`
	HasDocument bool           `json:"has_document"`
	Chars       int            `json:"document_chars"`
	Model       string         `json:"model,omitempty"`
	Guide       string         `json:"guide,omitempty"`
	GuideHTML   string         `json:"guide_html,omitempty"`
	GuideTree   *markdown.Node `json:"guide_tree,omitempty"`
	Headings    []string       `json:"headings,omitempty"`
	Quiz        []QuestionView `json:"quiz"`
	Graded      bool           `json:"graded"`
	Result      *quiz.Result   `json:"result,omitempty"`
	MaterialID  string         `json:"material_id,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
}

// View builds the client snapshot.
func (s *Session) View() View {
	v := View{
		ID:          s.ID,
		State:       s.State,
		Stage:       s.Stage,
		Title:       s.Title,
		Filename:    s.Filename,
		HasDocument: s.ExtractedText != "",
		Chars:       len([]rune(s.ExtractedText)),
		Model:       s.Model,
		Guide:       s.Guide,
		GuideHTML:   s.GuideHTML,
		Graded:      s.Quiz.Graded,
		MaterialID:  s.MaterialID,
		LastError:   s.LastError,
		Quiz:        make([]QuestionView, 0, len(s.Quiz.Items)),
	}
	if s.Guide != "" {
		v.GuideTree = markdown.Parse(s.Guide)
		v.Headings = v.GuideTree.Headings()
	}
	for i, it := range s.Quiz.Items {
		q := QuestionView{Index: i, Question: it.Question, Options: it.Options, Selected: s.Quiz.Answers[i]}
		if s.Quiz.Graded {
			q.Answer = it.Answer
		}
		v.Quiz = append(v.Quiz, q)
	}
	if s.Quiz.Graded {
		attempt := s.Quiz
		res := attempt.Grade()
		v.Result = &res
	}
	return v
}
