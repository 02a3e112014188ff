// Package models holds the JSON bodies exchanged with the frontend.
package models

import (
	"time"

	"github.com/google/uuid"

	"studyguideai/internal/quiz"
	"studyguideai/internal/study"
)

// MaterialSummary is one saved study material in the dashboard list.
type MaterialSummary struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	OriginalFilename string    `json:"original_filename"`
	Model            string    `json:"model,omitempty"`
	SnapshotURL      string    `json:"snapshot_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MaterialListResponse represents the response for listing saved materials
type MaterialListResponse struct {
	Materials []MaterialSummary `json:"materials"`
	Total     int               `json:"total"`
}

// SaveMaterialResponse represents the response for saving the current session
type SaveMaterialResponse struct {
	Material MaterialSummary `json:"material"`
	Message  string          `json:"message"`
}

// UploadResponse represents the response for the document upload endpoint
type UploadResponse struct {
	Title      string `json:"title"`
	Filename   string `json:"filename"`
	TotalPages int    `json:"total_pages"`
	ReadPages  int    `json:"read_pages"`
	Chars      int    `json:"chars"`
	Truncated  bool   `json:"truncated"`
	Message    string `json:"message"`
}

// ModelsResponse lists model ids usable for generation.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// AnswerRequest selects an option for one question.
type AnswerRequest struct {
	QuestionIndex *int   `json:"question_index" binding:"required"`
	Option        string `json:"option" binding:"required"`
}

// SubmitResponse carries the graded result and the revealed session.
type SubmitResponse struct {
	Result  quiz.Result `json:"result"`
	Session study.View  `json:"session"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
