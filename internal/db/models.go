package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	GoogleID  sql.NullString
	Picture   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type StudyMaterial struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Title              string
	OriginalFilename   string
	StudyGuideContent  string
	StudyGuideMarkdown string
	QuizData           json.RawMessage
	Model              string
	SnapshotURL        sql.NullString
	CreatedAt          time.Time
}

// StudyMaterialSummary is a list row without the heavy content columns.
type StudyMaterialSummary struct {
	ID               uuid.UUID
	Title            string
	OriginalFilename string
	Model            string
	SnapshotURL      sql.NullString
	CreatedAt        time.Time
}
