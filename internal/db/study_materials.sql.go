package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

const createStudyMaterial = `-- name: CreateStudyMaterial :one
INSERT INTO study_materials (
    id, user_id, title, original_filename, study_guide_content, study_guide_markdown, quiz_data, model, snapshot_url
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at`

type CreateStudyMaterialParams struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Title              string
	OriginalFilename   string
	StudyGuideContent  string
	StudyGuideMarkdown string
	QuizData           json.RawMessage
	Model              string
	SnapshotURL        sql.NullString
}

func (q *Queries) CreateStudyMaterial(ctx context.Context, arg CreateStudyMaterialParams) (StudyMaterial, error) {
	row := q.db.QueryRowContext(ctx, createStudyMaterial,
		arg.ID,
		arg.UserID,
		arg.Title,
		arg.OriginalFilename,
		arg.StudyGuideContent,
		arg.StudyGuideMarkdown,
		[]byte(arg.QuizData),
		arg.Model,
		arg.SnapshotURL,
	)
	i := StudyMaterial{
		ID:                 arg.ID,
		UserID:             arg.UserID,
		Title:              arg.Title,
		OriginalFilename:   arg.OriginalFilename,
		StudyGuideContent:  arg.StudyGuideContent,
		StudyGuideMarkdown: arg.StudyGuideMarkdown,
		QuizData:           arg.QuizData,
		Model:              arg.Model,
		SnapshotURL:        arg.SnapshotURL,
	}
	err := row.Scan(&i.CreatedAt)
	return i, err
}

const listStudyMaterialsByUser = `-- name: ListStudyMaterialsByUser :many
SELECT id, title, original_filename, model, snapshot_url, created_at FROM study_materials
WHERE user_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListStudyMaterialsByUser(ctx context.Context, userID uuid.UUID) ([]StudyMaterialSummary, error) {
	rows, err := q.db.QueryContext(ctx, listStudyMaterialsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []StudyMaterialSummary{}
	for rows.Next() {
		var i StudyMaterialSummary
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.OriginalFilename,
			&i.Model,
			&i.SnapshotURL,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getStudyMaterial = `-- name: GetStudyMaterial :one
SELECT id, user_id, title, original_filename, study_guide_content, study_guide_markdown, quiz_data, model, snapshot_url, created_at FROM study_materials
WHERE id = $1 AND user_id = $2 LIMIT 1`

type GetStudyMaterialParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetStudyMaterial(ctx context.Context, arg GetStudyMaterialParams) (StudyMaterial, error) {
	row := q.db.QueryRowContext(ctx, getStudyMaterial, arg.ID, arg.UserID)
	var i StudyMaterial
	var quizData []byte
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Title,
		&i.OriginalFilename,
		&i.StudyGuideContent,
		&i.StudyGuideMarkdown,
		&quizData,
		&i.Model,
		&i.SnapshotURL,
		&i.CreatedAt,
	)
	i.QuizData = quizData
	return i, err
}

const deleteStudyMaterial = `-- name: DeleteStudyMaterial :execrows
DELETE FROM study_materials
WHERE id = $1 AND user_id = $2`

type DeleteStudyMaterialParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) DeleteStudyMaterial(ctx context.Context, arg DeleteStudyMaterialParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStudyMaterial, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
