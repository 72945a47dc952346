package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/lesserevil/miniscope/internal/models"
)

type ScriptRepository struct {
	db *sql.DB
}

func NewScriptRepository(db *sql.DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

func (r *ScriptRepository) Create(script *models.Script) error {
	if script.ID == uuid.Nil {
		script.ID = uuid.New()
	}
	query := `INSERT INTO scripts (id, job_id, video_id, content, model)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	return r.db.QueryRow(query, script.ID, script.JobID, script.VideoID, script.Content, script.Model).
		Scan(&script.CreatedAt)
}

func (r *ScriptRepository) GetByID(id uuid.UUID) (*models.Script, error) {
	script := &models.Script{}
	query := `SELECT id, job_id, video_id, content, model, created_at
		FROM scripts WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&script.ID, &script.JobID, &script.VideoID,
		&script.Content, &script.Model, &script.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: script %s", ErrNotFound, id)
	}
	return script, err
}

// GetByJob returns the newest script for a job.
func (r *ScriptRepository) GetByJob(jobID uuid.UUID) (*models.Script, error) {
	script := &models.Script{}
	query := `SELECT id, job_id, video_id, content, model, created_at
		FROM scripts WHERE job_id = $1 ORDER BY created_at DESC LIMIT 1`
	err := r.db.QueryRow(query, jobID).Scan(&script.ID, &script.JobID, &script.VideoID,
		&script.Content, &script.Model, &script.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: script for job %s", ErrNotFound, jobID)
	}
	return script, err
}

func (r *ScriptRepository) ListByVideo(videoID uuid.UUID) ([]*models.Script, error) {
	query := `SELECT id, job_id, video_id, content, model, created_at
		FROM scripts WHERE video_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(query, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []*models.Script
	for rows.Next() {
		script := &models.Script{}
		if err := rows.Scan(&script.ID, &script.JobID, &script.VideoID,
			&script.Content, &script.Model, &script.CreatedAt); err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, rows.Err()
}

func (r *ScriptRepository) DeleteByJob(jobID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM scripts WHERE job_id = $1`, jobID)
	return err
}
