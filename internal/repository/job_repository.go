package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/lesserevil/miniscope/internal/models"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *models.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.JobPending
	}
	query := `INSERT INTO jobs (id, video_id, status, progress, stage, started_by)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	return r.db.QueryRow(query, job.ID, job.VideoID, job.Status, job.Progress, job.Stage, job.StartedBy).
		Scan(&job.CreatedAt, &job.UpdatedAt)
}

func (r *JobRepository) GetByID(id uuid.UUID) (*models.Job, error) {
	job := &models.Job{}
	query := `SELECT id, video_id, status, progress, stage, error_message, started_by,
		created_at, started_at, completed_at, updated_at
		FROM jobs WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&job.ID, &job.VideoID, &job.Status, &job.Progress,
		&job.Stage, &job.ErrorMessage, &job.StartedBy,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return job, err
}

func (r *JobRepository) ListByVideo(videoID uuid.UUID) ([]*models.Job, error) {
	query := `SELECT id, video_id, status, progress, stage, error_message, started_by,
		created_at, started_at, completed_at, updated_at
		FROM jobs WHERE video_id = $1 ORDER BY created_at DESC`
	return r.queryJobs(query, videoID)
}

func (r *JobRepository) ListRecent(limit int) ([]*models.Job, error) {
	query := `SELECT id, video_id, status, progress, stage, error_message, started_by,
		created_at, started_at, completed_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT $1`
	return r.queryJobs(query, limit)
}

func (r *JobRepository) queryJobs(query string, args ...any) ([]*models.Job, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job := &models.Job{}
		if err := rows.Scan(&job.ID, &job.VideoID, &job.Status, &job.Progress,
			&job.Stage, &job.ErrorMessage, &job.StartedBy,
			&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkProcessing moves a pending job to processing and stamps started_at.
func (r *JobRepository) MarkProcessing(id uuid.UUID) error {
	query := `UPDATE jobs SET status = $1, started_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`
	_, err := r.db.Exec(query, models.JobProcessing, id)
	return err
}

// UpdateProgress updates the percentage and stage label of a running job.
func (r *JobRepository) UpdateProgress(id uuid.UUID, progress int, stage string) error {
	query := `UPDATE jobs SET progress = $1, stage = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	_, err := r.db.Exec(query, progress, stage, id)
	return err
}

// Finish moves a job to a terminal status and stamps completed_at.
func (r *JobRepository) Finish(id uuid.UUID, status models.JobStatus, errMsg *string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	query := `UPDATE jobs SET status = $1, error_message = $2,
		completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`
	_, err := r.db.Exec(query, status, errMsg, id)
	return err
}

// FailStale marks jobs stuck in processing longer than maxAgeMinutes as
// failed and returns how many were swept.
func (r *JobRepository) FailStale(maxAgeMinutes int) (int64, error) {
	query := `UPDATE jobs
		SET status = $1, error_message = 'job timed out',
		    completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE status = $2
		  AND started_at < CURRENT_TIMESTAMP - ($3 || ' minutes')::interval`
	res, err := r.db.Exec(query, models.JobFailed, models.JobProcessing, maxAgeMinutes)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *JobRepository) Delete(id uuid.UUID) error {
	res, err := r.db.Exec(`DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return nil
}
