package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/lesserevil/miniscope/internal/models"
)

type VideoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(video *models.Video) error {
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	query := `INSERT INTO videos (id, file_path, title)
		VALUES ($1, $2, $3) RETURNING created_at, updated_at`
	return r.db.QueryRow(query, video.ID, video.FilePath, video.Title).
		Scan(&video.CreatedAt, &video.UpdatedAt)
}

func (r *VideoRepository) GetByID(id uuid.UUID) (*models.Video, error) {
	video := &models.Video{}
	query := `SELECT id, file_path, title, duration_seconds, frame_rate, width, height, has_audio, created_at, updated_at
		FROM videos WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&video.ID, &video.FilePath, &video.Title,
		&video.DurationSeconds, &video.FrameRate, &video.Width, &video.Height,
		&video.HasAudio, &video.CreatedAt, &video.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: video %s", ErrNotFound, id)
	}
	return video, err
}

func (r *VideoRepository) GetByPath(filePath string) (*models.Video, error) {
	video := &models.Video{}
	query := `SELECT id, file_path, title, duration_seconds, frame_rate, width, height, has_audio, created_at, updated_at
		FROM videos WHERE file_path = $1`
	err := r.db.QueryRow(query, filePath).Scan(&video.ID, &video.FilePath, &video.Title,
		&video.DurationSeconds, &video.FrameRate, &video.Width, &video.Height,
		&video.HasAudio, &video.CreatedAt, &video.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: video at %s", ErrNotFound, filePath)
	}
	return video, err
}

func (r *VideoRepository) List(limit, offset int) ([]*models.Video, error) {
	query := `SELECT id, file_path, title, duration_seconds, frame_rate, width, height, has_audio, created_at, updated_at
		FROM videos ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		video := &models.Video{}
		if err := rows.Scan(&video.ID, &video.FilePath, &video.Title,
			&video.DurationSeconds, &video.FrameRate, &video.Width, &video.Height,
			&video.HasAudio, &video.CreatedAt, &video.UpdatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// UpdateProbe stores the metadata learned from the probe step.
func (r *VideoRepository) UpdateProbe(id uuid.UUID, duration, frameRate float64, width, height int, hasAudio bool) error {
	query := `UPDATE videos
		SET duration_seconds = $1, frame_rate = $2, width = $3, height = $4, has_audio = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6`
	res, err := r.db.Exec(query, duration, frameRate, width, height, hasAudio, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: video %s", ErrNotFound, id)
	}
	return nil
}

func (r *VideoRepository) Delete(id uuid.UUID) error {
	res, err := r.db.Exec(`DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: video %s", ErrNotFound, id)
	}
	return nil
}
