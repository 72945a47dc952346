package models

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────── Enums ────────────────────

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status will never change again.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ──────────────────── User ────────────────────

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Video ────────────────────

// Video is a registered source file. Duration and frame rate are filled in
// by the probe step of the first processing job.
type Video struct {
	ID              uuid.UUID `json:"id" db:"id"`
	FilePath        string    `json:"file_path" db:"file_path"`
	Title           string    `json:"title" db:"title"`
	DurationSeconds float64   `json:"duration_seconds" db:"duration_seconds"`
	FrameRate       float64   `json:"frame_rate" db:"frame_rate"`
	Width           int       `json:"width" db:"width"`
	Height          int       `json:"height" db:"height"`
	HasAudio        bool      `json:"has_audio" db:"has_audio"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Job ────────────────────

// Job tracks one processing run over a video. Progress is 0-100.
type Job struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	VideoID      uuid.UUID  `json:"video_id" db:"video_id"`
	Status       JobStatus  `json:"status" db:"status"`
	Progress     int        `json:"progress" db:"progress"`
	Stage        string     `json:"stage,omitempty" db:"stage"`
	ErrorMessage *string    `json:"error_message,omitempty" db:"error_message"`
	StartedBy    *uuid.UUID `json:"started_by,omitempty" db:"started_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Script ────────────────────

// Script is the generated screenplay text for a completed job.
type Script struct {
	ID        uuid.UUID `json:"id" db:"id"`
	JobID     uuid.UUID `json:"job_id" db:"job_id"`
	VideoID   uuid.UUID `json:"video_id" db:"video_id"`
	Content   string    `json:"content" db:"content"`
	Model     string    `json:"model" db:"model"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ──────────────────── Skip Section ────────────────────

// SkipSection is a persisted time range of a job's video that the transcript
// filter removes. Stored sections for one job never overlap; touching
// endpoints are allowed.
type SkipSection struct {
	ID           uuid.UUID `json:"id" db:"id"`
	JobID        uuid.UUID `json:"job_id" db:"job_id"`
	StartSeconds float64   `json:"start_seconds" db:"start_seconds"`
	EndSeconds   float64   `json:"end_seconds" db:"end_seconds"`
	SectionType  string    `json:"section_type" db:"section_type"`
	Confidence   float64   `json:"confidence" db:"confidence"`
	Note         string    `json:"note,omitempty" db:"note"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Duration returns the section length in seconds.
func (s *SkipSection) Duration() float64 {
	return s.EndSeconds - s.StartSeconds
}
