package repository

import (
	"database/sql"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/lesserevil/miniscope/internal/models"
)

type SkipSectionRepository struct {
	db *sql.DB
}

func NewSkipSectionRepository(db *sql.DB) *SkipSectionRepository {
	return &SkipSectionRepository{db: db}
}

// validateRange rejects ranges that are empty, inverted, or start before zero.
func validateRange(start, end float64) error {
	if start < 0 {
		return fmt.Errorf("%w: start %.3f is negative", ErrInvalidRange, start)
	}
	if end <= start {
		return fmt.Errorf("%w: end %.3f must be after start %.3f", ErrInvalidRange, end, start)
	}
	return nil
}

// overlapsAny reports whether [start, end) strictly overlaps any section
// other than excludeID. Touching endpoints do not overlap.
func overlapsAny(sections []*models.SkipSection, start, end float64, excludeID uuid.UUID) *models.SkipSection {
	for _, s := range sections {
		if s.ID == excludeID {
			continue
		}
		if start < s.EndSeconds && end > s.StartSeconds {
			return s
		}
	}
	return nil
}

// jobLockKey maps a job ID onto the advisory lock keyspace. All writers for
// one job serialize on the same key.
func jobLockKey(jobID uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(jobID[:8]))
}

func listForJobTx(tx *sql.Tx, jobID uuid.UUID) ([]*models.SkipSection, error) {
	rows, err := tx.Query(`
		SELECT id, job_id, start_seconds, end_seconds, section_type, confidence, note, created_at, updated_at
		FROM skip_sections
		WHERE job_id = $1
		ORDER BY start_seconds`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []*models.SkipSection
	for rows.Next() {
		s := &models.SkipSection{}
		if err := rows.Scan(&s.ID, &s.JobID, &s.StartSeconds, &s.EndSeconds,
			&s.SectionType, &s.Confidence, &s.Note, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// Create validates the section and inserts it, failing with ErrOverlap if it
// strictly overlaps an existing section of the same job. The overlap check
// and insert run under a per-job advisory lock so concurrent writers cannot
// both pass the check.
func (r *SkipSectionRepository) Create(section *models.SkipSection) error {
	if err := validateRange(section.StartSeconds, section.EndSeconds); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock($1)`, jobLockKey(section.JobID)); err != nil {
		return err
	}

	existing, err := listForJobTx(tx, section.JobID)
	if err != nil {
		return err
	}
	if hit := overlapsAny(existing, section.StartSeconds, section.EndSeconds, uuid.Nil); hit != nil {
		return fmt.Errorf("%w: [%.3f, %.3f) overlaps [%.3f, %.3f)",
			ErrOverlap, section.StartSeconds, section.EndSeconds, hit.StartSeconds, hit.EndSeconds)
	}

	if section.ID == uuid.Nil {
		section.ID = uuid.New()
	}
	err = tx.QueryRow(`
		INSERT INTO skip_sections (id, job_id, start_seconds, end_seconds, section_type, confidence, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		section.ID, section.JobID, section.StartSeconds, section.EndSeconds,
		section.SectionType, section.Confidence, section.Note).
		Scan(&section.CreatedAt, &section.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ListByJob returns all sections for a job ordered by start time.
func (r *SkipSectionRepository) ListByJob(jobID uuid.UUID) ([]*models.SkipSection, error) {
	rows, err := r.db.Query(`
		SELECT id, job_id, start_seconds, end_seconds, section_type, confidence, note, created_at, updated_at
		FROM skip_sections
		WHERE job_id = $1
		ORDER BY start_seconds`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []*models.SkipSection
	for rows.Next() {
		s := &models.SkipSection{}
		if err := rows.Scan(&s.ID, &s.JobID, &s.StartSeconds, &s.EndSeconds,
			&s.SectionType, &s.Confidence, &s.Note, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *SkipSectionRepository) GetByID(id uuid.UUID) (*models.SkipSection, error) {
	s := &models.SkipSection{}
	err := r.db.QueryRow(`
		SELECT id, job_id, start_seconds, end_seconds, section_type, confidence, note, created_at, updated_at
		FROM skip_sections WHERE id = $1`, id).
		Scan(&s.ID, &s.JobID, &s.StartSeconds, &s.EndSeconds,
			&s.SectionType, &s.Confidence, &s.Note, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: skip section %s", ErrNotFound, id)
	}
	return s, err
}

// SkipSectionUpdate holds the optional fields of an update. Nil fields keep
// their stored values; the merged result is revalidated either way.
type SkipSectionUpdate struct {
	StartSeconds *float64
	EndSeconds   *float64
	Note         *string
}

// Update applies the changed fields to a section and revalidates the merged
// range against the job's other sections under the same advisory lock as
// Create.
func (r *SkipSectionRepository) Update(id uuid.UUID, update SkipSectionUpdate) (*models.SkipSection, error) {
	current, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	start := current.StartSeconds
	end := current.EndSeconds
	note := current.Note
	if update.StartSeconds != nil {
		start = *update.StartSeconds
	}
	if update.EndSeconds != nil {
		end = *update.EndSeconds
	}
	if update.Note != nil {
		note = *update.Note
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock($1)`, jobLockKey(current.JobID)); err != nil {
		return nil, err
	}

	existing, err := listForJobTx(tx, current.JobID)
	if err != nil {
		return nil, err
	}
	if hit := overlapsAny(existing, start, end, id); hit != nil {
		return nil, fmt.Errorf("%w: [%.3f, %.3f) overlaps [%.3f, %.3f)",
			ErrOverlap, start, end, hit.StartSeconds, hit.EndSeconds)
	}

	err = tx.QueryRow(`
		UPDATE skip_sections
		SET start_seconds = $1, end_seconds = $2, note = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
		RETURNING updated_at`,
		start, end, note, id).Scan(&current.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: skip section %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	current.StartSeconds = start
	current.EndSeconds = end
	current.Note = note
	return current, nil
}

// Delete removes a section and reports whether it existed.
func (r *SkipSectionRepository) Delete(id uuid.UUID) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM skip_sections WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByJob removes every section of a job and returns the count removed.
func (r *SkipSectionRepository) DeleteByJob(jobID uuid.UUID) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM skip_sections WHERE job_id = $1`, jobID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TotalSkippedDuration sums the section lengths for a job. Sections never
// overlap, so the sum is exact.
func (r *SkipSectionRepository) TotalSkippedDuration(jobID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(end_seconds - start_seconds), 0)
		FROM skip_sections WHERE job_id = $1`, jobID).Scan(&total)
	return total, err
}
