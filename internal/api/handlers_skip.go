package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lesserevil/miniscope/internal/httputil"
	"github.com/lesserevil/miniscope/internal/models"
	"github.com/lesserevil/miniscope/internal/repository"
)

// ──────────────────── Skip Sections ────────────────────

// handleCreateSkipSection stores a user-authored skip range for a job.
// User entries always carry full confidence.
func (s *Server) handleCreateSkipSection(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}
	if _, err := s.jobRepo.GetByID(jobID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	var req struct {
		StartSeconds float64 `json:"start_seconds"`
		EndSeconds   float64 `json:"end_seconds"`
		Note         string  `json:"note"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	section := &models.SkipSection{
		JobID:        jobID,
		StartSeconds: req.StartSeconds,
		EndSeconds:   req.EndSeconds,
		SectionType:  "manual",
		Confidence:   1.0,
		Note:         req.Note,
	}
	if err := s.skipRepo.Create(section); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, section)
}

// handleListSkipSections returns a job's sections plus their summed duration.
func (s *Server) handleListSkipSections(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}
	sections, err := s.skipRepo.ListByJob(jobID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if sections == nil {
		sections = []*models.SkipSection{}
	}
	total, err := s.skipRepo.TotalSkippedDuration(jobID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"sections":       sections,
		"total_duration": total,
	})
}

func (s *Server) handleGetSkipSection(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid section ID")
		return
	}
	section, err := s.skipRepo.GetByID(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, section)
}

// handleUpdateSkipSection changes a section's range or note. Omitted fields
// keep their stored values; the merged range is revalidated.
func (s *Server) handleUpdateSkipSection(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid section ID")
		return
	}

	var req struct {
		StartSeconds *float64 `json:"start_seconds"`
		EndSeconds   *float64 `json:"end_seconds"`
		Note         *string  `json:"note"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	section, err := s.skipRepo.Update(id, repository.SkipSectionUpdate{
		StartSeconds: req.StartSeconds,
		EndSeconds:   req.EndSeconds,
		Note:         req.Note,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, section)
}

// handleDeleteSkipSection removes one section.
func (s *Server) handleDeleteSkipSection(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid section ID")
		return
	}
	deleted, err := s.skipRepo.Delete(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if !deleted {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "skip section not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id.String()})
}

// handleClearSkipSections removes every section of a job.
func (s *Server) handleClearSkipSections(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}
	n, err := s.skipRepo.DeleteByJob(jobID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"deleted": n})
}
