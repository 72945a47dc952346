package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lesserevil/miniscope/internal/auth"
	"github.com/lesserevil/miniscope/internal/httputil"
	"github.com/lesserevil/miniscope/internal/jobs"
	"github.com/lesserevil/miniscope/internal/models"
)

// handleProcessVideo creates a job for the video and queues the pipeline.
// One queue task per job; re-posting while a job runs enqueues nothing new.
func (s *Server) handleProcessVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid video ID")
		return
	}
	video, err := s.videoRepo.GetByID(videoID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	job := &models.Job{VideoID: video.ID}
	if user := auth.UserFromContext(r.Context()); user != nil {
		if uid, err := uuid.Parse(user.UserID); err == nil {
			job.StartedBy = &uid
		}
	}
	if err := s.jobRepo.Create(job); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	payload := jobs.ProcessVideoPayload{JobID: job.ID.String(), VideoID: video.ID.String()}
	if _, err := s.jobQueue.EnqueueUnique(jobs.TaskProcessVideo, payload, "process:"+job.ID.String()); err != nil {
		msg := err.Error()
		s.jobRepo.Finish(job.ID, models.JobFailed, &msg)
		httputil.WriteError(w, http.StatusInternalServerError, "ENQUEUE_FAILED", "could not queue processing job")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	list, err := s.jobRepo.ListRecent(100)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if list == nil {
		list = []*models.Job{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}
	job, err := s.jobRepo.GetByID(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, job)
}

// handleDeleteJob removes a job; its skip sections and scripts cascade.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}
	if err := s.jobRepo.Delete(id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id.String()})
}

func (s *Server) handleGetJobScript(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}
	script, err := s.scriptRepo.GetByJob(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, script)
}
