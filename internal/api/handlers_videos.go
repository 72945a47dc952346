package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lesserevil/miniscope/internal/httputil"
	"github.com/lesserevil/miniscope/internal/models"
)

var supportedExtensions = map[string]bool{".mp4": true, ".m4v": true}

// handleCreateVideo registers a video file for processing. The path must
// exist, be a regular file, and carry a supported extension.
func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilePath string `json:"file_path"`
		Title    string `json:"title"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if req.FilePath == "" {
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "file_path is required")
		return
	}

	if !supportedExtensions[strings.ToLower(filepath.Ext(req.FilePath))] {
		httputil.WriteError(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "file must be .mp4 or .m4v")
		return
	}

	info, err := os.Stat(req.FilePath)
	if err != nil || info.IsDir() {
		httputil.WriteError(w, http.StatusBadRequest, "FILE_NOT_FOUND", "file does not exist or is a directory")
		return
	}

	title := req.Title
	if title == "" {
		title = filepath.Base(req.FilePath)
	}

	video := &models.Video{FilePath: req.FilePath, Title: title}
	if err := s.videoRepo.Create(video); err != nil {
		httputil.WriteError(w, http.StatusConflict, "PATH_EXISTS", "video path already registered")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, video)
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.videoRepo.List(100, 0)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}
	httputil.WriteJSON(w, http.StatusOK, videos)
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid video ID")
		return
	}
	video, err := s.videoRepo.GetByID(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, video)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid video ID")
		return
	}
	if err := s.videoRepo.Delete(id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id.String()})
}

func (s *Server) handleListVideoScripts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid video ID")
		return
	}
	scripts, err := s.scriptRepo.ListByVideo(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if scripts == nil {
		scripts = []*models.Script{}
	}
	httputil.WriteJSON(w, http.StatusOK, scripts)
}
