package jobs

import (
	"github.com/lesserevil/miniscope/internal/pipeline"
	"github.com/lesserevil/miniscope/internal/repository"
)

// ──────── Payloads ────────

type ProcessVideoPayload struct {
	JobID   string `json:"job_id"`
	VideoID string `json:"video_id"`
}

// EventNotifier pushes live updates to connected clients.
type EventNotifier interface {
	Broadcast(event string, data any)
}

// ──────── Register all handlers ────────

func RegisterHandlers(q *Queue, processor *pipeline.Processor,
	jobRepo *repository.JobRepository, videoRepo *repository.VideoRepository,
	scriptRepo *repository.ScriptRepository, notifier EventNotifier) {

	q.RegisterHandler(TaskProcessVideo, NewProcessHandler(processor, jobRepo, videoRepo, scriptRepo, notifier, q.log))
}
