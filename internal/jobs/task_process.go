package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/lesserevil/miniscope/internal/models"
	"github.com/lesserevil/miniscope/internal/pipeline"
	"github.com/lesserevil/miniscope/internal/repository"
)

// ProcessHandler runs the full pipeline for one job and records the result.
type ProcessHandler struct {
	processor  *pipeline.Processor
	jobRepo    *repository.JobRepository
	videoRepo  *repository.VideoRepository
	scriptRepo *repository.ScriptRepository
	notifier   EventNotifier
	log        zerolog.Logger
}

func NewProcessHandler(processor *pipeline.Processor, jobRepo *repository.JobRepository,
	videoRepo *repository.VideoRepository, scriptRepo *repository.ScriptRepository,
	notifier EventNotifier, logger zerolog.Logger) *ProcessHandler {
	return &ProcessHandler{
		processor:  processor,
		jobRepo:    jobRepo,
		videoRepo:  videoRepo,
		scriptRepo: scriptRepo,
		notifier:   notifier,
		log:        logger,
	}
}

func (h *ProcessHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ProcessVideoPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	jobID, err := uuid.Parse(p.JobID)
	if err != nil {
		return fmt.Errorf("parse job id: %w", err)
	}
	videoID, err := uuid.Parse(p.VideoID)
	if err != nil {
		return fmt.Errorf("parse video id: %w", err)
	}

	video, err := h.videoRepo.GetByID(videoID)
	if err != nil {
		return fmt.Errorf("get video: %w", err)
	}

	if err := h.jobRepo.MarkProcessing(jobID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	h.broadcastUpdate(jobID, models.JobProcessing, 0, "starting")

	// Throttle progress broadcasts; the pipeline reports per chunk.
	var lastBroadcast time.Time
	progress := func(id uuid.UUID, pct int, stage string) {
		if err := h.jobRepo.UpdateProgress(id, pct, stage); err != nil {
			h.log.Warn().Err(err).Str("job_id", id.String()).Msg("progress update failed")
		}
		if pct == 100 || time.Since(lastBroadcast) > time.Second {
			h.broadcastUpdate(id, models.JobProcessing, pct, stage)
			lastBroadcast = time.Now()
		}
	}

	result, err := h.processor.Process(ctx, jobID, videoID, video.FilePath, progress)
	if err != nil {
		msg := err.Error()
		if finishErr := h.jobRepo.Finish(jobID, models.JobFailed, &msg); finishErr != nil {
			h.log.Error().Err(finishErr).Str("job_id", jobID.String()).Msg("could not record job failure")
		}
		h.broadcastUpdate(jobID, models.JobFailed, 0, "failed")
		h.log.Error().Err(err).Str("job_id", jobID.String()).Msg("processing failed")
		return err
	}

	// Store the probe metadata learned during the run.
	width, height := 0, 0
	fps := result.Probe.FPS()
	if vs, ok := result.Probe.VideoStream(); ok {
		width, height = vs.Width, vs.Height
	}
	_, hasAudio := result.Probe.AudioStream()
	if err := h.videoRepo.UpdateProbe(videoID, result.Probe.DurationSeconds(), fps, width, height, hasAudio); err != nil {
		h.log.Warn().Err(err).Str("video_id", videoID.String()).Msg("could not store probe metadata")
	}

	scriptRow := &models.Script{
		JobID:   jobID,
		VideoID: videoID,
		Content: result.Script,
		Model:   h.processor.ModelName(),
	}
	if err := h.scriptRepo.Create(scriptRow); err != nil {
		msg := fmt.Sprintf("save script: %v", err)
		h.jobRepo.Finish(jobID, models.JobFailed, &msg)
		h.broadcastUpdate(jobID, models.JobFailed, 0, "failed")
		return fmt.Errorf("save script: %w", err)
	}

	if err := h.jobRepo.Finish(jobID, models.JobCompleted, nil); err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	h.broadcastUpdate(jobID, models.JobCompleted, 100, "done")

	h.log.Info().Str("job_id", jobID.String()).
		Int("chunks", len(result.Chunks)).
		Int("intervals", len(result.Intervals)).
		Int("script_bytes", len(result.Script)).
		Msg("processing complete")
	return nil
}

func (h *ProcessHandler) broadcastUpdate(jobID uuid.UUID, status models.JobStatus, progress int, stage string) {
	if h.notifier == nil {
		return
	}
	h.notifier.Broadcast("job:update", map[string]any{
		"job_id":   jobID.String(),
		"status":   status,
		"progress": progress,
		"stage":    stage,
	})
}
