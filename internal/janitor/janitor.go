// Package janitor sweeps jobs that died mid-processing. A worker crash
// leaves its job stuck in processing forever; the sweep fails those rows so
// the UI and the unique task IDs unblock.
package janitor

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lesserevil/miniscope/internal/repository"
)

type Janitor struct {
	jobRepo         *repository.JobRepository
	staleJobMinutes int
	cron            *cron.Cron
	log             zerolog.Logger
}

func New(jobRepo *repository.JobRepository, staleJobMinutes int, logger zerolog.Logger) *Janitor {
	return &Janitor{
		jobRepo:         jobRepo,
		staleJobMinutes: staleJobMinutes,
		cron:            cron.New(),
		log:             logger,
	}
}

// Start schedules the sweep every 10 minutes.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("*/10 * * * *", j.sweep); err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info().Int("stale_minutes", j.staleJobMinutes).Msg("stale job sweep scheduled")
	return nil
}

func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *Janitor) sweep() {
	n, err := j.jobRepo.FailStale(j.staleJobMinutes)
	if err != nil {
		j.log.Error().Err(err).Msg("stale job sweep failed")
		return
	}
	if n > 0 {
		j.log.Warn().Int64("failed", n).Msg("swept stale jobs")
	}
}
