package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lesserevil/miniscope/internal/api"
	"github.com/lesserevil/miniscope/internal/chunker"
	"github.com/lesserevil/miniscope/internal/config"
	"github.com/lesserevil/miniscope/internal/db"
	"github.com/lesserevil/miniscope/internal/detect"
	"github.com/lesserevil/miniscope/internal/janitor"
	"github.com/lesserevil/miniscope/internal/jobs"
	"github.com/lesserevil/miniscope/internal/llm"
	"github.com/lesserevil/miniscope/internal/logging"
	"github.com/lesserevil/miniscope/internal/media"
	"github.com/lesserevil/miniscope/internal/pipeline"
	"github.com/lesserevil/miniscope/internal/repository"
	"github.com/lesserevil/miniscope/internal/script"
	"github.com/lesserevil/miniscope/internal/transcribe"
	"github.com/lesserevil/miniscope/internal/version"
)

func main() {
	logging.Init(os.Getenv("DEBUG") != "", os.Getenv("LOG_PRETTY") != "")
	log.Info().Str("version", version.Get().Version).Msg("miniscope starting")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	database, err := db.Connect(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	workDir := filepath.Join(cfg.DataDir, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", workDir).Msg("could not create work directory")
	}

	// Media plumbing.
	prober := media.NewProber(cfg.FFprobePath)
	decoder := media.NewDecoder(cfg.FFmpegPath, prober, logging.WithComponent("media"))

	scenes, err := chunker.NewSceneDetector(decoder, cfg.SceneThreshold, logging.WithComponent("scenes"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid scene detection configuration")
	}

	detectCfg := detect.DefaultConfig()
	detectCfg.BlackFrameThreshold = cfg.BlackFrameThreshold
	detectCfg.SilenceThresholdDB = cfg.SilenceThresholdDB
	detectCfg.MinRunDuration = cfg.MinRunDuration
	detector, err := detect.New(decoder, detectCfg, logging.WithComponent("detect"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid detection configuration")
	}

	transcriber := transcribe.NewWhisperCLI(cfg.WhisperPath, "base", logging.WithComponent("transcribe"))
	generator := llm.NewClient(cfg.OllamaURL, cfg.OllamaModel, logging.WithComponent("llm"))
	assembler := script.NewAssembler(generator, logging.WithComponent("script"))

	skipRepo := repository.NewSkipSectionRepository(database.DB)
	processor := pipeline.NewProcessor(prober, decoder, scenes, detector, transcriber, assembler, skipRepo,
		pipeline.Options{
			ChunkDuration:   cfg.ChunkDuration,
			OverlapDuration: cfg.OverlapDuration,
			Workers:         cfg.ChunkWorkers,
			WorkDir:         workDir,
		}, logging.WithComponent("pipeline"))

	queue := jobs.NewQueue(cfg.Redis.Addr, cfg.Redis.Password, 2, logging.WithComponent("jobs"))
	defer queue.Stop()

	srv := api.NewServer(cfg, database, queue, logging.WithComponent("api"))

	jobRepo := repository.NewJobRepository(database.DB)
	videoRepo := repository.NewVideoRepository(database.DB)
	scriptRepo := repository.NewScriptRepository(database.DB)
	jobs.RegisterHandlers(queue, processor, jobRepo, videoRepo, scriptRepo, srv.Hub())

	if err := queue.Start(); err != nil {
		log.Fatal().Err(err).Msg("job queue failed to start")
	}

	sweeper := janitor.New(jobRepo, cfg.StaleJobMinutes, logging.WithComponent("janitor"))
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("janitor failed to start")
	}
	defer sweeper.Stop()

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
