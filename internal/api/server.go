package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/lesserevil/miniscope/internal/auth"
	"github.com/lesserevil/miniscope/internal/config"
	"github.com/lesserevil/miniscope/internal/db"
	"github.com/lesserevil/miniscope/internal/httputil"
	"github.com/lesserevil/miniscope/internal/jobs"
	"github.com/lesserevil/miniscope/internal/repository"
	"github.com/lesserevil/miniscope/internal/version"
)

type Server struct {
	config      *config.Config
	db          *db.DB
	authService *auth.Service
	userRepo    *repository.UserRepository
	videoRepo   *repository.VideoRepository
	jobRepo     *repository.JobRepository
	scriptRepo  *repository.ScriptRepository
	skipRepo    *repository.SkipSectionRepository
	jobQueue    *jobs.Queue
	wsHub       *WSHub
	router      chi.Router
	log         zerolog.Logger
}

func NewServer(cfg *config.Config, database *db.DB, jobQueue *jobs.Queue, logger zerolog.Logger) *Server {
	authService := auth.NewService(cfg.JWTSecret)

	s := &Server{
		config:      cfg,
		db:          database,
		authService: authService,
		userRepo:    repository.NewUserRepository(database.DB),
		videoRepo:   repository.NewVideoRepository(database.DB),
		jobRepo:     repository.NewJobRepository(database.DB),
		scriptRepo:  repository.NewScriptRepository(database.DB),
		skipRepo:    repository.NewSkipSectionRepository(database.DB),
		jobQueue:    jobQueue,
		wsHub:       NewWSHub(logger),
		log:         logger,
	}
	s.setupRoutes()
	return s
}

// Hub exposes the websocket hub for job handlers to broadcast through.
func (s *Server) Hub() *WSHub { return s.wsHub }

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	authMW := auth.NewMiddleware(s.authService)
	authHandler := auth.NewHandler(s.userRepo, s.authService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Router())
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAuth)

			r.Route("/videos", func(r chi.Router) {
				r.Post("/", s.handleCreateVideo)
				r.Get("/", s.handleListVideos)
				r.Get("/{id}", s.handleGetVideo)
				r.Delete("/{id}", s.handleDeleteVideo)
				r.Post("/{id}/process", s.handleProcessVideo)
				r.Get("/{id}/scripts", s.handleListVideoScripts)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", s.handleListJobs)
				r.Get("/{id}", s.handleGetJob)
				r.Delete("/{id}", s.handleDeleteJob)
				r.Get("/{id}/script", s.handleGetJobScript)

				r.Route("/{id}/skip-sections", func(r chi.Router) {
					r.Post("/", s.handleCreateSkipSection)
					r.Get("/", s.handleListSkipSections)
					r.Delete("/", s.handleClearSkipSections)
				})
			})

			r.Route("/skip-sections", func(r chi.Router) {
				r.Get("/{id}", s.handleGetSkipSection)
				r.Put("/{id}", s.handleUpdateSkipSection)
				r.Delete("/{id}", s.handleDeleteSkipSection)
			})
		})
	})

	s.router = r
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "UNHEALTHY", "database unreachable")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": version.Get(),
	})
}
