package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lesserevil/miniscope/internal/httputil"
	"github.com/lesserevil/miniscope/internal/models"
	"github.com/lesserevil/miniscope/internal/repository"
)

type Handler struct {
	users   *repository.UserRepository
	service *Service
}

func NewHandler(users *repository.UserRepository, service *Service) *Handler {
	return &Handler{users: users, service: service}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "username and password are required")
		return
	}
	if len(req.Password) < 8 {
		httputil.WriteError(w, http.StatusBadRequest, "WEAK_PASSWORD", "password must be at least 8 characters")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to hash password")
		return
	}

	// The first registered user becomes the admin.
	count, err := h.users.Count()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to check users")
		return
	}
	role := models.RoleUser
	if count == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{Username: req.Username, PasswordHash: hash, Role: role}
	if err := h.users.Create(user); err != nil {
		httputil.WriteError(w, http.StatusConflict, "USERNAME_EXISTS", "username already registered")
		return
	}

	token, err := h.service.IssueToken(user)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue token")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	user, err := h.users.GetByUsername(req.Username)
	if err != nil || !CheckPassword(user.PasswordHash, req.Password) {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", ErrInvalidCredentials.Error())
		return
	}

	token, err := h.service.IssueToken(user)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue token")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}
