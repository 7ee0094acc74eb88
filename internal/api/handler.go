package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"

	"github.com/notes-bin/imgshare/internal/config"
	"github.com/notes-bin/imgshare/internal/metrics"
	"github.com/notes-bin/imgshare/internal/service"
)

type Handler struct {
	config  *config.Config
	service *service.Service
}

func NewHandler(config *config.Config, svc *service.Service) *Handler {
	return &Handler{config: config, service: svc}
}

// SetupRouter wires every endpoint. m may be nil, which disables /metrics.
func SetupRouter(config *config.Config, svc *service.Service, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	if m != nil {
		r.Use(m.Middleware)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	h := NewHandler(config, svc)

	// 公共路由
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	// 其余路由按令牌识别用户，匿名请求同样放行
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Get("/logout", h.Logout)

		r.Route("/images", func(r chi.Router) {
			r.Get("/", h.ListImages)
			r.Post("/", h.CreateImage)
			r.Get("/trending", h.Trending)
			r.Get("/popular", h.Popular)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetImage)
				r.Put("/", h.UpdateImage)
				r.Delete("/", h.DeleteImage)
				r.Get("/file", h.ImageFile)
				r.Put("/vote", h.Vote)
				r.Put("/favourite", h.Favourite)
				r.Get("/report", h.ListReports)
				r.Post("/report", h.CreateReport)
				r.Get("/comment", h.ListComments)
				r.Post("/comment", h.CreateComment)
			})
		})

		r.Put("/comment/{id}", h.UpdateComment)
		r.Delete("/comment/{id}", h.DeleteComment)

		// 当前用户
		r.Route("/me", func(r chi.Router) {
			r.Get("/images", h.MyImages)
			r.Get("/images/voted", h.MyVoted)
			r.Get("/images/favourites", h.MyFavourites)
			r.Get("/images/favourites/download", h.DownloadFavourites)
			r.Put("/profile", h.UpdateProfile)
		})

		// 管理员路由
		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
	})

	return r
}

// fail maps a service error onto its status code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		body := map[string]string{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		respondJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusNotFound, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, service.ErrUnauthenticated.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, service.ErrForbidden.Error())
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &service.ValidationError{Message: "Invalid request", Err: err}
	}
	return nil
}

// decodeAfter decodes the body. A malformed body is reported only once
// authorize has resolved and permitted the target.
func decodeAfter(r *http.Request, v any, authorize func() error) error {
	err := decodeJSON(r, v)
	if err == nil {
		return nil
	}
	if aerr := authorize(); aerr != nil {
		return aerr
	}
	return err
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func respondError(w http.ResponseWriter, status int, message string) {
	slog.Debug("Request rejected", "status", status, "message", message)
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
