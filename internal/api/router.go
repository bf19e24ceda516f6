package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/api/middleware"
	"github.com/parleychat/parley/internal/auth"
	"github.com/parleychat/parley/internal/chat"
	"github.com/parleychat/parley/internal/handlers"
	"github.com/parleychat/parley/internal/realtime"
	"github.com/parleychat/parley/internal/store"
	"github.com/parleychat/parley/internal/upload"
)

// Deps carries everything the router wires together.
type Deps struct {
	Logger        zerolog.Logger
	Store         *store.Store
	Auth          *auth.Service
	Chat          *chat.Service
	Hub           *realtime.Hub
	Uploads       *upload.LocalStorage
	SecureCookies bool
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(10 << 20)) // uploads are the largest bodies

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)

	// Rate limiting on credential and write-heavy endpoints
	limiter := middleware.NewRateLimiter(d.Store, d.Logger)
	r.Use(limiter.Middleware)

	// The browser app is served from the same origin; CORS only needs
	// to admit credentialed requests from a dev frontend.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Session resolution for every route; guards applied per group.
	r.Use(middleware.Sessions(d.Auth))

	h := handlers.NewHandler(d.Auth, d.Chat, d.Store, d.Uploads, d.Logger, d.SecureCookies)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Get("/health", h.Health)
	r.Get("/status", h.Status)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/users/check", h.CheckUsername)

	// Uploaded files
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Uploads.Dir())))
	r.Handle("/uploads/*", fs)

	// Realtime channel; session auth happens before the upgrade.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/ws", d.Hub.ServeHTTP)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/me", h.Me)
		r.Put("/profile", h.UpdateProfile)
		r.Get("/users", h.ListUsers)

		r.Get("/chats", h.ListChats)
		r.Post("/chats", h.CreateChat)
		r.Get("/chats/{id}", h.GetChat)
		r.Put("/chats/{id}/settings", h.UpdateChatSettings)
		r.Get("/chats/{id}/messages", h.ChatMessages)

		r.Post("/messages", h.SendMessage)
		r.Put("/messages/{id}", h.EditMessage)
		r.Delete("/messages/{id}", h.DeleteMessage)
		r.Patch("/messages/{id}/read", h.MarkMessageRead)

		r.Get("/notifications", h.Notifications)

		r.Post("/presence", h.Heartbeat)
		r.Get("/presence", h.Presence)

		r.Post("/upload", h.Upload)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)

		r.Get("/admin/users", h.ListUsers)
		r.Post("/admin/users", h.AdminCreateUser)
		r.Put("/admin/users/{id}", h.AdminUpdateUser)
		r.Delete("/admin/users/{id}", h.AdminDeleteUser)
	})

	return r
}
