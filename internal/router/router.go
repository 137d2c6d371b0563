package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"chill-backend/internal/handlers"
	"chill-backend/internal/middleware"
)

func New(
	session *middleware.Session,
	authLimiter middleware.Limiter,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","message":"Chill App API is running"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			// Profile requires a session
			r.Group(func(r chi.Router) {
				r.Use(session.Middleware)
				r.Get("/profile", authHandler.Profile)
			})
		})

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Use(session.Middleware)
			r.Post("/message", chatHandler.SendMessage)
			r.Get("/history", chatHandler.GetHistory)
			r.Delete("/history", chatHandler.ClearHistory)
		})
	})

	return r
}
