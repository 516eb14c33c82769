package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/the-llm/backend/internal/ratelimit"
)

// NewRouter wires the middleware chain and routes. The rate limiter runs
// first so it also covers unauthenticated endpoints.
func NewRouter(apiHandler *APIHandler, limiter *ratelimit.Limiter, allowedOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(limiter.Handler)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.Post("/groq-completion", apiHandler.GroqCompletionHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Get("/conversations", apiHandler.ListConversationsHandler)
			r.Post("/conversations", apiHandler.CreateConversationHandler)
			r.Put("/conversations/{conversationID}", apiHandler.RenameConversationHandler)
			r.Delete("/conversations/{conversationID}", apiHandler.DeleteConversationHandler)
			r.Get("/conversations/{conversationID}/messages", apiHandler.ListMessagesHandler)
			r.Post("/conversations/{conversationID}/messages", apiHandler.AppendMessageHandler)
		})
	})

	return r
}
