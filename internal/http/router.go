package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"merchant-assistant/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Conversations handlers.ConversationAPI
	Documents     *handlers.DocumentsHandler
	Health        *handlers.HealthHandler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)
	r.Use(Metrics)

	r.Method(http.MethodGet, "/healthz", deps.Health)
	r.Handle("/metrics", promhttp.Handler())

	chatHandler := handlers.NewChatHandler(deps.Conversations)
	conversationsHandler := handlers.NewConversationsHandler(deps.Conversations)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireUser)

		// Message without a conversation id starts a new conversation.
		r.Method(http.MethodPost, "/messages", chatHandler)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationsHandler.List)
			r.Route("/{conversationID}", func(r chi.Router) {
				r.Method(http.MethodPost, "/messages", chatHandler)
				r.Get("/messages", conversationsHandler.Messages)
				r.Patch("/", conversationsHandler.Rename)
				r.Delete("/", conversationsHandler.Delete)
			})
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", deps.Documents.Create)
			r.Get("/", deps.Documents.List)
			r.Route("/{documentID}", func(r chi.Router) {
				r.Post("/chunk", deps.Documents.Chunk)
				r.Post("/vectorize", deps.Documents.Vectorize)
				r.Post("/ingest", deps.Documents.Ingest)
				r.Get("/ingest/events", deps.Documents.IngestEvents)
			})
		})
	})

	return r
}
