package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docchat-dev/docchat/internal/config"
	"github.com/docchat-dev/docchat/internal/extract"
	docHandler "github.com/docchat-dev/docchat/internal/handler/doc"
	sessionHandler "github.com/docchat-dev/docchat/internal/handler/session"
	snapshotHandler "github.com/docchat-dev/docchat/internal/handler/snapshot"
	"github.com/docchat-dev/docchat/internal/handler/stream"
	transcriptHandler "github.com/docchat-dev/docchat/internal/handler/transcript"
	"github.com/docchat-dev/docchat/internal/handler/ws"
	middlewarePkg "github.com/docchat-dev/docchat/internal/middleware"
	aiService "github.com/docchat-dev/docchat/internal/service/ai"
	sessionService "github.com/docchat-dev/docchat/internal/service/session"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *sessionService.Service, aiSvc *aiService.Service, registry *extract.Registry, uploadCfg config.UploadConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	streamHandler := stream.New(aiSvc, sessions)

	r.Route("/api", func(api chi.Router) {
		sessionHandler.New(sessions).RegisterRoutes(api)
		docHandler.New(sessions, registry, uploadCfg.MaxBytes).RegisterRoutes(api)
		transcriptHandler.New(sessions).RegisterRoutes(api)
		snapshotHandler.New(sessions).RegisterRoutes(api)
		ws.New(aiSvc, sessions).RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}
