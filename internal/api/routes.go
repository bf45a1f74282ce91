package api

import (
	"net/http"
	"os"

	"formbox/internal/auth"
	"formbox/internal/db"
	"formbox/internal/pubsub"
	"formbox/internal/service"
	"formbox/internal/storage"
	"formbox/internal/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Dependencies struct {
	DB       *db.Pool
	Bus      *pubsub.Bus
	Hub      *ws.Hub
	Log      *zap.Logger
	Forms    *service.FormService
	Sessions *service.SessionService
	Storage  storage.Storage
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(d.Log))

	// JWT authentication middleware (optional, allows anonymous access)
	jwtSecret := os.Getenv("JWT_SECRET")
	jwtConfig := auth.NewJWTConfig(jwtSecret)
	r.Use(jwtConfig.Middleware)

	// Form authoring endpoints
	r.Post("/forms", d.createForm)
	r.Get("/forms", d.listForms)
	r.Get("/forms/{id}", d.getForm)
	r.Put("/forms/{id}", d.updateForm)
	r.Delete("/forms/{id}", d.deleteForm)
	r.Post("/forms/import", d.importForm)
	r.Get("/forms/{id}/export", d.exportForm)
	r.Post("/forms/{id}/lint", d.lintForm)
	r.Get("/forms/{id}/submissions", d.listSubmissions)

	// Rendering session endpoints
	r.Post("/sessions", d.createSession)
	r.Get("/sessions/{id}", d.getSession)
	r.Put("/sessions/{id}/answers/{questionId}", d.updateAnswer)
	r.Post("/sessions/{id}/next", d.nextStep)
	r.Post("/sessions/{id}/previous", d.previousStep)
	r.Post("/sessions/{id}/cancel", d.cancelSession)
	r.Get("/sessions/{id}/submission", d.getSubmission)

	// File endpoints
	r.Post("/files/sign", d.signFile)

	// WebSocket endpoint
	r.Get("/ws", d.wsHandler)

	return r
}
