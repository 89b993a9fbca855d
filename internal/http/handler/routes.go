package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"medsecure/internal/service"
)

// Services groups the domain services the HTTP surface depends on.
type Services struct {
	Files    service.FileService
	Access   service.AccessService
	Audit    service.AuditService
	Analysis service.AnalysisService
}

// RegisterRoutes attaches the authenticated API routes to the app or
// router group. Health, metrics, and swagger are mounted separately so
// they stay outside the auth middleware.
func RegisterRoutes(r fiber.Router, svcs Services) {
	r.Post("/files/encrypt", EncryptFile(svcs.Files))
	r.Post("/files/decrypt", DecryptFile(svcs.Files))
	r.Get("/vault/:key/url", PresignVaultURL(svcs.Files))

	r.Post("/analysis", AnalyzeFile(svcs.Analysis))

	r.Get("/users", ListUsers(svcs.Access))
	r.Put("/users/:id/role", SetUserRole(svcs.Access))

	r.Get("/requests", ListRequests(svcs.Access))
	r.Post("/requests", SubmitRequest(svcs.Access))
	r.Post("/requests/:id/decision", DecideRequest(svcs.Access))

	r.Get("/audit", ListAudit(svcs.Audit))
}

// RegisterHealthRoutes attaches the unauthenticated probes.
func RegisterHealthRoutes(app *fiber.App, db *sql.DB) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
}
