package handler

import (
	"github.com/gofiber/fiber/v2"

	"medsecure/internal/http/middleware"
	"medsecure/internal/model"
)

// actorFromCtx returns the identity established by the auth middleware.
// A missing identity means the route was mounted without it; the caller
// should answer 401.
func actorFromCtx(c *fiber.Ctx) (model.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func unauthenticated(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
}
