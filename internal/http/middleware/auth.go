package middleware

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"medsecure/internal/auth"
	"medsecure/internal/model"
	"medsecure/internal/repository"
)

// IdentityLocalKey is the key under which the authenticated identity is
// stored in Fiber's context locals.
const IdentityLocalKey = "identity"

// Authenticate validates the Bearer token and resolves the caller's account.
//
// The role is always read from the users table, never from the token, so a
// role change takes effect on the next request. Unknown subjects are
// provisioned on first sight with the base role.
func Authenticate(verifier *auth.Verifier, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return unauthorized(c, "missing bearer token")
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			return unauthorized(c, "invalid token")
		}

		user, err := users.FindByID(c.Context(), claims.Subject)
		if errors.Is(err, sql.ErrNoRows) {
			user, err = users.Create(c.Context(), &model.User{
				ID:    claims.Subject,
				Email: claims.Email,
				Name:  claims.Name,
				Role:  model.RoleUser,
			})
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to provision user")
			}
		} else if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load user")
		}

		c.Locals(IdentityLocalKey, model.Identity{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		})

		return c.Next()
	}
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c *fiber.Ctx) (model.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(model.Identity)
	return id, ok
}

func unauthorized(c *fiber.Ctx, message string) error {
	rid, _ := c.Locals(RequestIDLocalKey).(string)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"request_id": rid,
		"error": fiber.Map{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
