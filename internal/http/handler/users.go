package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"medsecure/internal/model"
	"medsecure/internal/service"
)

// pageParams parses limit and offset query parameters with the usual
// defaults. On a parse failure the 400 response has already been
// written and ok is false.
func pageParams(c *fiber.Ctx) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		return 0, 0, false
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		return 0, 0, false
	}
	return limit, offset, true
}

// ListUsers returns user accounts, admin only.
//
//	@Summary	List users
//	@Tags		users
//	@Produce	json
//	@Param		limit	query		int	false	"page size"	default(10)
//	@Param		offset	query		int	false	"page offset"
//	@Success	200		{object}	service.UserListResult
//	@Failure	403		{object}	errorPayload
//	@Router		/users [get]
func ListUsers(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		limit, offset, ok := pageParams(c)
		if !ok {
			return nil
		}

		res, err := svc.ListUsers(c.UserContext(), actor, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

type setRoleRequest struct {
	Role model.Role `json:"role"`
}

// SetUserRole assigns a role directly, admin only.
//
//	@Summary	Set a user's role
//	@Tags		users
//	@Accept		json
//	@Param		id		path	string			true	"user id"
//	@Param		body	body	setRoleRequest	true	"new role"
//	@Success	204
//	@Failure	403	{object}	errorPayload
//	@Router		/users/{id}/role [put]
func SetUserRole(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var body setRoleRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		if err := svc.SetRole(c.UserContext(), actor, id, body.Role); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
