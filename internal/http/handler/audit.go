package handler

import (
	"github.com/gofiber/fiber/v2"

	"medsecure/internal/service"
)

// ListAudit returns audit entries, newest first, admin only.
//
//	@Summary	List audit entries
//	@Tags		audit
//	@Produce	json
//	@Param		limit	query		int	false	"page size"	default(10)
//	@Param		offset	query		int	false	"page offset"
//	@Success	200		{object}	service.AuditListResult
//	@Failure	403		{object}	errorPayload
//	@Router		/audit [get]
func ListAudit(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		limit, offset, ok := pageParams(c)
		if !ok {
			return nil
		}

		res, err := svc.List(c.UserContext(), actor, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
