package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"medsecure/internal/model"
	"medsecure/internal/service"
)

type submitRequestBody struct {
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

type decisionBody struct {
	Decision string `json:"decision"`
}

// SubmitRequest files an authorization request for the caller.
//
//	@Summary	Submit an authorization request
//	@Tags		requests
//	@Accept		json
//	@Produce	json
//	@Param		body	body		submitRequestBody	true	"request details"
//	@Success	201		{object}	model.AuthorizationRequest
//	@Failure	401		{object}	errorPayload
//	@Router		/requests [post]
func SubmitRequest(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		var body submitRequestBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if strings.TrimSpace(body.Reason) == "" {
			return writeError(c, fiber.StatusBadRequest, "REASON_REQUIRED", "reason is required")
		}

		req, err := svc.SubmitRequest(c.UserContext(), actor, body.Description, body.Reason)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	}
}

// ListRequests returns authorization requests, newest first, admin only.
//
//	@Summary	List authorization requests
//	@Tags		requests
//	@Produce	json
//	@Param		limit	query		int	false	"page size"	default(10)
//	@Param		offset	query		int	false	"page offset"
//	@Success	200		{object}	service.RequestListResult
//	@Failure	403		{object}	errorPayload
//	@Router		/requests [get]
func ListRequests(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		limit, offset, ok := pageParams(c)
		if !ok {
			return nil
		}

		res, err := svc.ListRequests(c.UserContext(), actor, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// DecideRequest approves or rejects a pending request, admin only. The
// first decision wins; a second one answers 409.
//
//	@Summary	Decide an authorization request
//	@Tags		requests
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"request id"
//	@Param		body	body		decisionBody	true	"approved or rejected"
//	@Success	200		{object}	model.AuthorizationRequest
//	@Failure	409		{object}	errorPayload
//	@Router		/requests/{id}/decision [post]
func DecideRequest(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var body decisionBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		req, err := svc.DecideRequest(c.UserContext(), actor, id, model.RequestStatus(body.Decision))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	}
}
