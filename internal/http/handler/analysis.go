package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"medsecure/internal/service"
)

// AnalyzeFile forwards an uploaded medical file to the external analysis
// endpoint and relays the verdict.
//
//	@Summary	Analyze a medical file
//	@Tags		analysis
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"file to analyze"
//	@Success	200		{object}	service.AnalysisResult
//	@Failure	503		{object}	errorPayload
//	@Router		/analysis [post]
func AnalyzeFile(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		res, err := svc.Analyze(c.UserContext(), actor, data, fh.Filename, ct)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
