package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"medsecure/internal/envelope"
	"medsecure/internal/service"
)

// decryptResponse carries a decoded file back to the client. Data is
// base64 in JSON.
type decryptResponse struct {
	Metadata envelope.FileMetadata `json:"metadata"`
	Data     []byte                `json:"data"`
}

type presignResponse struct {
	URL string `json:"url"`
}

// EncryptFile seals an uploaded file into an envelope and stores it in
// the vault.
//
//	@Summary	Encrypt a medical file
//	@Tags		files
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"file to encrypt"
//	@Success	201		{object}	service.EncryptResult
//	@Failure	403		{object}	errorPayload
//	@Router		/files/encrypt [post]
func EncryptFile(svc service.FileService) fiber.Handler {
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
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		res, err := svc.Encrypt(c.UserContext(), actor, data, fh.Filename, ct)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// DecryptFile unwraps an envelope, either uploaded as a multipart file or
// referenced by its vault key.
//
//	@Summary	Decrypt an envelope
//	@Tags		files
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file		formData	file	false	".medsecure envelope"
//	@Param		vault_key	formData	string	false	"key of a stored envelope"
//	@Success	200			{object}	decryptResponse
//	@Failure	422			{object}	errorPayload
//	@Router		/files/decrypt [post]
func DecryptFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		var decoded *envelope.DecodedFile

		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			raw, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
			}

			decoded, err = svc.Decrypt(c.UserContext(), actor, string(raw))
			if err != nil {
				return writeServiceError(c, err)
			}
		} else if key := c.FormValue("vault_key"); key != "" {
			var err error
			decoded, err = svc.DecryptVaultKey(c.UserContext(), actor, key)
			if err != nil {
				return writeServiceError(c, err)
			}
		} else {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file or vault_key is required")
		}

		return c.JSON(decryptResponse{Metadata: decoded.Metadata, Data: decoded.Data})
	}
}

// PresignVaultURL returns a time-limited download URL for a stored
// envelope. The path carries the object name; the vault prefix is
// implied.
//
//	@Summary	Presign a vault download
//	@Tags		files
//	@Produce	json
//	@Param		key	path		string	true	"vault object name"
//	@Success	200	{object}	presignResponse
//	@Failure	404	{object}	errorPayload
//	@Router		/vault/{key}/url [get]
func PresignVaultURL(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromCtx(c)
		if !ok {
			return unauthenticated(c)
		}

		url, err := svc.PresignDownload(c.UserContext(), actor, "vault/"+c.Params("key"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(presignResponse{URL: url})
	}
}
