package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"medsecure/internal/envelope"
	"medsecure/internal/http/middleware"
	"medsecure/internal/model"
	"medsecure/internal/service"
	serviceMocks "medsecure/internal/service/mocks"
)

// testApp mounts a single route behind a fake identity. A nil identity
// simulates a route reached without the auth middleware.
func testApp(identity *model.Identity, register func(fiber.Router)) *fiber.App {
	app := fiber.New()
	if identity != nil {
		id := *identity
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(middleware.IdentityLocalKey, id)
			return c.Next()
		})
	}
	register(app)
	return app
}

func authorizedIdentity() *model.Identity {
	return &model.Identity{UserID: uuid.NewString(), Email: "doc@clinic.example", Role: model.RoleAuthorized}
}

func adminIdentity() *model.Identity {
	return &model.Identity{UserID: uuid.NewString(), Email: "admin@clinic.example", Role: model.RoleAdmin}
}

func multipartFile(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, name)
	require.NoError(t, err)
	part.Write(content)
	writer.Close()
	return body, writer.FormDataContentType()
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEncryptFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := testApp(authorizedIdentity(), func(r fiber.Router) {
		r.Post("/files/encrypt", EncryptFile(mockSvc))
	})

	t.Run("success", func(t *testing.T) {
		body, ct := multipartFile(t, "file", "scan.pdf", []byte("pdf bytes"))

		expected := &service.EncryptResult{
			Envelope: envelope.Magic + "::abc",
			FileName: "scan.pdf.medsecure",
			VaultKey: "vault/" + uuid.NewString() + ".medsecure",
		}
		mockSvc.On("Encrypt", mock.Anything, mock.Anything, []byte("pdf bytes"), "scan.pdf", mock.Anything).
			Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/files/encrypt", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result service.EncryptResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.FileName, result.FileName)
		assert.Equal(t, expected.VaultKey, result.VaultKey)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files/encrypt", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("access denied", func(t *testing.T) {
		body, ct := multipartFile(t, "file", "scan.pdf", []byte("x"))
		mockSvc.On("Encrypt", mock.Anything, mock.Anything, mock.Anything, "scan.pdf", mock.Anything).
			Return(nil, service.ErrAccessDenied).Once()

		req := httptest.NewRequest(http.MethodPost, "/files/encrypt", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "ACCESS_DENIED", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("vault down", func(t *testing.T) {
		body, ct := multipartFile(t, "file", "scan.pdf", []byte("x"))
		mockSvc.On("Encrypt", mock.Anything, mock.Anything, mock.Anything, "scan.pdf", mock.Anything).
			Return(nil, service.ErrStoreUnavailable).Once()

		req := httptest.NewRequest(http.MethodPost, "/files/encrypt", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "STORE_UNAVAILABLE", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		bare := testApp(nil, func(r fiber.Router) {
			r.Post("/files/encrypt", EncryptFile(mockSvc))
		})

		body, ct := multipartFile(t, "file", "scan.pdf", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/files/encrypt", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := bare.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})
}

func TestDecryptFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := testApp(authorizedIdentity(), func(r fiber.Router) {
		r.Post("/files/decrypt", DecryptFile(mockSvc))
	})

	decoded := &envelope.DecodedFile{
		Metadata: envelope.FileMetadata{OriginalName: "scan.pdf", MimeType: "application/pdf", Size: 3},
		Data:     []byte("pdf"),
	}

	t.Run("uploaded envelope", func(t *testing.T) {
		env := envelope.Magic + "::ciphertext"
		body, ct := multipartFile(t, "file", "scan.pdf.medsecure", []byte(env))
		mockSvc.On("Decrypt", mock.Anything, mock.Anything, env).Return(decoded, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/files/decrypt", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result decryptResponse
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "scan.pdf", result.Metadata.OriginalName)
		assert.Equal(t, []byte("pdf"), result.Data)
		mockSvc.AssertExpectations(t)
	})

	t.Run("vault key", func(t *testing.T) {
		key := "vault/" + uuid.NewString() + ".medsecure"
		mockSvc.On("DecryptVaultKey", mock.Anything, mock.Anything, key).Return(decoded, nil).Once()

		form := "vault_key=" + key
		req := httptest.NewRequest(http.MethodPost, "/files/decrypt", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("neither file nor key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files/decrypt", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("foreign file", func(t *testing.T) {
		body, ct := multipartFile(t, "file", "notes.txt", []byte("hello world"))
		mockSvc.On("Decrypt", mock.Anything, mock.Anything, "hello world").
			Return(nil, envelope.ErrNotThisPlatform).Once()

		req := httptest.NewRequest(http.MethodPost, "/files/decrypt", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "NOT_THIS_PLATFORM", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("signature mismatch", func(t *testing.T) {
		env := envelope.Magic + "::tampered"
		body, ct := multipartFile(t, "file", "scan.pdf.medsecure", []byte(env))
		mockSvc.On("Decrypt", mock.Anything, mock.Anything, env).
			Return(nil, envelope.ErrSignatureMismatch).Once()

		req := httptest.NewRequest(http.MethodPost, "/files/decrypt", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "SIGNATURE_MISMATCH", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestPresignVaultURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := testApp(authorizedIdentity(), func(r fiber.Router) {
		r.Get("/vault/:key/url", PresignVaultURL(mockSvc))
	})

	t.Run("success prepends vault prefix", func(t *testing.T) {
		name := uuid.NewString() + ".medsecure"
		mockSvc.On("PresignDownload", mock.Anything, mock.Anything, "vault/"+name).
			Return("https://minio.local/presigned", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/vault/"+name+"/url", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result presignResponse
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "https://minio.local/presigned", result.URL)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown key", func(t *testing.T) {
		mockSvc.On("PresignDownload", mock.Anything, mock.Anything, mock.Anything).
			Return("", service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/vault/nope/url", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestAnalyzeFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockAnalysisService)
	app := testApp(authorizedIdentity(), func(r fiber.Router) {
		r.Post("/analysis", AnalyzeFile(mockSvc))
	})

	t.Run("success", func(t *testing.T) {
		body, ct := multipartFile(t, "file", "scan.pdf", []byte("pdf"))
		mockSvc.On("Analyze", mock.Anything, mock.Anything, []byte("pdf"), "scan.pdf", mock.Anything).
			Return(&service.AnalysisResult{Status: "completed", RiskLevel: "low"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/analysis", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.AnalysisResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "completed", result.Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not configured", func(t *testing.T) {
		body, ct := multipartFile(t, "file", "scan.pdf", []byte("pdf"))
		mockSvc.On("Analyze", mock.Anything, mock.Anything, mock.Anything, "scan.pdf", mock.Anything).
			Return(nil, service.ErrAnalysisDisabled).Once()

		req := httptest.NewRequest(http.MethodPost, "/analysis", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "ANALYSIS_DISABLED", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestListUsers(t *testing.T) {
	mockSvc := new(serviceMocks.MockAccessService)
	app := testApp(adminIdentity(), func(r fiber.Router) {
		r.Get("/users", ListUsers(mockSvc))
	})

	t.Run("success", func(t *testing.T) {
		expected := &service.UserListResult{
			Items: []model.User{{ID: uuid.NewString(), Email: "doc@clinic.example", Role: model.RoleUser}},
			Total: 1,
		}
		mockSvc.On("ListUsers", mock.Anything, mock.Anything, 10, 0).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.UserListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("non-admin", func(t *testing.T) {
		mockSvc.On("ListUsers", mock.Anything, mock.Anything, 10, 0).
			Return(nil, service.ErrAccessDenied).Once()

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestSetUserRole(t *testing.T) {
	mockSvc := new(serviceMocks.MockAccessService)
	app := testApp(adminIdentity(), func(r fiber.Router) {
		r.Put("/users/:id/role", SetUserRole(mockSvc))
	})

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("SetRole", mock.Anything, mock.Anything, id, model.RoleAuthorized).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/users/"+id+"/role", strings.NewReader(`{"role":"authorized"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/users/not-a-uuid/role", strings.NewReader(`{"role":"admin"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid role", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("SetRole", mock.Anything, mock.Anything, id, model.Role("owner")).
			Return(service.ErrInvalidRole).Once()

		req := httptest.NewRequest(http.MethodPut, "/users/"+id+"/role", strings.NewReader(`{"role":"owner"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ROLE", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("SetRole", mock.Anything, mock.Anything, id, model.RoleAdmin).
			Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodPut, "/users/"+id+"/role", strings.NewReader(`{"role":"admin"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestSubmitRequest(t *testing.T) {
	mockSvc := new(serviceMocks.MockAccessService)
	identity := authorizedIdentity()
	app := testApp(identity, func(r fiber.Router) {
		r.Post("/requests", SubmitRequest(mockSvc))
	})

	t.Run("success", func(t *testing.T) {
		expected := &model.AuthorizationRequest{
			ID:     uuid.NewString(),
			UserID: identity.UserID,
			Status: model.StatusPending,
		}
		mockSvc.On("SubmitRequest", mock.Anything, mock.Anything, "need vault access", "treating patient X").
			Return(expected, nil).Once()

		body := `{"description":"need vault access","reason":"treating patient X"}`
		req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.AuthorizationRequest
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		assert.Equal(t, model.StatusPending, result.Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing reason", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(`{"description":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "REASON_REQUIRED", decodeError(t, resp).Error.Code)
	})
}

func TestDecideRequest(t *testing.T) {
	mockSvc := new(serviceMocks.MockAccessService)
	app := testApp(adminIdentity(), func(r fiber.Router) {
		r.Post("/requests/:id/decision", DecideRequest(mockSvc))
	})

	t.Run("approve", func(t *testing.T) {
		id := uuid.NewString()
		expected := &model.AuthorizationRequest{ID: id, Status: model.StatusApproved}
		mockSvc.On("DecideRequest", mock.Anything, mock.Anything, id, model.StatusApproved).
			Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/requests/"+id+"/decision", strings.NewReader(`{"decision":"approved"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.AuthorizationRequest
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, model.StatusApproved, result.Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("already decided", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("DecideRequest", mock.Anything, mock.Anything, id, model.StatusRejected).
			Return(nil, service.ErrAlreadyDecided).Once()

		req := httptest.NewRequest(http.MethodPost, "/requests/"+id+"/decision", strings.NewReader(`{"decision":"rejected"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "ALREADY_DECIDED", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid decision", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("DecideRequest", mock.Anything, mock.Anything, id, model.RequestStatus("maybe")).
			Return(nil, service.ErrInvalidDecision).Once()

		req := httptest.NewRequest(http.MethodPost, "/requests/"+id+"/decision", strings.NewReader(`{"decision":"maybe"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_DECISION", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestListAudit(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuditService)
	app := testApp(adminIdentity(), func(r fiber.Router) {
		r.Get("/audit", ListAudit(mockSvc))
	})

	t.Run("success", func(t *testing.T) {
		expected := &service.AuditListResult{
			Items: []model.AuditEntry{{ID: uuid.NewString(), Action: "File encrypted: scan.pdf"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, mock.Anything, 10, 0).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/audit", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.AuditListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("non-admin", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.Anything, 10, 0).
			Return(nil, service.ErrAccessDenied).Once()

		req := httptest.NewRequest(http.MethodGet, "/audit", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	svcs := Services{
		Files:    new(serviceMocks.MockFileService),
		Access:   new(serviceMocks.MockAccessService),
		Audit:    new(serviceMocks.MockAuditService),
		Analysis: new(serviceMocks.MockAnalysisService),
	}
	RegisterRoutes(app, svcs)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/audit", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})
}
