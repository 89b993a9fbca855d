package mocks

import (
	"context"

	"medsecure/internal/envelope"
	"medsecure/internal/model"
	"medsecure/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Encrypt(ctx context.Context, actor model.Identity, data []byte, fileName, mimeType string) (*service.EncryptResult, error) {
	args := m.Called(ctx, actor, data, fileName, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EncryptResult), args.Error(1)
}

func (m *MockFileService) Decrypt(ctx context.Context, actor model.Identity, env string) (*envelope.DecodedFile, error) {
	args := m.Called(ctx, actor, env)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelope.DecodedFile), args.Error(1)
}

func (m *MockFileService) DecryptVaultKey(ctx context.Context, actor model.Identity, key string) (*envelope.DecodedFile, error) {
	args := m.Called(ctx, actor, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelope.DecodedFile), args.Error(1)
}

func (m *MockFileService) PresignDownload(ctx context.Context, actor model.Identity, key string) (string, error) {
	args := m.Called(ctx, actor, key)
	return args.String(0), args.Error(1)
}

type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) SubmitRequest(ctx context.Context, actor model.Identity, description, reason string) (*model.AuthorizationRequest, error) {
	args := m.Called(ctx, actor, description, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthorizationRequest), args.Error(1)
}

func (m *MockAccessService) ListRequests(ctx context.Context, actor model.Identity, limit, offset int) (*service.RequestListResult, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RequestListResult), args.Error(1)
}

func (m *MockAccessService) DecideRequest(ctx context.Context, actor model.Identity, requestID string, decision model.RequestStatus) (*model.AuthorizationRequest, error) {
	args := m.Called(ctx, actor, requestID, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthorizationRequest), args.Error(1)
}

func (m *MockAccessService) ListUsers(ctx context.Context, actor model.Identity, limit, offset int) (*service.UserListResult, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserListResult), args.Error(1)
}

func (m *MockAccessService) SetRole(ctx context.Context, actor model.Identity, userID string, role model.Role) error {
	args := m.Called(ctx, actor, userID, role)
	return args.Error(0)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, actorID *string, action string, details map[string]any) {
	m.Called(ctx, actorID, action, details)
}

func (m *MockAuditService) List(ctx context.Context, actor model.Identity, limit, offset int) (*service.AuditListResult, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuditListResult), args.Error(1)
}

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, actor model.Identity, data []byte, fileName, mimeType string) (*service.AnalysisResult, error) {
	args := m.Called(ctx, actor, data, fileName, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisResult), args.Error(1)
}
