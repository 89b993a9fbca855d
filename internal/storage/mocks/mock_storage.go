package mocks

import (
	"context"
	"io"
	"time"

	"medsecure/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockVault struct {
	mock.Mock
}

func (m *MockVault) Put(ctx context.Context, key string, r io.Reader, size int64, metadata map[string]string) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, size, metadata)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockVault) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockVault) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockVault) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
