package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mdshare/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) UploadBatch(ctx context.Context, files []service.UploadItem, origin string) (*service.BatchResult, error) {
	args := m.Called(ctx, files, origin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchResult), args.Error(1)
}

func (m *MockDocumentService) Resolve(ctx context.Context, shareToken string) (*service.ResolvedDocument, error) {
	args := m.Called(ctx, shareToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResolvedDocument), args.Error(1)
}
