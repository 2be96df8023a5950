package mocks

import (
	"context"
	"io"
	"time"

	"pdfconv/internal/model"
	"pdfconv/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	args := m.Called(ctx, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockConversionService) List(ctx context.Context, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockConversionService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockConversionService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockConversionService) Convert(ctx context.Context, id string, format model.Format) (*model.Artifact, io.ReadCloser, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var body io.ReadCloser
	if rc, ok := args.Get(1).(io.ReadCloser); ok {
		body = rc
	}
	return args.Get(0).(*model.Artifact), body, args.Error(2)
}

func (m *MockConversionService) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}
