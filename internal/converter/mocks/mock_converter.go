package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockDocxConverter struct {
	mock.Mock
}

func (m *MockDocxConverter) ToDocx(ctx context.Context, pdfPath, outPath string) error {
	args := m.Called(ctx, pdfPath, outPath)
	if f, ok := args.Get(0).(func(context.Context, string, string) error); ok {
		return f(ctx, pdfPath, outPath)
	}
	return args.Error(0)
}

type MockImageRenderer struct {
	mock.Mock
}

func (m *MockImageRenderer) RenderPages(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	args := m.Called(ctx, pdfPath, outDir)
	if f, ok := args.Get(0).(func(context.Context, string, string) ([]string, error)); ok {
		return f(ctx, pdfPath, outDir)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) ExtractText(ctx context.Context, pdfPath, outPath string) error {
	args := m.Called(ctx, pdfPath, outPath)
	if f, ok := args.Get(0).(func(context.Context, string, string) error); ok {
		return f(ctx, pdfPath, outPath)
	}
	return args.Error(0)
}
