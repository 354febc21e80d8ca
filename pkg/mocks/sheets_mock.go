package mocks

import (
	"context"

	"github.com/dukex/formflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockSheetsOpener is a mock implementation of models.SheetsOpener interface.
type MockSheetsOpener struct {
	mock.Mock
}

func (m *MockSheetsOpener) Open(ctx context.Context) (models.SheetClient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(models.SheetClient), args.Error(1)
}

// MockSheetClient is a mock implementation of models.SheetClient interface.
type MockSheetClient struct {
	mock.Mock
}

func (m *MockSheetClient) Rows(ctx context.Context, spreadsheetID, sheet string) ([][]string, error) {
	args := m.Called(ctx, spreadsheetID, sheet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([][]string), args.Error(1)
}

func (m *MockSheetClient) WriteHeader(ctx context.Context, spreadsheetID, sheet string, header []string) error {
	args := m.Called(ctx, spreadsheetID, sheet, header)

	return args.Error(0)
}

func (m *MockSheetClient) UpdateRow(ctx context.Context, spreadsheetID, sheet string, row int, values []string) error {
	args := m.Called(ctx, spreadsheetID, sheet, row, values)

	return args.Error(0)
}

func (m *MockSheetClient) AppendRow(ctx context.Context, spreadsheetID, sheet string, values []string) error {
	args := m.Called(ctx, spreadsheetID, sheet, values)

	return args.Error(0)
}
