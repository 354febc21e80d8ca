package mocks

import (
	"context"

	"github.com/dukex/formflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockCRM is a mock implementation of models.CRM interface.
type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) Query(ctx context.Context, soql string) ([]map[string]any, error) {
	args := m.Called(ctx, soql)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]map[string]any), args.Error(1)
}

func (m *MockCRM) CreateRecord(ctx context.Context, object string, payload map[string]any) (string, error) {
	args := m.Called(ctx, object, payload)

	return args.String(0), args.Error(1)
}

func (m *MockCRM) UpdateRecord(ctx context.Context, object, id string, payload map[string]any) error {
	args := m.Called(ctx, object, id, payload)

	return args.Error(0)
}

func (m *MockCRM) BatchUpdate(ctx context.Context, object string, ids []string, payload map[string]any) models.BatchResult {
	args := m.Called(ctx, object, ids, payload)

	return args.Get(0).(models.BatchResult)
}
