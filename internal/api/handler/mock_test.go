package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/labdeploy/internal/model"
)

// mockDeploymentService implements DeploymentService for handler tests.
type mockDeploymentService struct {
	mock.Mock
}

func (m *mockDeploymentService) Submit(ctx context.Context, difficulty string) (string, error) {
	args := m.Called(ctx, difficulty)
	return args.String(0), args.Error(1)
}

func (m *mockDeploymentService) ListRecent(ctx context.Context) ([]model.Deployment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Deployment), args.Error(1)
}

func (m *mockDeploymentService) Get(ctx context.Context, id string) (*model.Deployment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deployment), args.Error(1)
}
