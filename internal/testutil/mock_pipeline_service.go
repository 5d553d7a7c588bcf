package testutil

import (
	"context"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) Trigger(
	ctx context.Context,
	userID string,
	req service.TriggerRequest,
) (*service.PipelineRun, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PipelineRun), nil
}

type MockRepositoryStatusReceiver struct {
	mock.Mock
}

func (m *MockRepositoryStatusReceiver) ReceiveRepositoryStatus(
	ctx context.Context,
	status service.RepositoryStatus,
) (*service.RepositoryEvent, int, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*service.RepositoryEvent), args.Int(1), nil
}
