package testutil

import (
	"context"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/haatos/gitbridge/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockSSHKeyService struct {
	mock.Mock
}

func (m *MockSSHKeyService) CreateSSHKey(
	ctx context.Context,
	userID string,
	nk service.NewSSHKey,
) (*store.SSHKey, error) {
	args := m.Called(ctx, userID, nk)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SSHKey), nil
}

func (m *MockSSHKeyService) UpdateSSHKey(
	ctx context.Context,
	id int64,
	userID string,
	u service.SSHKeyUpdate,
) (*store.SSHKey, error) {
	args := m.Called(ctx, id, userID, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SSHKey), nil
}

func (m *MockSSHKeyService) DeleteSSHKey(ctx context.Context, id int64, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockSSHKeyService) GetSSHKey(
	ctx context.Context,
	id int64,
	userID string,
	includePrivateKey bool,
) (*store.SSHKey, error) {
	args := m.Called(ctx, id, userID, includePrivateKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SSHKey), nil
}

func (m *MockSSHKeyService) ListSSHKeys(ctx context.Context, userID string) ([]*store.SSHKey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.SSHKey), nil
}
