package testutil

import (
	"context"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
)

type MockOAuthService struct {
	mock.Mock
}

func (m *MockOAuthService) ExchangeCode(
	ctx context.Context,
	provider, code, redirectURI string,
) (*service.OAuthToken, error) {
	args := m.Called(ctx, provider, code, redirectURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OAuthToken), nil
}

func (m *MockOAuthService) AuthorizeURL(provider, redirectURI, state string) (string, error) {
	args := m.Called(provider, redirectURI, state)
	return args.String(0), args.Error(1)
}

type MockOAuthStateStore struct {
	mock.Mock
}

func (m *MockOAuthStateStore) SetOAuthState(c echo.Context, provider, state string) error {
	args := m.Called(c, provider, state)
	return args.Error(0)
}

func (m *MockOAuthStateStore) GetOAuthState(c echo.Context) (string, string, error) {
	args := m.Called(c)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockOAuthStateStore) RemoveOAuthState(c echo.Context) {
	m.Called(c)
}

type MockUUIDGen struct {
	mock.Mock
}

func (m *MockUUIDGen) GenerateUUID() string {
	args := m.Called()
	return args.String(0)
}
