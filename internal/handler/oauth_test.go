package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/haatos/gitbridge/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type oauthMocks struct {
	oauth  *testutil.MockOAuthService
	cookie *testutil.MockOAuthStateStore
	uuid   *testutil.MockUUIDGen
}

func newOAuthTestEcho() (*echo.Echo, oauthMocks) {
	m := oauthMocks{
		oauth:  new(testutil.MockOAuthService),
		cookie: new(testutil.MockOAuthStateStore),
		uuid:   new(testutil.MockUUIDGen),
	}
	e := newTestEcho()
	SetupOAuthRoutes(e, newAPIGroup(e), m.oauth, m.cookie, m.uuid)
	return e, m
}

func TestOAuthHandler_PostExchangeCode(t *testing.T) {
	t.Run("success - token is returned as issued", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.oauth.On("ExchangeCode", mock.Anything, service.ProviderNameGitHub, "abc", "").
			Return(&service.OAuthToken{AccessToken: "gho_123", TokenType: "bearer", Scope: "repo"}, nil)

		// act
		rec := doJSON(e, http.MethodPost, "/api/github/exchange-code", map[string]string{
			"code": "abc",
		}, "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "gho_123", body["access_token"])
		assert.Equal(t, "bearer", body["token_type"])
		assert.Equal(t, "repo", body["scope"])
		m.oauth.AssertExpectations(t)
	})
	t.Run("success - bitbucket route uses bitbucket provider", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.oauth.On(
			"ExchangeCode",
			mock.Anything,
			service.ProviderNameBitbucket,
			"abc",
			"http://localhost:3000/git",
		).Return(&service.OAuthToken{AccessToken: "bb_123"}, nil)

		// act
		rec := doJSON(e, http.MethodPost, "/api/bitbucket/exchange-code", map[string]string{
			"code":         "abc",
			"redirect_uri": "http://localhost:3000/git",
		}, "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bb_123", decodeBody(t, rec)["access_token"])
		m.oauth.AssertExpectations(t)
	})
	t.Run("failure - missing code", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.oauth.On("ExchangeCode", mock.Anything, service.ProviderNameGitHub, "", "").
			Return(nil, service.NewValidationError("Authorization code is required"))

		// act
		rec := doJSON(e, http.MethodPost, "/api/github/exchange-code", map[string]string{}, "")

		// assert
		assertErrorBody(t, rec, http.StatusBadRequest, "Authorization code is required")
	})
	t.Run("failure - provider rejects code", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.oauth.On("ExchangeCode", mock.Anything, service.ProviderNameBitbucket, "stale", "").
			Return(nil, &service.ProviderError{
				Provider: service.ProviderNameBitbucket,
				Message:  "Failed to exchange code for token",
				Details:  `{"error":"invalid_grant"}`,
				Rejected: true,
			})

		// act
		rec := doJSON(e, http.MethodPost, "/api/bitbucket/exchange-code", map[string]string{
			"code": "stale",
		}, "")

		// assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Failed to exchange code for token", body["error"])
		assert.Equal(t, `{"error":"invalid_grant"}`, body["details"])
	})
	t.Run("failure - provider unreachable", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.oauth.On("ExchangeCode", mock.Anything, service.ProviderNameGitHub, "abc", "").
			Return(nil, &service.ProviderError{
				Provider: service.ProviderNameGitHub,
				Message:  "Failed to reach GitHub",
			})

		// act
		rec := doJSON(e, http.MethodPost, "/api/github/exchange-code", map[string]string{
			"code": "abc",
		}, "")

		// assert
		assertErrorBody(t, rec, http.StatusInternalServerError, "Failed to reach GitHub")
	})
	t.Run("failure - credentials not configured", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.oauth.On("ExchangeCode", mock.Anything, service.ProviderNameGitHub, "abc", "").
			Return(nil, fmt.Errorf("GitHub %w", service.ErrProviderNotConfigured))

		// act
		rec := doJSON(e, http.MethodPost, "/api/github/exchange-code", map[string]string{
			"code": "abc",
		}, "")

		// assert
		assertErrorBody(
			t,
			rec,
			http.StatusInternalServerError,
			"GitHub OAuth credentials not configured",
		)
	})
}

func TestOAuthHandler_GetAuthorize(t *testing.T) {
	t.Run("success - state is stored and browser is redirected", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		authorizeURL := "https://github.com/login/oauth/authorize?client_id=gh&state=state-1"
		m.uuid.On("GenerateUUID").Return("state-1")
		m.oauth.On("AuthorizeURL", service.ProviderNameGitHub, "", "state-1").
			Return(authorizeURL, nil)
		m.cookie.On("SetOAuthState", mock.Anything, service.ProviderNameGitHub, "state-1").
			Return(nil)

		// act
		rec := doJSON(e, http.MethodGet, "/api/github/authorize", nil, "")

		// assert
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, authorizeURL, rec.Header().Get(echo.HeaderLocation))
		m.cookie.AssertExpectations(t)
	})
	t.Run("failure - provider not configured", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.uuid.On("GenerateUUID").Return("state-1")
		m.oauth.On("AuthorizeURL", service.ProviderNameBitbucket, "", "state-1").
			Return("", fmt.Errorf("Bitbucket %w", service.ErrProviderNotConfigured))

		// act
		rec := doJSON(e, http.MethodGet, "/api/bitbucket/authorize", nil, "")

		// assert
		assertErrorBody(
			t,
			rec,
			http.StatusInternalServerError,
			"Bitbucket OAuth credentials not configured",
		)
		m.cookie.AssertNotCalled(t, "SetOAuthState")
	})
}

func TestOAuthHandler_GetOAuthCallback(t *testing.T) {
	t.Run("success - code is posted to the opener", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.cookie.On("GetOAuthState", mock.Anything).
			Return(service.ProviderNameGitHub, "state-1", nil)
		m.cookie.On("RemoveOAuthState", mock.Anything).Return()

		// act
		rec := doJSON(e, http.MethodGet, "/git?code=abc&state=state-1", nil, "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Authentication Successful")
		assert.Contains(t, body, `{"type":"oauth_success","code":"abc"}`)
		m.cookie.AssertExpectations(t)
	})
	t.Run("success - code without state is accepted", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()

		// act
		rec := doJSON(e, http.MethodGet, "/git?code=abc", nil, "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"type":"oauth_success"`)
		m.cookie.AssertNotCalled(t, "GetOAuthState", mock.Anything)
	})
	t.Run("failure - state does not match", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.cookie.On("GetOAuthState", mock.Anything).
			Return(service.ProviderNameGitHub, "state-1", nil)
		m.cookie.On("RemoveOAuthState", mock.Anything).Return()

		// act
		rec := doJSON(e, http.MethodGet, "/git?code=abc&state=forged", nil, "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "OAuth state mismatch")
		assert.NotContains(t, body, `"code":"abc"`)
	})
	t.Run("failure - provider reports an error", func(t *testing.T) {
		// arrange
		e, m := newOAuthTestEcho()
		m.cookie.On("RemoveOAuthState", mock.Anything).Return()

		// act
		rec := doJSON(
			e,
			http.MethodGet,
			"/git?error=access_denied&error_description=User+denied+access",
			nil,
			"",
		)

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Error: User denied access")
		assert.Contains(t, body, `"type":"oauth_error"`)
		m.cookie.AssertExpectations(t)
	})
	t.Run("success - no code received", func(t *testing.T) {
		// arrange
		e, _ := newOAuthTestEcho()

		// act
		rec := doJSON(e, http.MethodGet, "/git", nil, "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "No authorization code received.")
		assert.NotContains(t, body, "<script>")
	})
}
