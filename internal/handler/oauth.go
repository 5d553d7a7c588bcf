package handler

import (
	"context"
	"net/http"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/haatos/gitbridge/internal/views"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func SetupOAuthRoutes(
	e *echo.Echo,
	g *echo.Group,
	oauthService OAuthServicer,
	cookieService OAuthStateStore,
	uuidGenerator service.UUIDGenerator,
) {
	h := NewOAuthHandler(oauthService, cookieService, uuidGenerator)
	for _, provider := range []string{service.ProviderNameGitHub, service.ProviderNameBitbucket} {
		g.POST("/"+provider+"/exchange-code", h.PostExchangeCode(provider))
		g.GET("/"+provider+"/authorize", h.GetAuthorize(provider))
	}
	e.GET("/git", h.GetOAuthCallback)
}

type OAuthServicer interface {
	ExchangeCode(ctx context.Context, provider, code, redirectURI string) (*service.OAuthToken, error)
	AuthorizeURL(provider, redirectURI, state string) (string, error)
}

type OAuthStateStore interface {
	SetOAuthState(c echo.Context, provider, state string) error
	GetOAuthState(c echo.Context) (string, string, error)
	RemoveOAuthState(c echo.Context)
}

type OAuthHandler struct {
	oauthService  OAuthServicer
	cookieService OAuthStateStore
	uuidGenerator service.UUIDGenerator
}

func NewOAuthHandler(
	oauthService OAuthServicer,
	cookieService OAuthStateStore,
	uuidGenerator service.UUIDGenerator,
) *OAuthHandler {
	return &OAuthHandler{oauthService, cookieService, uuidGenerator}
}

// PostExchangeCode trades an authorization code for an access token. The
// token is passed through to the caller as returned by the provider.
func (h *OAuthHandler) PostExchangeCode(provider string) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := new(ExchangeCodeParams)
		if err := c.Bind(p); err != nil {
			return newError(c, err, http.StatusBadRequest, "Invalid code exchange data")
		}

		token, err := h.oauthService.ExchangeCode(
			c.Request().Context(),
			provider,
			p.Code,
			p.RedirectURI,
		)
		if err != nil {
			return serviceError(c, err, "")
		}
		return c.JSON(http.StatusOK, token)
	}
}

// GetAuthorize redirects the browser to the provider's consent page with a
// fresh state that is verified again on the way back.
func (h *OAuthHandler) GetAuthorize(provider string) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := new(AuthorizeParams)
		if err := c.Bind(p); err != nil {
			return newError(c, err, http.StatusBadRequest, "Invalid authorize request")
		}

		state := h.uuidGenerator.GenerateUUID()
		authorizeURL, err := h.oauthService.AuthorizeURL(provider, p.RedirectURI, state)
		if err != nil {
			return serviceError(c, err, "")
		}
		if err := h.cookieService.SetOAuthState(c, provider, state); err != nil {
			return newError(c, err, http.StatusInternalServerError, messageUnexpected)
		}
		return c.Redirect(http.StatusFound, authorizeURL)
	}
}

func (h *OAuthHandler) GetOAuthCallback(c echo.Context) error {
	p := new(OAuthCallbackParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "Invalid OAuth callback")
	}
	log.Info().
		Bool("code", p.Code != "").
		Bool("error", p.Error != "").
		Bool("state", p.State != "").
		Msg("oauth callback received")

	if p.Error != "" {
		reason := p.Error
		if p.ErrorDescription != "" {
			reason = p.ErrorDescription
		}
		h.cookieService.RemoveOAuthState(c)
		return render(c, views.OAuthCallbackPage(views.OAuthError(reason)))
	}
	if p.Code == "" {
		return render(c, views.OAuthCallbackPage(views.OAuthNoCode()))
	}

	if p.State != "" {
		if _, expected, err := h.cookieService.GetOAuthState(c); err == nil {
			h.cookieService.RemoveOAuthState(c)
			if expected != p.State {
				log.Warn().Msg("oauth state mismatch")
				return render(c, views.OAuthCallbackPage(views.OAuthError("OAuth state mismatch")))
			}
		}
	}
	return render(c, views.OAuthCallbackPage(views.OAuthSuccess(p.Code)))
}
