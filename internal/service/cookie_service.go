package service

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/haatos/gitbridge/internal"
	"github.com/haatos/gitbridge/internal/settings"
	"github.com/labstack/echo/v4"
)

type CookieService struct {
	s      *securecookie.SecureCookie
	domain string
	secure bool
	ttl    time.Duration
}

func NewCookieService(hashKey, blockKey []byte, appSettings *settings.AppSettings) *CookieService {
	cs := &CookieService{
		s:      securecookie.New(hashKey, blockKey),
		secure: appSettings.Domain != "localhost",
		ttl:    appSettings.StateCookieTTL,
	}
	if cs.secure {
		cs.domain = appSettings.Domain
	}
	cs.s.MaxAge(int(cs.ttl.Seconds()))
	return cs
}

// GetOAuthState returns the provider and state stored by SetOAuthState.
func (cs *CookieService) GetOAuthState(c echo.Context) (string, string, error) {
	cookie, err := c.Cookie(internal.OAuthStateCookie)
	if err != nil {
		return "", "", err
	}
	values := make(map[string]string)
	if err := cs.s.Decode(internal.OAuthStateCookie, cookie.Value, &values); err != nil {
		return "", "", err
	}
	return values["provider"], values["state"], nil
}

func (cs *CookieService) SetOAuthState(c echo.Context, provider, state string) error {
	return cs.setCookie(
		c,
		internal.OAuthStateCookie,
		map[string]string{"provider": provider, "state": state},
		"/",
		time.Now().UTC().Add(cs.ttl),
	)
}

func (cs *CookieService) RemoveOAuthState(c echo.Context) {
	cookie := &http.Cookie{
		Name:     internal.OAuthStateCookie,
		Value:    "",
		Path:     "/",
		Secure:   cs.secure,
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Domain:   cs.domain,
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)
}

func (cs *CookieService) setCookie(
	c echo.Context,
	name string,
	values map[string]string,
	path string,
	expires time.Time,
) error {
	encoded, err := cs.s.Encode(name, values)
	if err != nil {
		return err
	}
	cookie := &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     path,
		Secure:   cs.secure,
		HttpOnly: true,
		Expires:  expires,
		Domain:   cs.domain,
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)
	return nil
}
