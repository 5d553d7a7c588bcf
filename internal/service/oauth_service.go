package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haatos/gitbridge/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	ProviderNameGitHub    = "github"
	ProviderNameBitbucket = "bitbucket"

	maxProviderResponseBytes = 1 << 20
)

type OAuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

type OAuthProvider interface {
	Name() string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*OAuthToken, error)
	AuthorizeURL(redirectURI, state string) (string, error)
}

// OAuthService routes code exchanges to the named provider. Tokens are
// returned to the caller and never stored.
type OAuthService struct {
	providers map[string]OAuthProvider
	logger    zerolog.Logger
}

func NewOAuthService(logger zerolog.Logger, providers ...OAuthProvider) *OAuthService {
	s := &OAuthService{
		providers: make(map[string]OAuthProvider, len(providers)),
		logger:    logger.With().Str("component", "oauth").Logger(),
	}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	return s
}

func (s *OAuthService) provider(name string) (OAuthProvider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

func (s *OAuthService) ExchangeCode(
	ctx context.Context,
	provider, code, redirectURI string,
) (*OAuthToken, error) {
	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, NewValidationError("Authorization code is required")
	}

	token, err := p.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		outcome := metrics.OutcomeFailure
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Rejected {
			outcome = metrics.OutcomeRejected
		}
		metrics.OAuthExchanges.WithLabelValues(provider, outcome).Inc()
		s.logger.Warn().Err(err).Str("provider", provider).Msg("code exchange failed")
		return nil, err
	}

	metrics.OAuthExchanges.WithLabelValues(provider, metrics.OutcomeSuccess).Inc()
	s.logger.Info().Str("provider", provider).Msg("code exchanged for token")
	return token, nil
}

func (s *OAuthService) AuthorizeURL(provider, redirectURI, state string) (string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	return p.AuthorizeURL(redirectURI, state)
}

func newProviderHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

func readProviderBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxProviderResponseBytes))
}

func notConfigured(displayName string) error {
	return fmt.Errorf("%s %w", displayName, ErrProviderNotConfigured)
}
