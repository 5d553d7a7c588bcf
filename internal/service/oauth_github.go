package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/haatos/gitbridge/internal/settings"
)

const githubDefaultBaseURL = "https://github.com"

// GitHubProvider exchanges authorization codes with GitHub's OAuth app flow.
// Pass an empty baseURL to use the real GitHub endpoints.
type GitHubProvider struct {
	client             settings.OAuthClient
	baseURL            string
	defaultRedirectURI string
	http               *http.Client
}

func NewGitHubProvider(client settings.OAuthClient, baseURL, defaultRedirectURI string) *GitHubProvider {
	if baseURL == "" {
		baseURL = githubDefaultBaseURL
	}
	return &GitHubProvider{
		client:             client,
		baseURL:            baseURL,
		defaultRedirectURI: defaultRedirectURI,
		http:               newProviderHTTPClient(),
	}
}

func (p *GitHubProvider) Name() string {
	return ProviderNameGitHub
}

func (p *GitHubProvider) ExchangeCode(
	ctx context.Context,
	code, redirectURI string,
) (*OAuthToken, error) {
	if !p.client.Configured() {
		return nil, notConfigured("GitHub")
	}
	if redirectURI == "" {
		redirectURI = p.defaultRedirectURI
	}

	endpoint, err := url.JoinPath(p.baseURL, "/login/oauth/access_token")
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}
	body, err := json.Marshal(map[string]string{
		"client_id":     p.client.ClientID,
		"client_secret": p.client.ClientSecret,
		"code":          code,
		"redirect_uri":  redirectURI,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Provider: ProviderNameGitHub,
			Message:  "Failed to reach GitHub",
			Details:  err.Error(),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	raw, err := readProviderBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	var data struct {
		AccessToken      string `json:"access_token"`
		TokenType        string `json:"token_type"`
		Scope            string `json:"scope"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &ProviderError{
			Provider: ProviderNameGitHub,
			Message:  "Invalid response from GitHub",
			Details:  string(raw),
			Err:      err,
		}
	}

	if data.Error != "" {
		message := data.ErrorDescription
		if message == "" {
			message = data.Error
		}
		return nil, &ProviderError{
			Provider: ProviderNameGitHub,
			Message:  message,
			Rejected: true,
		}
	}
	if resp.StatusCode >= 300 || data.AccessToken == "" {
		return nil, &ProviderError{
			Provider: ProviderNameGitHub,
			Message:  "Failed to exchange code for token",
			Details:  string(raw),
			Rejected: true,
		}
	}

	return &OAuthToken{
		AccessToken: data.AccessToken,
		TokenType:   data.TokenType,
		Scope:       data.Scope,
	}, nil
}

func (p *GitHubProvider) AuthorizeURL(redirectURI, state string) (string, error) {
	if !p.client.Configured() {
		return "", notConfigured("GitHub")
	}
	if redirectURI == "" {
		redirectURI = p.defaultRedirectURI
	}
	endpoint, err := url.JoinPath(p.baseURL, "/login/oauth/authorize")
	if err != nil {
		return "", fmt.Errorf("building URL: %w", err)
	}
	q := url.Values{}
	q.Set("client_id", p.client.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", "repo")
	q.Set("state", state)
	return endpoint + "?" + q.Encode(), nil
}
