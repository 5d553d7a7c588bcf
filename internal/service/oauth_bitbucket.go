package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/haatos/gitbridge/internal/settings"
)

const bitbucketDefaultBaseURL = "https://bitbucket.org"

// BitbucketProvider exchanges authorization codes with a Bitbucket OAuth
// consumer. Pass an empty baseURL to use the real Bitbucket endpoints.
type BitbucketProvider struct {
	client  settings.OAuthClient
	baseURL string
	http    *http.Client
}

func NewBitbucketProvider(client settings.OAuthClient, baseURL string) *BitbucketProvider {
	if baseURL == "" {
		baseURL = bitbucketDefaultBaseURL
	}
	return &BitbucketProvider{
		client:  client,
		baseURL: baseURL,
		http:    newProviderHTTPClient(),
	}
}

func (p *BitbucketProvider) Name() string {
	return ProviderNameBitbucket
}

func (p *BitbucketProvider) ExchangeCode(
	ctx context.Context,
	code, redirectURI string,
) (*OAuthToken, error) {
	if !p.client.Configured() {
		return nil, notConfigured("Bitbucket")
	}

	endpoint, err := url.JoinPath(p.baseURL, "/site/oauth2/access_token")
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	if redirectURI != "" {
		data.Set("redirect_uri", redirectURI)
	}
	data.Set("client_id", p.client.ClientID)
	data.Set("client_secret", p.client.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Provider: ProviderNameBitbucket,
			Message:  "Failed to reach Bitbucket",
			Details:  err.Error(),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	raw, err := readProviderBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Provider: ProviderNameBitbucket,
			Message:  "Failed to exchange code for token",
			Details:  string(raw),
			Rejected: true,
		}
	}

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Scopes      string `json:"scopes"`
	}
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, &ProviderError{
			Provider: ProviderNameBitbucket,
			Message:  "Invalid response from Bitbucket",
			Details:  string(raw),
			Err:      err,
		}
	}
	return &OAuthToken{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Scope:       token.Scopes,
	}, nil
}

func (p *BitbucketProvider) AuthorizeURL(redirectURI, state string) (string, error) {
	if !p.client.Configured() {
		return "", notConfigured("Bitbucket")
	}
	endpoint, err := url.JoinPath(p.baseURL, "/site/oauth2/authorize")
	if err != nil {
		return "", fmt.Errorf("building URL: %w", err)
	}
	q := url.Values{}
	q.Set("client_id", p.client.ClientID)
	q.Set("response_type", "code")
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}
	q.Set("state", state)
	return endpoint + "?" + q.Encode(), nil
}
