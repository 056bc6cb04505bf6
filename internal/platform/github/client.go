// Package github provides authenticated GitHub API clients.
package github

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v68/github"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const publicAPIURL = "https://api.github.com"

// NewClient creates a GitHub API client authenticated with a token
// (typically the workflow's GITHUB_TOKEN). apiURL selects a GitHub
// Enterprise Server instance; empty means github.com.
func NewClient(token, apiURL string) (*gogithub.Client, error) {
	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	client := gogithub.NewClient(httpClient).WithAuthToken(token)
	return withAPIURL(client, apiURL)
}

// NewAppClient creates a GitHub API client authenticated as a GitHub App installation.
// The ghinstallation transport automatically handles token renewal.
func NewAppClient(appID, installationID int64, privateKeyPEM, apiURL string) (*gogithub.Client, error) {
	transport, err := ghinstallation.New(http.DefaultTransport, appID, installationID, []byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("creating github installation transport: %w", err)
	}
	if isEnterprise(apiURL) {
		transport.BaseURL = strings.TrimRight(apiURL, "/")
	}

	httpClient := &http.Client{Transport: otelhttp.NewTransport(transport)}
	return withAPIURL(gogithub.NewClient(httpClient), apiURL)
}

func withAPIURL(client *gogithub.Client, apiURL string) (*gogithub.Client, error) {
	if !isEnterprise(apiURL) {
		return client, nil
	}
	base := strings.TrimRight(apiURL, "/") + "/"
	c, err := client.WithEnterpriseURLs(base, base)
	if err != nil {
		return nil, fmt.Errorf("configuring enterprise URL %q: %w", apiURL, err)
	}
	return c, nil
}

func isEnterprise(apiURL string) bool {
	return apiURL != "" && strings.TrimRight(apiURL, "/") != publicAPIURL
}
