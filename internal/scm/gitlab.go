package scm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gitlab "github.com/xanzy/go-gitlab"

	"embodi/pkg/registration"
)

// ErrAccessDenied is returned when a repository cannot be read with the given token.
var ErrAccessDenied = errors.New("repository not accessible with the given token")

// DefaultGitLabURL is the API base of gitlab.com.
const DefaultGitLabURL = "https://gitlab.com/api/v4"

// GitLabVerifier implements the Verifier interface using the GitLab REST API.
type GitLabVerifier struct {
	baseURL    string
	httpClient *http.Client
}

// NewGitLabVerifier creates a GitLabVerifier talking to the API at baseURL.
func NewGitLabVerifier(baseURL string, httpClient *http.Client) *GitLabVerifier {
	if baseURL == "" {
		baseURL = DefaultGitLabURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GitLabVerifier{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Verify looks the project up with the caller's token.
func (g *GitLabVerifier) Verify(ctx context.Context, repo registration.Repository) error {
	client, err := gitlab.NewClient(repo.Token,
		gitlab.WithBaseURL(g.baseURL),
		gitlab.WithHTTPClient(g.httpClient),
	)
	if err != nil {
		return fmt.Errorf("failed to create GitLab client: %w", err)
	}

	project, resp, err := client.Projects.GetProject(repo.FullName(), nil, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
				return fmt.Errorf("GitLab project %s: %w (status %d)", repo.FullName(), ErrAccessDenied, resp.StatusCode)
			}
		}
		return fmt.Errorf("failed to look up GitLab project %s: %w", repo.FullName(), err)
	}

	slog.Debug("GitLab project accessible", "project", project.PathWithNamespace, "id", project.ID)
	return nil
}
