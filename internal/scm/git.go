package scm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"embodi/pkg/registration"
)

const (
	DefaultGitHubURL    = "https://github.com"
	DefaultBitbucketURL = "https://bitbucket.org"
)

// GitRemoteVerifier implements the Verifier interface by listing the remote
// refs over smart HTTP, the same request `git ls-remote` makes.
type GitRemoteVerifier struct {
	baseURL  string
	username string
}

// NewGitHubVerifier checks repositories hosted on GitHub.
func NewGitHubVerifier(baseURL string) *GitRemoteVerifier {
	if baseURL == "" {
		baseURL = DefaultGitHubURL
	}
	// GitHub accepts any username with a token; this one is what its apps use.
	return &GitRemoteVerifier{baseURL: baseURL, username: "x-access-token"}
}

// NewBitbucketVerifier checks repositories hosted on Bitbucket.
func NewBitbucketVerifier(baseURL string) *GitRemoteVerifier {
	if baseURL == "" {
		baseURL = DefaultBitbucketURL
	}
	return &GitRemoteVerifier{baseURL: baseURL, username: "x-token-auth"}
}

// RemoteURL returns the clone URL of repo.
func (v *GitRemoteVerifier) RemoteURL(repo registration.Repository) string {
	return fmt.Sprintf("%s/%s.git", strings.TrimSuffix(v.baseURL, "/"), repo.FullName())
}

// Verify lists the remote refs with the caller's token.
func (v *GitRemoteVerifier) Verify(ctx context.Context, repo registration.Repository) error {
	url := v.RemoteURL(repo)

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{
		Auth: &http.BasicAuth{
			Username: v.username,
			Password: repo.Token,
		},
	})
	switch {
	case err == nil:
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		// Exists and is readable, just has no commits yet.
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrRepositoryNotFound):
		return fmt.Errorf("%s: %w: %w", url, ErrAccessDenied, err)
	default:
		return fmt.Errorf("failed to list refs of %s: %w", url, err)
	}

	slog.Debug("Repository accessible", "url", url, "refs", len(refs))
	return nil
}
