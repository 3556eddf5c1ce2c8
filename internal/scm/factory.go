package scm

import (
	"fmt"
	"net/http"

	"embodi/pkg/registration"
)

// Endpoints holds the base URLs of the supported hosts.
type Endpoints struct {
	GitHub    string
	GitLab    string
	Bitbucket string
}

// VerifierFactory returns the Verifier for a platform. This decouples the
// registration workflow from concrete host implementations.
type VerifierFactory struct {
	endpoints  Endpoints
	httpClient *http.Client
}

// NewVerifierFactory creates a new instance of VerifierFactory.
func NewVerifierFactory(endpoints Endpoints, httpClient *http.Client) *VerifierFactory {
	return &VerifierFactory{
		endpoints:  endpoints,
		httpClient: httpClient,
	}
}

// GetVerifier returns the Verifier implementation for platform.
func (f *VerifierFactory) GetVerifier(platform registration.Platform) (Verifier, error) {
	switch platform {
	case registration.PlatformGitLab:
		return NewGitLabVerifier(f.endpoints.GitLab, f.httpClient), nil
	case registration.PlatformGitHub:
		return NewGitHubVerifier(f.endpoints.GitHub), nil
	case registration.PlatformBitbucket:
		return NewBitbucketVerifier(f.endpoints.Bitbucket), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}
