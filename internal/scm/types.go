package scm

import (
	"context"

	"embodi/pkg/registration"
)

// Verifier checks that a repository exists and that its token can read it.
// This interface is platform-agnostic; each source control host gets its own
// implementation.
type Verifier interface {
	// Verify returns an error wrapping ErrAccessDenied when the host refuses
	// the token or does not know the repository.
	Verify(ctx context.Context, repo registration.Repository) error
}
