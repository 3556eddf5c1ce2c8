package app

import (
	"context"
	"errors"
	"log/slog"

	apperrors "embodi/internal/errors"
	"embodi/internal/scm"
	"embodi/pkg/registration"
)

// VerifierProvider hands out the access checker for a platform.
type VerifierProvider interface {
	GetVerifier(platform registration.Platform) (scm.Verifier, error)
}

// VerifyStage checks that the repository token can read the repository before
// any container is created.
type VerifyStage struct {
	verifiers VerifierProvider
	logger    *slog.Logger
}

func NewVerifyStage(verifiers VerifierProvider, logger *slog.Logger) *VerifyStage {
	return &VerifyStage{verifiers: verifiers, logger: logger}
}

func (s *VerifyStage) Name() string {
	return "verify"
}

func (s *VerifyStage) Execute(ctx context.Context, state *RegistrationState) error {
	repo := state.Request.Repo

	verifier, err := s.verifiers.GetVerifier(repo.Platform)
	if err != nil {
		return apperrors.NewInvalidRequestError("Checking repository access", "", "", err)
	}

	if err := verifier.Verify(ctx, repo); err != nil {
		if errors.Is(err, scm.ErrAccessDenied) {
			return apperrors.NewAccessError(
				"Checking repository access",
				"The repository does not exist or the token cannot read it",
				"Check repo.owner, repo.name and that the token has read access",
				err,
			)
		}
		return apperrors.NewRunError(
			"Checking repository access",
			"The source control host could not be reached",
			"",
			err,
		)
	}

	s.logger.Debug("Repository access verified", "repo", repo.FullName(), "platform", repo.Platform)
	return nil
}
