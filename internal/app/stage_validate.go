package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"embodi/internal/config"
	apperrors "embodi/internal/errors"
)

var validate = validator.New()

// ValidateStage rejects requests that are missing fields or name an unknown platform.
type ValidateStage struct{}

func (s *ValidateStage) Name() string {
	return "validate"
}

func (s *ValidateStage) Execute(ctx context.Context, state *RegistrationState) error {
	err := validate.StructCtx(ctx, &state.Request)
	if err == nil {
		return nil
	}

	cause := err.Error()
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, config.FormatFieldError(e))
		}
		cause = strings.Join(messages, "; ")
	}

	return apperrors.NewInvalidRequestError(
		"Validating registration request",
		cause,
		"Send version and repo.owner, repo.name, repo.platform (GitHub, GitLab or Bitbucket) and repo.token",
		fmt.Errorf("invalid registration request: %s", cause),
	)
}
