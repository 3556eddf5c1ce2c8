package scm

import (
	"strings"
	"testing"

	"embodi/pkg/registration"
)

func TestVerifierFactory_GetVerifier(t *testing.T) {
	factory := NewVerifierFactory(Endpoints{}, nil)

	tests := []struct {
		name        string
		platform    registration.Platform
		expectError bool
		errorMsg    string
		expectType  string
	}{
		{name: "GitLab", platform: registration.PlatformGitLab, expectType: "*scm.GitLabVerifier"},
		{name: "GitHub", platform: registration.PlatformGitHub, expectType: "*scm.GitRemoteVerifier"},
		{name: "Bitbucket", platform: registration.PlatformBitbucket, expectType: "*scm.GitRemoteVerifier"},
		{name: "Unsupported platform", platform: "Gitea", expectError: true, errorMsg: "unsupported platform: Gitea"},
		{name: "Empty platform", platform: "", expectError: true, errorMsg: "unsupported platform:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier, err := factory.GetVerifier(tt.platform)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
					return
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error message to contain '%s', got: %s", tt.errorMsg, err.Error())
				}
				if verifier != nil {
					t.Errorf("Expected verifier to be nil on error, got: %T", verifier)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %s", err)
			}
			if got := typeName(verifier); got != tt.expectType {
				t.Errorf("Expected %s, got %s", tt.expectType, got)
			}
		})
	}
}

func typeName(v Verifier) string {
	switch v.(type) {
	case *GitLabVerifier:
		return "*scm.GitLabVerifier"
	case *GitRemoteVerifier:
		return "*scm.GitRemoteVerifier"
	default:
		return "unknown"
	}
}
