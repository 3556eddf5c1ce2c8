package registration

// Platform is the source control host a repository lives on.
type Platform string

const (
	PlatformGitHub    Platform = "GitHub"
	PlatformGitLab    Platform = "GitLab"
	PlatformBitbucket Platform = "Bitbucket"
)

// Request is the body of a registration call.
// It's decoded from the JSON sent to POST /config/register.
type Request struct {
	Version string     `json:"version" validate:"required"`
	Repo    Repository `json:"repo" validate:"required"`
}

// Repository describes the repository a validation run is started for.
type Repository struct {
	Owner    string   `json:"owner" validate:"required"`
	Name     string   `json:"name" validate:"required"`
	Platform Platform `json:"platform" validate:"required,oneof=GitHub GitLab Bitbucket"`
	Token    string   `json:"token" validate:"required"`
}

// FullName returns the owner/name path of the repository.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// Response identifies the started container and the key its output is scoped to.
type Response struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}
