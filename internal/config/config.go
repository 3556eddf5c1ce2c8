package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr" validate:"required"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// EngineConfig holds the container engine connection settings.
type EngineConfig struct {
	Host         string        `mapstructure:"host"`
	StopTimeout  time.Duration `mapstructure:"stop_timeout" validate:"gte=0"`
	RemoveOnExit bool          `mapstructure:"remove_on_exit"`
}

// RegistrationConfig controls how registrations become containers.
type RegistrationConfig struct {
	ImageRepository string `mapstructure:"image_repository" validate:"required"`
	VerifyAccess    bool   `mapstructure:"verify_access"`
	GitHubURL       string `mapstructure:"github_url" validate:"omitempty,url"`
	GitLabURL       string `mapstructure:"gitlab_url" validate:"omitempty,url"`
	BitbucketURL    string `mapstructure:"bitbucket_url" validate:"omitempty,url"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format    string `mapstructure:"format" validate:"oneof=text json"`
	Dir       string `mapstructure:"dir"`
	MaxSizeMB int    `mapstructure:"max_size_mb" validate:"gt=0"`
	MaxFiles  int    `mapstructure:"max_files" validate:"gt=0"`
}

// Config is the top-level configuration struct.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Log          LogConfig          `mapstructure:"log"`
}

// New returns a viper instance with defaults and environment binding set up.
// Every key can be overridden with EMBODI_<SECTION>_<KEY>.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.heartbeat_interval", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("engine.host", "")
	v.SetDefault("engine.stop_timeout", 10*time.Second)
	v.SetDefault("engine.remove_on_exit", false)
	v.SetDefault("registration.image_repository", "alpine")
	v.SetDefault("registration.verify_access", false)
	v.SetDefault("registration.github_url", "https://github.com")
	v.SetDefault("registration.gitlab_url", "https://gitlab.com/api/v4")
	v.SetDefault("registration.bitbucket_url", "https://bitbucket.org")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_files", 5)

	v.SetEnvPrefix("EMBODI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PODMAN_HOST is what existing deployments already export.
	_ = v.BindEnv("engine.host", "EMBODI_ENGINE_HOST", "PODMAN_HOST")

	return v
}

// Load reads the optional config file, then decodes and validates the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := validate.Struct(&cfg); err != nil {
		return nil, formatValidationError(err)
	}

	return &cfg, nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, FormatFieldError(e))
		}

		if len(errorMessages) == 1 {
			return fmt.Errorf("validation error: %s", errorMessages[0])
		}

		result := "validation errors:\n"
		for _, msg := range errorMessages {
			result += fmt.Sprintf("  - %s\n", msg)
		}
		return fmt.Errorf("%s", result)
	}
	return fmt.Errorf("validation failed: %w", err)
}

// FormatFieldError formats a single validation error into a user-friendly message.
func FormatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", field)
	case "gt", "gte":
		return fmt.Sprintf("field '%s' must be %s %s", field, map[string]string{"gt": ">", "gte": ">="}[tag], e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, tag)
	}
}
