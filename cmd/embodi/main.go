package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"embodi/internal/app"
	"embodi/internal/config"
	"embodi/internal/demux"
	apperrors "embodi/internal/errors"
	"embodi/internal/logging"
	"embodi/internal/orchestrator"
	"embodi/internal/runtime"
	"embodi/internal/scm"
	"embodi/internal/server"
	"embodi/internal/ui"
)

// version is set at build time via ldflags
var version = "dev"

var v *viper.Viper

var rootCmd = &cobra.Command{
	Use:     "embodi",
	Short:   "embodi - run repository validation containers and stream their output",
	Version: version,
	Long: `embodi starts a validation container per registered repository and streams
the container output that belongs to each registration over Server-Sent Events.
Docker and Podman are supported through the Docker Engine API.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serve exposes POST /config/register, GET /config/{id}/{key} (SSE),
DELETE /config/{id} and GET /health.

Settings come from defaults, an optional --config file, EMBODI_* environment
variables and flags, in increasing order of precedence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(v, configFile)
		if err != nil {
			return apperrors.NewConfigError(
				"Loading configuration",
				"",
				"Check the config file and EMBODI_* environment variables",
				err,
			)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	engine, err := runtime.NewDockerEngine(ctx, runtime.Options{
		Host:        cfg.Engine.Host,
		StopTimeout: cfg.Engine.StopTimeout,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	verifiers := scm.NewVerifierFactory(scm.Endpoints{
		GitHub:    cfg.Registration.GitHubURL,
		GitLab:    cfg.Registration.GitLabURL,
		Bitbucket: cfg.Registration.BitbucketURL,
	}, &http.Client{Timeout: 15 * time.Second})

	svc := app.NewService(
		orchestrator.New(engine, logger),
		demux.New(logger),
		verifiers,
		app.Options{
			ImageRepository: cfg.Registration.ImageRepository,
			RemoveOnExit:    cfg.Engine.RemoveOnExit,
			VerifyAccess:    cfg.Registration.VerifyAccess,
		},
		logger,
	)

	srv := server.New(server.Config{
		Addr:              cfg.Server.Addr,
		HeartbeatInterval: cfg.Server.HeartbeatInterval,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	}, svc, logger)

	logger.Info("Starting embodi", "version", version, "addr", cfg.Server.Addr, "engineHost", cfg.Engine.Host)
	return srv.Start(ctx)
}

func init() {
	v = config.New()

	serveCmd.Flags().StringP("config", "c", "", "Path to a YAML config file")
	serveCmd.Flags().String("addr", ":8000", "Listen address")
	serveCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("log.level", serveCmd.Flags().Lookup("log-level"))
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		ui.NewConsole(os.Stderr).PrintError(err)
		os.Exit(1)
	}
}
