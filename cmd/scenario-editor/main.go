package main

import (
	"context"
	"net/mail"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ctfer-io/scenario-editor/global"
	"github.com/ctfer-io/scenario-editor/internal/flags"
	"github.com/ctfer-io/scenario-editor/pkg/audit"
	"github.com/ctfer-io/scenario-editor/pkg/blob"
	"github.com/ctfer-io/scenario-editor/pkg/lock"
	"github.com/ctfer-io/scenario-editor/server"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
	BuiltBy = ""
)

func main() {
	cmd := &cli.Command{
		Name:  "Scenario-Editor",
		Usage: "Edit the scenarios of a knowledge base stored as a JSON blob, and keep track of every change",
		Flags: slices.Concat(
			[]cli.Flag{
				cli.VersionFlag,
				cli.HelpFlag,
				&cli.IntFlag{
					Name:     "port",
					Aliases:  []string{"p"},
					Sources:  cli.EnvVars("PORT"),
					Category: "global",
					Value:    8080,
					Usage:    "Define the HTTP server port to listen on.",
				},
				&cli.StringFlag{
					Name:        "audit.file",
					Sources:     cli.EnvVars("AUDIT_FILE"),
					Category:    "audit",
					Value:       "scenario_updates.log",
					Destination: &global.Conf.Audit.File,
					Usage:       "Define the local audit log file, uploaded whole after every edit.",
					TakesFile:   true,
				},
				&cli.BoolFlag{
					Name:        "audit.restore",
					Sources:     cli.EnvVars("AUDIT_RESTORE"),
					Category:    "audit",
					Value:       true,
					Destination: &global.Conf.Audit.Restore,
					Usage:       "If set, seed a missing local audit log with the remote one on startup so history is not overwritten.",
				},
			},
			flags.Global(),
			flags.Blob(),
			flags.Edit(),
			flags.Lock(),
		),
		Action: run,
		Authors: []any{
			mail.Address{
				Name:    "Lucas Tesson - PandatiX",
				Address: "lucastesson@protonmail.com",
			},
		},
		Version: Version,
		Metadata: map[string]any{
			"version": Version,
			"commit":  Commit,
			"date":    Date,
			"builtBy": BuiltBy,
		},
	}

	ctx := context.Background()
	if err := cmd.Run(ctx, os.Args); err != nil {
		global.Log().Error(ctx, "fatal error",
			zap.Error(err),
		)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) (err error) {
	// Pre-flight global configuration
	global.Version = Version

	port := cmd.Int("port")

	// Set up OpenTelemetry
	otelShutdown, err := global.SetupOTelSDK(ctx)
	if err != nil {
		return err
	}
	// Handle shutdown properly so nothing leaks
	defer func() {
		err = multierr.Append(err, otelShutdown(context.WithoutCancel(ctx)))
	}()

	logger := global.Log()
	logger.Info(ctx, "starting scenario editor",
		zap.Int("port", port),
		zap.String("blob_driver", global.Conf.Blob.Driver),
		zap.String("collection", filepath.Join(global.Conf.Blob.Container, global.Conf.Blob.Collection)),
		zap.String("merge_policy", global.Conf.Edit.MergePolicy),
		zap.String("conflict_policy", global.Conf.Edit.ConflictPolicy),
		zap.String("lock", global.Conf.Lock.Kind),
	)

	// Create context that listens for the interrupt signal from the OS
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage and audit log
	store, err := flags.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, blob.Close(store))
	}()

	aw, err := audit.New(ctx, audit.Config{
		Path:      global.Conf.Audit.File,
		Store:     store,
		Container: global.Conf.Blob.Container,
		Name:      global.Conf.Blob.Log,
		Restore:   global.Conf.Audit.Restore,
	})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, aw.Close())
	}()

	checks := []health.Config{}
	if global.Conf.Lock.Kind == lock.KindEtcd {
		checks = append(checks, health.Config{
			Name:      "etcd",
			Timeout:   time.Second,
			Check:     global.Etcd().Healthcheck,
			SkipOnErr: true,
		})
	}

	// Launch editor server
	srv := server.NewServer(server.Options{
		Port:       port,
		Repository: flags.Repository(store),
		Audit:      aw,
		StripLabel: global.Conf.Edit.StripLabel,
		Checks:     checks,
	})
	if err := srv.Run(ctx); err != nil {
		return err
	}

	// Listen for the interrupt signal
	<-ctx.Done()

	// Restore default behavior on the interrupt signal
	stop()
	logger.Info(ctx, "shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(ctx, "shutting down server",
			zap.Error(err),
		)
	}

	if err := global.CloseEtcd(); err != nil {
		logger.Error(ctx, "closing connection to etcd",
			zap.Error(err),
		)
	}

	return nil
}
