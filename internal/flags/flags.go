// Package flags holds the command-line flags shared by the editor binaries,
// bound to global.Conf.
package flags

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ctfer-io/scenario-editor/global"
	"github.com/ctfer-io/scenario-editor/pkg/blob"
	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/lock"
	"github.com/ctfer-io/scenario-editor/pkg/repository"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

// oneOf validates a flag value is among the supported ones.
func oneOf[T ~string](name string, values []T) func(context.Context, *cli.Command, string) error {
	return func(_ context.Context, _ *cli.Command, v string) error {
		if slices.Contains(values, T(v)) {
			return nil
		}
		supported := make([]string, 0, len(values))
		for _, v := range values {
			supported = append(supported, string(v))
		}
		return &errs.ErrValidationFailed{
			Field:  name,
			Reason: fmt.Sprintf("%q is not one of %s", v, strings.Join(supported, ", ")),
		}
	}
}

// Global flags: logging and observability.
func Global() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "log-level",
			Sources:  cli.EnvVars("LOG_LEVEL"),
			Category: "global",
			Value:    "info",
			Action: func(_ context.Context, _ *cli.Command, lvl string) error {
				_, err := zapcore.ParseLevel(lvl)
				return err
			},
			Destination: &global.Conf.LogLevel,
			Usage:       "Use to specify the level of logging.",
		},
		&cli.BoolFlag{
			Name:        "tracing",
			Sources:     cli.EnvVars("TRACING"),
			Category:    "otel",
			Destination: &global.Conf.Otel.Tracing,
			Usage:       "If set, turns on tracing, metrics and logs export through OpenTelemetry (configured by the OTEL_* environment variables).",
		},
		&cli.StringFlag{
			Name:        "service-name",
			Sources:     cli.EnvVars("OTEL_SERVICE_NAME"),
			Category:    "otel",
			Value:       "scenario-editor",
			Destination: &global.Conf.Otel.ServiceName,
			Usage:       "Override the service name. Useful when deploying multiple instances to filter signals.",
		},
	}
}

// Blob flags select and configure the storage of the collection and the
// audit log.
func Blob() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "blob.driver",
			Sources:     cli.EnvVars("BLOB_DRIVER"),
			Category:    "blob",
			Value:       string(blob.DriverFilesystem),
			Destination: &global.Conf.Blob.Driver,
			Action:      oneOf("blob.driver", blob.Drivers),
			Usage:       "Define the blob storage backend (fs, memory, s3, azure, sqlite).",
		},
		&cli.StringFlag{
			Name:        "blob.dir",
			Sources:     cli.EnvVars("BLOB_DIR"),
			Category:    "blob",
			Value:       "/tmp/scenario-editor",
			Destination: &global.Conf.Blob.Directory,
			Usage:       "If driver is fs, define the root directory to read/write blobs from.",
			TakesFile:   true, // a directory actually
		},
		&cli.StringFlag{
			Name:        "blob.container",
			Sources:     cli.EnvVars("BLOB_CONTAINER"),
			Category:    "blob",
			Value:       "scenarios",
			Destination: &global.Conf.Blob.Container,
			Usage:       "Define the container (bucket) holding the collection and the audit log.",
		},
		&cli.StringFlag{
			Name:        "blob.collection",
			Sources:     cli.EnvVars("BLOB_COLLECTION"),
			Category:    "blob",
			Value:       "scenarios_knowledgeBase.json",
			Destination: &global.Conf.Blob.Collection,
			Usage:       "Define the name of the scenario collection blob.",
		},
		&cli.StringFlag{
			Name:        "blob.log",
			Sources:     cli.EnvVars("BLOB_LOG"),
			Category:    "blob",
			Value:       "scenario_updates.log",
			Destination: &global.Conf.Blob.Log,
			Usage:       "Define the name of the audit log blob.",
		},
		&cli.StringFlag{
			Name:        "blob.s3.region",
			Sources:     cli.EnvVars("BLOB_S3_REGION"),
			Category:    "blob",
			Value:       "us-east-1",
			Destination: &global.Conf.Blob.S3.Region,
			Usage:       "If driver is s3, define the region. Credentials are resolved the AWS SDK way (AWS_* environment variables, shared files).",
		},
		&cli.StringFlag{
			Name:        "blob.s3.endpoint",
			Sources:     cli.EnvVars("BLOB_S3_ENDPOINT"),
			Category:    "blob",
			Destination: &global.Conf.Blob.S3.Endpoint,
			Usage:       "If driver is s3, override the endpoint (e.g. a MinIO instance).",
		},
		&cli.BoolFlag{
			Name:        "blob.s3.path-style",
			Sources:     cli.EnvVars("BLOB_S3_PATH_STYLE"),
			Category:    "blob",
			Destination: &global.Conf.Blob.S3.PathStyle,
			Usage:       "If driver is s3, use path-style addressing.",
		},
		&cli.StringFlag{
			Name:        "blob.azure.connection-string",
			Sources:     cli.EnvVars("BLOB_AZURE_CONNECTION_STRING"),
			Category:    "blob",
			Destination: &global.Conf.Blob.Azure.ConnectionString,
			Usage:       "If driver is azure, define the storage account connection string.",
		},
		&cli.StringFlag{
			Name:        "blob.sqlite.path",
			Sources:     cli.EnvVars("BLOB_SQLITE_PATH"),
			Category:    "blob",
			Destination: &global.Conf.Blob.SQLite.Path,
			Usage:       "If driver is sqlite, define the database file.",
			TakesFile:   true,
		},
	}
}

// Edit flags define how submissions are applied.
func Edit() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "merge-policy",
			Sources:     cli.EnvVars("MERGE_POLICY"),
			Category:    "edit",
			Value:       string(scenario.MergeReplace),
			Destination: &global.Conf.Edit.MergePolicy,
			Action:      oneOf("merge-policy", scenario.MergePolicies),
			Usage:       "Define what happens to sections absent from a submission: replace drops them, merge keeps them.",
		},
		&cli.StringFlag{
			Name:        "conflict-policy",
			Sources:     cli.EnvVars("CONFLICT_POLICY"),
			Category:    "edit",
			Value:       string(repository.LastWriterWins),
			Destination: &global.Conf.Edit.ConflictPolicy,
			Action:      oneOf("conflict-policy", repository.ConflictPolicies),
			Usage:       "Define how a submission built upon an outdated scenario is handled (last-writer-wins, reject).",
		},
		&cli.StringFlag{
			Name:        "display.strip-label",
			Sources:     cli.EnvVars("DISPLAY_STRIP_LABEL"),
			Category:    "edit",
			Value:       scenario.DefaultStripLabel,
			Destination: &global.Conf.Edit.StripLabel,
			Action: func(_ context.Context, _ *cli.Command, label string) error {
				global.Conf.Edit.StripLabel = strings.ReplaceAll(label, `\n`, "\n")
				return nil
			},
			Usage: `Define the label stripped from the head of section texts when displayed. "\n" is a line break.`,
		},
	}
}

// Lock flags select the mutual exclusion backend of collection writers.
func Lock() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "lock.kind",
			Sources:     cli.EnvVars("LOCK_KIND"),
			Category:    "lock",
			Value:       lock.KindLocal,
			Destination: &global.Conf.Lock.Kind,
			Action: func(ctx context.Context, cmd *cli.Command, kind string) error {
				if err := oneOf("lock.kind", []string{lock.KindLocal, lock.KindEtcd})(ctx, cmd, kind); err != nil {
					return err
				}
				if kind == lock.KindEtcd && cmd.String("etcd.endpoint") == "" {
					return errors.New("must configure an etcd endpoint to use etcd locks")
				}
				return nil
			},
			Usage: "Define the lock kind to use: local for a single replica, etcd to share locks across replicas.",
		},
		&cli.StringFlag{
			Name:        "etcd.endpoint",
			Sources:     cli.EnvVars("ETCD_ENDPOINT"),
			Category:    "lock",
			Usage:       "Define the etcd endpoints to reach for locks.",
			Destination: &global.Conf.Etcd.Endpoint,
		},
		&cli.StringFlag{
			Name:        "etcd.username",
			Sources:     cli.EnvVars("ETCD_USERNAME"),
			Category:    "lock",
			Destination: &global.Conf.Etcd.Username,
			Usage:       "If lock is etcd, define the username to use to connect to the etcd cluster.",
			Action: func(_ context.Context, cmd *cli.Command, _ string) error {
				if cmd.String("etcd.endpoint") == "" {
					return errors.New("must configure an etcd endpoint along credentials")
				}
				return nil
			},
		},
		&cli.StringFlag{
			Name:        "etcd.password",
			Sources:     cli.EnvVars("ETCD_PASSWORD"),
			Category:    "lock",
			Destination: &global.Conf.Etcd.Password,
			Usage:       "If lock is etcd, define the password to use to connect to the etcd cluster.",
			Action: func(_ context.Context, cmd *cli.Command, _ string) error {
				if cmd.String("etcd.endpoint") == "" {
					return errors.New("must configure an etcd endpoint along credentials")
				}
				return nil
			},
		},
	}
}

// OpenStore opens the blob store described by global.Conf.
func OpenStore(ctx context.Context) (blob.Store, error) {
	conf := global.Conf.Blob
	global.Log().Info(ctx, "opening blob store",
		zap.String("driver", conf.Driver),
		zap.String("container", conf.Container),
	)
	store, err := blob.Open(ctx, blob.Config{
		Driver:    blob.Driver(conf.Driver),
		Directory: conf.Directory,
		S3: blob.S3Config{
			Region:    conf.S3.Region,
			Endpoint:  conf.S3.Endpoint,
			PathStyle: conf.S3.PathStyle,
		},
		Azure: blob.AzureConfig{
			ConnectionString: conf.Azure.ConnectionString,
		},
		SQLite: blob.SQLiteConfig{
			Path: conf.SQLite.Path,
		},
		Breaker: gobreaker.Settings{
			Timeout: 30 * time.Second,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s blob store", conf.Driver)
	}
	return store, nil
}

// Repository builds the scenario repository described by global.Conf.
func Repository(store blob.Store) *repository.Repository {
	return repository.New(repository.Options{
		Store:          store,
		Container:      global.Conf.Blob.Container,
		Collection:     global.Conf.Blob.Collection,
		Locker:         lock.New,
		MergePolicy:    scenario.MergePolicy(global.Conf.Edit.MergePolicy),
		ConflictPolicy: repository.ConflictPolicy(global.Conf.Edit.ConflictPolicy),
	})
}
