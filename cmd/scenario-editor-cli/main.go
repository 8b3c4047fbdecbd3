package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ctfer-io/scenario-editor/global"
	"github.com/ctfer-io/scenario-editor/internal/flags"
	"github.com/ctfer-io/scenario-editor/pkg/audit"
	"github.com/ctfer-io/scenario-editor/pkg/blob"
	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/repository"
)

var (
	Version = "dev"
)

var (
	// store is opened before any command runs.
	store blob.Store

	otelShutdown func(context.Context) error
)

func before(ctx context.Context, _ *cli.Command) (context.Context, error) {
	global.Version = Version

	shutdown, err := global.SetupOTelSDK(ctx)
	if err != nil {
		return ctx, err
	}
	otelShutdown = shutdown

	s, err := flags.OpenStore(ctx)
	if err != nil {
		return ctx, err
	}
	store = s
	return ctx, nil
}

// after releases what before opened, flushing telemetry last.
func after(ctx context.Context, _ *cli.Command) (err error) {
	if store != nil {
		err = multierr.Append(err, blob.Close(store))
		store = nil
	}
	err = multierr.Append(err, global.CloseEtcd())
	if otelShutdown != nil {
		err = multierr.Append(err, otelShutdown(context.WithoutCancel(ctx)))
		otelShutdown = nil
	}
	return err
}

func main() {
	cmd := &cli.Command{
		Name:    "scenario-editor-cli",
		Usage:   "Read and edit the scenarios of a knowledge base from the command line",
		Version: Version,
		Flags: slices.Concat(
			flags.Global(),
			flags.Blob(),
			flags.Lock(),
		),
		Before: before,
		After:  after,
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the sections of a scenario.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Value: formatYAML,
						Action: func(_ context.Context, _ *cli.Command, f string) error {
							if f != formatYAML && f != formatJSON {
								return &errs.ErrValidationFailed{Field: "format", Reason: "must be yaml or json"}
							}
							return nil
						},
					},
				},
				Action: get,
			}, {
				Name:  "set",
				Usage: "Update the sections of a scenario, and record the change in the audit log.",
				Flags: slices.Concat(
					[]cli.Flag{
						&cli.StringFlag{
							Name:     "id",
							Required: true,
						},
						&cli.StringSliceFlag{
							Name:  "section",
							Usage: "A section to set, as name=value. Use a file for multi-line values.",
						},
						&cli.StringFlag{
							Name:      "file",
							Usage:     "A YAML mapping of the sections to set, in order. A list is joined by line breaks, and split again if the section is a list.",
							TakesFile: true,
						},
						&cli.StringFlag{
							Name:  "revision",
							Usage: "The revision the edit is built upon, as printed by get. Only checked with the reject conflict policy.",
						},
					},
					flags.Edit(),
				),
				Action: set,
			}, {
				Name:   "log",
				Usage:  "Print the audit log.",
				Action: printLog,
			},
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

func get(ctx context.Context, cmd *cli.Command) error {
	loaded, err := flags.Repository(store).Get(ctx, cmd.String("id"))
	if err != nil {
		return err
	}
	return render(os.Stdout, cmd.String("format"), loaded)
}

func set(ctx context.Context, cmd *cli.Command) (err error) {
	fields, err := parseSections(cmd.StringSlice("section"))
	if err != nil {
		return err
	}
	if file := cmd.String("file"); file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		ff, err := readSectionsFile(b)
		if err != nil {
			return err
		}
		fields = append(fields, ff...)
	}
	if len(fields) == 0 {
		return &errs.ErrValidationFailed{Reason: "nothing to set, use --section or --file"}
	}

	res, err := flags.Repository(store).Update(ctx, cmd.String("id"), repository.Submission{
		Fields:   fields,
		Revision: cmd.String("revision"),
	})
	if err != nil {
		return err
	}

	// Append to the remote history rather than to a local one
	dir, err := os.MkdirTemp("", "scenario-editor-cli-")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, os.RemoveAll(dir))
	}()
	aw, err := audit.New(ctx, audit.Config{
		Path:      filepath.Join(dir, global.Conf.Blob.Log),
		Store:     store,
		Container: global.Conf.Blob.Container,
		Name:      global.Conf.Blob.Log,
		Restore:   true,
	})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, aw.Close())
	}()
	if err := aw.Record(ctx, res.ID, res.Before, res.After); err != nil {
		return err
	}

	if res.Changed() {
		fmt.Printf("[~] Scenario %d updated\n", res.ID)
	} else {
		fmt.Printf("[=] Scenario %d unchanged\n", res.ID)
	}
	return nil
}

func printLog(ctx context.Context, _ *cli.Command) error {
	b, err := store.Fetch(ctx, global.Conf.Blob.Container, global.Conf.Blob.Log)
	if err != nil {
		return &errs.ErrBlob{Op: "fetch", Container: global.Conf.Blob.Container, Name: global.Conf.Blob.Log, Err: err}
	}
	_, err = os.Stdout.Write(b)
	return err
}
