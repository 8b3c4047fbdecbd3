package audit

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ctfer-io/scenario-editor/pkg/blob"
	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

// TimeLayout is the layout of audit lines timestamps.
const TimeLayout = "2006-01-02 15:04:05,000"

// Config of an audit Writer.
type Config struct {
	// Path of the local, always-growing, log file.
	Path string

	Store     blob.Store
	Container string
	Name      string

	// Restore seeds a missing local file with the remote log, so that a fresh
	// process does not overwrite the history when uploading.
	Restore bool

	// Clock overrides the time source of entries.
	Clock zapcore.Clock
}

// Writer appends one line per edit to a local file, then uploads the whole
// file to the store.
// It is built once per process and owns the file until Close.
type Writer struct {
	cfg Config

	mu     sync.Mutex
	file   *os.File
	logger *zap.Logger
}

// New opens (or creates) the local log file.
func New(ctx context.Context, cfg Config) (*Writer, error) {
	if cfg.Path == "" {
		return nil, &errs.ErrValidationFailed{Field: "audit file", Reason: "path is required"}
	}
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	if cfg.Restore {
		if err := restore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, err
	}

	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(TimeLayout),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})
	opts := []zap.Option{}
	if cfg.Clock != nil {
		opts = append(opts, zap.WithClock(cfg.Clock))
	}

	return &Writer{
		cfg:    cfg,
		file:   f,
		logger: zap.New(zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.InfoLevel), opts...),
	}, nil
}

// Record writes the entry describing the edit of a scenario, then uploads
// the whole log.
func (w *Writer) Record(ctx context.Context, id int, before, after scenario.Sections) error {
	msg := Describe(id, before, after)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Info(msg)
	if err := w.logger.Sync(); err != nil {
		return err
	}
	return w.upload(ctx)
}

func (w *Writer) upload(ctx context.Context) error {
	data, err := os.ReadFile(w.cfg.Path)
	if err != nil {
		return err
	}
	if err := w.cfg.Store.Store(ctx, w.cfg.Container, w.cfg.Name, data); err != nil {
		return &errs.ErrBlob{Op: "store", Container: w.cfg.Container, Name: w.cfg.Name, Err: err}
	}
	return nil
}

// Close flushes and releases the local file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return multierr.Combine(
		w.logger.Sync(),
		w.file.Close(),
	)
}

func restore(ctx context.Context, cfg Config) error {
	if _, err := os.Stat(cfg.Path); !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	data, err := cfg.Store.Fetch(ctx, cfg.Container, cfg.Name)
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			return nil
		}
		return &errs.ErrBlob{Op: "fetch", Container: cfg.Container, Name: cfg.Name, Err: err}
	}
	return os.WriteFile(cfg.Path, data, 0o640)
}
