package global

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger of the editor. Every entry is enriched
// with the identifiers carried by the context (see WithScenarioID and
// WithRequestID).
type Logger struct {
	Sub *zap.Logger
}

func (log *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	log.write(ctx, zapcore.DebugLevel, msg, fields)
}

func (log *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	log.write(ctx, zapcore.InfoLevel, msg, fields)
}

func (log *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	log.write(ctx, zapcore.WarnLevel, msg, fields)
}

func (log *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	log.write(ctx, zapcore.ErrorLevel, msg, fields)
}

func (log *Logger) write(ctx context.Context, lvl zapcore.Level, msg string, fields []zap.Field) {
	ce := log.Sub.Check(lvl, msg)
	if ce == nil {
		return
	}
	for _, cf := range contextFields {
		if v, ok := ctx.Value(cf.key).(string); ok && v != "" {
			fields = append(fields, zap.String(cf.name, v))
		}
	}
	ce.Write(fields...)
}

var contextFields = []struct {
	key  any
	name string
}{
	{key: scenarioKey{}, name: "scenario_id"},
	{key: requestKey{}, name: "request_id"},
}

var (
	logger  *Logger
	logOnce sync.Once
)

// Log returns the process-wide logger, built upon first use from Conf.
func Log() *Logger {
	logOnce.Do(func() {
		logger = &Logger{
			Sub: zap.New(newCore()).With(zap.String("version", Version)),
		}
	})
	return logger
}

func newCore() zapcore.Core {
	lvl, err := zapcore.ParseLevel(Conf.LogLevel)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	stdout := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stdout), lvl)
	if !Conf.Otel.Tracing || loggerProvider == nil {
		return stdout
	}
	return zapcore.NewTee(
		stdout,
		otelzap.NewCore(serviceName(), otelzap.WithLoggerProvider(loggerProvider)),
	)
}
