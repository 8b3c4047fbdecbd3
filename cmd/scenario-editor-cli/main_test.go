package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfer-io/scenario-editor/global"
	"github.com/ctfer-io/scenario-editor/pkg/blob"
)

// Not parallel: before and after work on the process-wide configuration.
func Test_U_BeforeAfter(t *testing.T) {
	var tests = map[string]struct {
		Tracing bool
	}{
		"no-tracing": {
			Tracing: false,
		},
		"tracing": {
			Tracing: true,
		},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_EXPORTER", "none")
			t.Setenv("OTEL_METRICS_EXPORTER", "none")
			t.Setenv("OTEL_LOGS_EXPORTER", "none")

			prev := global.Conf
			t.Cleanup(func() { global.Conf = prev })
			global.Conf.Otel.Tracing = tt.Tracing
			global.Conf.Blob.Driver = string(blob.DriverFilesystem)
			global.Conf.Blob.Directory = t.TempDir()

			ctx := context.Background()
			_, err := before(ctx, nil)
			require.NoError(t, err)
			require.NotNil(t, store)
			require.NotNil(t, otelShutdown)
			assert.Equal(t, blob.DriverFilesystem, store.Driver())
			require.NoError(t, store.Store(ctx, "scenarios", "scenarios.json", []byte("[]")))

			require.NoError(t, after(ctx, nil))
			assert.Nil(t, store)
			assert.Nil(t, otelShutdown)
		})
	}
}
