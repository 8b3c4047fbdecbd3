package blob_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfer-io/scenario-editor/pkg/blob"
)

func Test_U_Drivers(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		New func(t *testing.T) blob.Store
	}{
		"memory": {
			New: func(_ *testing.T) blob.Store {
				return blob.NewMemory()
			},
		},
		"fs": {
			New: func(t *testing.T) blob.Store {
				s, err := blob.NewFilesystem(t.TempDir())
				require.NoError(t, err)
				return s
			},
		},
		"sqlite": {
			New: func(t *testing.T) blob.Store {
				s, err := blob.NewSQLite(context.Background(), blob.SQLiteConfig{
					Path: filepath.Join(t.TempDir(), "blobs.db"),
				})
				require.NoError(t, err)
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)
			ctx := context.Background()

			store := tt.New(t)

			// Missing object
			_, err := store.Fetch(ctx, "container", "scenarios.json")
			assert.ErrorIs(err, blob.ErrNotExist)

			// Create then overwrite
			require.NoError(t, store.Store(ctx, "container", "scenarios.json", []byte(`[]`)))
			require.NoError(t, store.Store(ctx, "container", "scenarios.json", []byte(`[{"ScenarioID": 1}]`)))

			b, err := store.Fetch(ctx, "container", "scenarios.json")
			require.NoError(t, err)
			assert.Equal(`[{"ScenarioID": 1}]`, string(b))

			// Containers are isolated
			_, err = store.Fetch(ctx, "other", "scenarios.json")
			assert.ErrorIs(err, blob.ErrNotExist)
		})
	}
}

func Test_U_FilesystemRejectsTraversal(t *testing.T) {
	t.Parallel()

	store, err := blob.NewFilesystem(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, name := range []string{"", "../escape", "/abs", "a/../../b"} {
		assert.Error(t, store.Store(ctx, "container", name, []byte("x")), "name %q", name)
		_, err := store.Fetch(ctx, "container", name)
		assert.Error(t, err, "name %q", name)
	}
	assert.Error(t, store.Store(ctx, "..", "name", []byte("x")))
}

func Test_U_MemoryCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blob.NewMemory()

	var stored int
	store.OnStore = func(_, _ string, _ []byte) { stored++ }

	data := []byte("abc")
	require.NoError(t, store.Store(ctx, "c", "n", data))
	data[0] = 'z'

	b, err := store.Fetch(ctx, "c", "n")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
	assert.Equal(t, 1, stored)

	b[0] = 'y'
	b, err = store.Fetch(ctx, "c", "n")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}

func Test_U_OpenUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := blob.Open(context.Background(), blob.Config{Driver: "ftp"})
	assert.Error(t, err)
}

func Test_U_OpenFilesystem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := blob.Open(ctx, blob.Config{
		Driver:    blob.DriverFilesystem,
		Directory: t.TempDir(),
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, blob.Close(store)) }()

	assert.Equal(t, blob.DriverFilesystem, store.Driver())
	require.NoError(t, store.Store(ctx, "c", "log", []byte("line\n")))
	b, err := store.Fetch(ctx, "c", "log")
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(b))
}
