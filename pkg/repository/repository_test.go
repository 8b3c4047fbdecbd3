package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfer-io/scenario-editor/pkg/blob"
	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/lock"
	"github.com/ctfer-io/scenario-editor/pkg/repository"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

const collection = `[
    {"ScenarioID": 3, "Sections": {"Summary": "three"}},
    {"ScenarioID": 7, "Sections": {"Notes": ["line one", "line two"]}, "Extra": {"kept": true}}
]`

type fixture struct {
	store  *blob.Memory
	repo   *repository.Repository
	writes int
	mu     sync.Mutex
}

func newFixture(t *testing.T, merge scenario.MergePolicy, conflict repository.ConflictPolicy) *fixture {
	t.Helper()

	f := &fixture{store: blob.NewMemory()}
	require.NoError(t, f.store.Store(context.Background(), t.Name(), "scenarios.json", []byte(collection)))
	f.store.OnStore = func(_, _ string, _ []byte) {
		f.mu.Lock()
		f.writes++
		f.mu.Unlock()
	}
	f.repo = repository.New(repository.Options{
		Store:          f.store,
		Container:      t.Name(),
		Collection:     "scenarios.json",
		Locker:         lock.NewLocalMutex,
		MergePolicy:    merge,
		ConflictPolicy: conflict,
	})
	return f
}

func (f *fixture) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func Test_U_ParseID(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		Raw        string
		ExpectedID int
		ExpectErr  bool
	}{
		"plain":     {Raw: "7", ExpectedID: 7},
		"spaces":    {Raw: " 7 ", ExpectedID: 7},
		"negative":  {Raw: "-2", ExpectedID: -2},
		"text":      {Raw: "seven", ExpectErr: true},
		"empty":     {Raw: "", ExpectErr: true},
		"float":     {Raw: "7.0", ExpectErr: true},
		"traversal": {Raw: "../7", ExpectErr: true},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()

			id, err := repository.ParseID(tt.Raw)
			if tt.ExpectErr {
				var ierr *errs.ErrInvalidID
				assert.ErrorAs(t, err, &ierr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ExpectedID, id)
		})
	}
}

func Test_U_Get(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenario.MergeReplace, repository.LastWriterWins)
	ctx := context.Background()

	loaded, err := f.repo.Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Scenario.ID)
	assert.Equal(t, 1, loaded.Index)
	assert.Equal(t, scenario.Revision(loaded.Scenario.Sections), loaded.Revision)

	_, err = f.repo.Get(ctx, "8")
	var nerr *errs.ErrScenarioNotFound
	assert.ErrorAs(t, err, &nerr)

	_, err = f.repo.Get(ctx, "abc")
	var ierr *errs.ErrInvalidID
	assert.ErrorAs(t, err, &ierr)

	assert.Zero(t, f.Writes())
}

func Test_U_GetStoreFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blob.NewMemory()
	repo := repository.New(repository.Options{
		Store:      store,
		Container:  t.Name(),
		Collection: "scenarios.json",
		Locker:     lock.NewLocalMutex,
	})

	// Missing collection
	_, err := repo.Get(ctx, "7")
	var berr *errs.ErrBlob
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "fetch", berr.Op)
	assert.ErrorIs(t, err, blob.ErrNotExist)

	// Data-shape mismatch
	require.NoError(t, store.Store(ctx, t.Name(), "scenarios.json", []byte(`[{"ScenarioID": 7, "Sections": {"Notes": 1}}]`)))
	_, err = repo.Get(ctx, "7")
	var merr *errs.ErrMalformed
	assert.ErrorAs(t, err, &merr)
}

func Test_U_UpdateUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenario.MergeReplace, repository.LastWriterWins)
	ctx := context.Background()

	res, err := f.repo.Update(ctx, "7", repository.Submission{
		Fields: []scenario.Field{{Name: "Notes", Value: "line one\nline two"}},
	})
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, 7, res.ID)
	// The collection is uploaded anyway
	assert.Equal(t, 1, f.Writes())
}

func Test_U_UpdateChanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenario.MergeReplace, repository.LastWriterWins)
	ctx := context.Background()

	res, err := f.repo.Update(ctx, "7", repository.Submission{
		Fields: []scenario.Field{{Name: "Notes", Value: "line one\nline three"}},
	})
	require.NoError(t, err)
	assert.True(t, res.Changed())

	loaded, err := f.repo.Get(ctx, "7")
	require.NoError(t, err)
	notes, ok := loaded.Scenario.Sections.Get("Notes")
	require.True(t, ok)
	assert.Equal(t, []string{"line one", "line three"}, notes.Items())

	// Other records and attributes survive
	raw, err := f.store.Fetch(ctx, t.Name(), "scenarios.json")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kept": true`)
	other, err := f.repo.Get(ctx, "3")
	require.NoError(t, err)
	summary, _ := other.Scenario.Sections.Get("Summary")
	assert.Equal(t, "three", summary.Text())
}

func Test_U_UpdateNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenario.MergeReplace, repository.LastWriterWins)

	_, err := f.repo.Update(context.Background(), "42", repository.Submission{
		Fields: []scenario.Field{{Name: "Notes", Value: "x"}},
	})
	var nerr *errs.ErrScenarioNotFound
	assert.ErrorAs(t, err, &nerr)
	assert.Zero(t, f.Writes())
}

func Test_U_UpdateRejectsStaleRevision(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenario.MergeReplace, repository.Reject)
	ctx := context.Background()

	loaded, err := f.repo.Get(ctx, "7")
	require.NoError(t, err)

	// First submit based on the current revision is accepted
	_, err = f.repo.Update(ctx, "7", repository.Submission{
		Fields:   []scenario.Field{{Name: "Notes", Value: "edited by alice"}},
		Revision: loaded.Revision,
	})
	require.NoError(t, err)

	// Second one, built upon the same (now outdated) revision, is rejected
	_, err = f.repo.Update(ctx, "7", repository.Submission{
		Fields:   []scenario.Field{{Name: "Notes", Value: "edited by bob"}},
		Revision: loaded.Revision,
	})
	var cerr *errs.ErrConflict
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, loaded.Revision, cerr.Expected)
	assert.Equal(t, 1, f.Writes())

	current, err := f.repo.Get(ctx, "7")
	require.NoError(t, err)
	notes, _ := current.Scenario.Sections.Get("Notes")
	assert.Equal(t, []string{"edited by alice"}, notes.Items())
}

// Two users open the same record and each edits a different field. With
// last-writer-wins, the form of the second carries the stale value of the
// field edited by the first, so the first change is lost. This is the
// documented behavior of the default policy.
func Test_U_UpdateLastWriterWinsLosesConcurrentEdit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blob.NewMemory()
	require.NoError(t, store.Store(ctx, t.Name(), "scenarios.json", []byte(`[{"ScenarioID": 1, "Sections": {"A": "a0", "B": "b0"}}]`)))
	repo := repository.New(repository.Options{
		Store:      store,
		Container:  t.Name(),
		Collection: "scenarios.json",
		Locker:     lock.NewLocalMutex,
	})

	alice := repository.Submission{Fields: []scenario.Field{{Name: "A", Value: "a1"}, {Name: "B", Value: "b0"}}}
	bob := repository.Submission{Fields: []scenario.Field{{Name: "A", Value: "a0"}, {Name: "B", Value: "b1"}}}

	_, err := repo.Update(ctx, "1", alice)
	require.NoError(t, err)
	_, err = repo.Update(ctx, "1", bob)
	require.NoError(t, err)

	loaded, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	a, _ := loaded.Scenario.Sections.Get("A")
	b, _ := loaded.Scenario.Sections.Get("B")
	assert.Equal(t, "a0", a.Text(), "alice's change is lost")
	assert.Equal(t, "b1", b.Text())
}

func Test_U_UpdateSerializesWriters(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenario.MergeKeep, repository.LastWriterWins)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.repo.Update(ctx, "7", repository.Submission{
				Fields: []scenario.Field{{Name: fmt.Sprintf("F%d", i), Value: "v"}},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	loaded, err := f.repo.Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, n+1, loaded.Scenario.Sections.Len(), "no update is lost when writers carry only their own field")
	assert.Equal(t, n, f.Writes())
}

func Test_U_UpdateMergePolicies(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		Policy       scenario.MergePolicy
		ExpectedKeys []string
	}{
		"replace": {
			Policy:       scenario.MergeReplace,
			ExpectedKeys: []string{"Owner"},
		},
		"merge": {
			Policy:       scenario.MergeKeep,
			ExpectedKeys: []string{"Notes", "Owner"},
		},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, tt.Policy, repository.LastWriterWins)
			res, err := f.repo.Update(context.Background(), "7", repository.Submission{
				Fields: []scenario.Field{{Name: "Owner", Value: "ops"}},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.ExpectedKeys, res.After.Keys())
		})
	}
}

func Test_U_UpdateLockUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, scenario.MergeReplace, repository.LastWriterWins)
	f.repo.Locker = func(context.Context, string) (lock.Mutex, error) {
		return nil, fmt.Errorf("etcd unreachable")
	}

	_, err := f.repo.Update(context.Background(), "7", repository.Submission{})
	assert.ErrorIs(t, err, errs.ErrLockUnavailable)
	assert.Zero(t, f.Writes())
}
