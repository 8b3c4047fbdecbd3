package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ctfer-io/scenario-editor/global"
	"github.com/ctfer-io/scenario-editor/pkg/blob"
	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/lock"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

// ConflictPolicy defines how a submit built upon an outdated revision of a
// scenario is handled.
type ConflictPolicy string

const (
	// LastWriterWins overwrites whatever the current revision is.
	LastWriterWins ConflictPolicy = "last-writer-wins"
	// Reject refuses the submit with an *errs.ErrConflict.
	Reject ConflictPolicy = "reject"
)

// ConflictPolicies lists the supported conflict policies.
var ConflictPolicies = []ConflictPolicy{LastWriterWins, Reject}

// Options to configure a Repository once for all.
type Options struct {
	Store      blob.Store
	Container  string
	Collection string

	// Locker builds the mutex held during an update. Defaults to lock.New.
	Locker lock.Factory

	MergePolicy    scenario.MergePolicy
	ConflictPolicy ConflictPolicy
}

// Repository reads and writes scenarios of the collection blob.
// It holds no state between calls: every operation downloads the whole
// collection.
type Repository struct {
	Options
}

func New(opts Options) *Repository {
	if opts.Locker == nil {
		opts.Locker = lock.New
	}
	if opts.MergePolicy == "" {
		opts.MergePolicy = scenario.MergeReplace
	}
	if opts.ConflictPolicy == "" {
		opts.ConflictPolicy = LastWriterWins
	}
	return &Repository{
		Options: opts,
	}
}

// Loaded is a scenario along with the collection it has been read from.
type Loaded struct {
	Document *scenario.Document
	Index    int
	Scenario *scenario.Scenario
	Revision string
}

// Submission is what an edit carries.
type Submission struct {
	Fields []scenario.Field
	// Revision the edit has been built upon. Empty skips the conflict check.
	Revision string
}

// Result of an update.
type Result struct {
	ID     int
	Before scenario.Sections
	After  scenario.Sections
}

// Changed reports whether the update modified the sections.
func (res *Result) Changed() bool {
	return !res.Before.Equal(res.After)
}

// ParseID parses the raw identifier received from a user, e.g. " 7 ".
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &errs.ErrInvalidID{Raw: raw}
	}
	return id, nil
}

// Get fetches the collection and returns the first record whose
// identifier is the integer form of rawID.
func (repo *Repository) Get(ctx context.Context, rawID string) (*Loaded, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	ctx, span := global.Tracer.Start(ctx, "scenario-get", trace.WithAttributes(
		attribute.Int("scenario.id", id),
	))
	defer span.End()

	loaded, err := repo.load(ctx, id)
	LookupsCounter().Add(ctx, 1, metricFound(err == nil))
	return loaded, err
}

// Update replaces the sections of a scenario with the coerced submission,
// and uploads the whole collection back.
//
// The collection is re-fetched while holding the collection mutex, so two
// updates never interleave their fetch and upload. Whether a submission
// built upon an outdated revision is accepted depends on the ConflictPolicy.
func (repo *Repository) Update(ctx context.Context, rawID string, sub Submission) (*Result, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	ctx, span := global.Tracer.Start(ctx, "scenario-update", trace.WithAttributes(
		attribute.Int("scenario.id", id),
		attribute.String("scenario.merge_policy", string(repo.MergePolicy)),
		attribute.String("scenario.conflict_policy", string(repo.ConflictPolicy)),
	))
	defer span.End()

	logger := global.Log()

	// 1. Lock the collection
	mx, err := repo.Locker(ctx, repo.lockKey())
	if err != nil {
		return nil, errors.Wrap(errs.ErrLockUnavailable, err.Error())
	}
	defer lclose(ctx, mx)
	if err := mx.Lock(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.Wrap(errs.ErrLockUnavailable, err.Error())
	}
	defer func() {
		if err := mx.Unlock(ctx); err != nil {
			logger.Error(ctx, "collection unlock",
				zap.Error(err),
				zap.String("key", mx.Key()),
			)
		}
	}()

	// 2. Fetch a fresh collection and locate the scenario
	loaded, err := repo.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. Check the submission is built upon the current revision
	if repo.ConflictPolicy == Reject && sub.Revision != "" && sub.Revision != loaded.Revision {
		return nil, &errs.ErrConflict{
			ID:       id,
			Expected: sub.Revision,
			Current:  loaded.Revision,
		}
	}

	// 4. Coerce and patch
	before := loaded.Scenario.Sections
	after := scenario.Coerce(before, sub.Fields, repo.MergePolicy)
	if err := loaded.Document.SetSections(loaded.Index, after); err != nil {
		return nil, &errs.ErrInternal{Op: "patch", Sub: err}
	}

	// 5. Upload the whole collection
	if err := repo.Store.Store(ctx, repo.Container, repo.Collection, loaded.Document.Bytes()); err != nil {
		return nil, &errs.ErrBlob{Op: "store", Container: repo.Container, Name: repo.Collection, Err: err}
	}

	res := &Result{
		ID:     id,
		Before: before,
		After:  after,
	}
	UpdatesCounter().Add(ctx, 1, metricChanged(res.Changed()))
	return res, nil
}

// Ping checks the collection blob is reachable.
func (repo *Repository) Ping(ctx context.Context) error {
	if _, err := repo.Store.Fetch(ctx, repo.Container, repo.Collection); err != nil {
		return &errs.ErrBlob{Op: "fetch", Container: repo.Container, Name: repo.Collection, Err: err}
	}
	return nil
}

func (repo *Repository) load(ctx context.Context, id int) (*Loaded, error) {
	b, err := repo.Store.Fetch(ctx, repo.Container, repo.Collection)
	if err != nil {
		return nil, &errs.ErrBlob{Op: "fetch", Container: repo.Container, Name: repo.Collection, Err: err}
	}
	doc, err := scenario.ParseDocument(b)
	if err != nil {
		return nil, err
	}
	scn, idx, err := doc.Find(id)
	if err != nil {
		return nil, err
	}
	return &Loaded{
		Document: doc,
		Index:    idx,
		Scenario: scn,
		Revision: scenario.Revision(scn.Sections),
	}, nil
}

// lockKey identifies the collection blob, hashed to fit any lock backend.
func (repo *Repository) lockKey() string {
	h := sha256.Sum256([]byte(repo.Container + "/" + repo.Collection))
	return "collection/" + hex.EncodeToString(h[:8])
}

// lclose logs any error during the mutex close call.
func lclose(ctx context.Context, mx lock.Mutex) {
	if err := mx.Close(); err != nil {
		global.Log().Error(ctx, "lock close",
			zap.Error(err),
			zap.String("key", mx.Key()),
		)
	}
}
