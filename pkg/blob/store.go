package blob

import (
	"context"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default, dev)
	DriverMemory     Driver = "memory" // in-memory (tests)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverAzure      Driver = "azure"  // Azure Blob Storage
	DriverSQLite     Driver = "sqlite" // single table in a SQLite database
)

// Drivers lists the supported drivers, in the order they are documented.
var Drivers = []Driver{DriverFilesystem, DriverMemory, DriverS3, DriverAzure, DriverSQLite}

// Store is the whole-object storage consumed by the scenario repository and
// the audit writer.
type Store interface {
	// Fetch downloads the whole object. Returns an error wrapping ErrNotExist
	// if the object is missing.
	Fetch(ctx context.Context, container, name string) ([]byte, error)
	// Store uploads data as the whole object, overwriting any previous content.
	Store(ctx context.Context, container, name string, data []byte) error
	// Driver returns the configured backend driver.
	Driver() Driver
}

// ErrNotExist is returned (wrapped) when an object is missing.
var ErrNotExist = errs.ErrNotExist
