package blob

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

// Config selects and configures a driver.
type Config struct {
	Driver    Driver
	Directory string // fs root
	S3        S3Config
	Azure     AzureConfig
	SQLite    SQLiteConfig
	Breaker   gobreaker.Settings // remote drivers only
}

// Open selects a Store implementation from the configuration.
// Remote drivers are wrapped by a circuit breaker, and all of them are traced.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case DriverFilesystem, "":
		store, err = NewFilesystem(cfg.Directory)
	case DriverMemory:
		store = NewMemory()
	case DriverS3:
		var s *S3
		s, err = NewS3(ctx, cfg.S3)
		if err == nil {
			store = NewBreaker(s, cfg.Breaker)
		}
	case DriverAzure:
		var s *Azure
		s, err = NewAzure(cfg.Azure)
		if err == nil {
			store = NewBreaker(s, cfg.Breaker)
		}
	case DriverSQLite:
		store, err = NewSQLite(ctx, cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return NewTraced(store), nil
}

// Close releases the resources of the store, if it holds any.
func Close(store Store) error {
	switch s := store.(type) {
	case *Traced:
		return Close(s.next)
	case *Breaker:
		return Close(s.next)
	case interface{ Close() error }:
		return s.Close()
	}
	return nil
}
