package lock

import (
	"context"

	"github.com/ctfer-io/scenario-editor/global"
)

// Mutex define an implementation of a mutual exclusion lock that spans a
// whole read-modify-write cycle upon a blob.
//
// Locks should be short-lived and recover from previous states without the need
// to persist them in memory (for fault-tolerancy and scalability).
type Mutex interface {
	Key() string

	// Lock blocks until the lock is acquired or the context is done.
	Lock(context.Context) error
	// Unlock releases the lock.
	Unlock(context.Context) error

	// Close network socket/connections
	Close() error
}

// Factory builds a Mutex for a key.
type Factory func(ctx context.Context, key string) (Mutex, error)

const (
	KindLocal = "local"
	KindEtcd  = "etcd"
)

// New returns a Mutex of the configured kind.
func New(ctx context.Context, key string) (Mutex, error) {
	switch global.Conf.Lock.Kind {
	case KindLocal, "":
		return NewLocalMutex(ctx, key)
	case KindEtcd:
		return NewEtcdMutex(ctx, key)
	}
	panic("unhandled lock kind " + global.Conf.Lock.Kind)
}
