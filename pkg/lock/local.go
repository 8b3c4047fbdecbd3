package lock

import (
	"context"
	"sync"
)

var (
	localLocks sync.Map
)

// LocalMutex is an in-process lock. It does not protect against other
// replicas writing the same blob, use the etcd one for that.
type LocalMutex struct {
	key string
	ch  chan struct{}
}

var _ Mutex = (*LocalMutex)(nil)

func NewLocalMutex(_ context.Context, key string) (Mutex, error) {
	ch, _ := localLocks.LoadOrStore(key, make(chan struct{}, 1))
	return &LocalMutex{
		key: key,
		ch:  ch.(chan struct{}),
	}, nil
}

func (lock *LocalMutex) Key() string {
	return lock.key
}

func (lock *LocalMutex) Lock(ctx context.Context) error {
	select {
	case lock.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (lock *LocalMutex) Unlock(_ context.Context) error {
	select {
	case <-lock.ch:
		return nil
	default:
		return ErrNotLocked
	}
}

func (lock *LocalMutex) Close() error {
	return nil
}
