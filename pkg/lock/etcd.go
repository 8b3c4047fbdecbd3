package lock

import (
	"context"
	"path"

	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/ctfer-io/scenario-editor/global"
)

// EtcdPrefix namespaces the lock keys of the editor in the etcd keyspace.
const EtcdPrefix = "/scenario-editor/locks"

// EtcdMutex serializes the read-modify-write cycles of every editor replica
// sharing an etcd cluster. It is held by a lease-backed session, so a crashed
// replica releases it once the lease expires.
type EtcdMutex struct {
	key     string
	session *concurrency.Session
	mx      *concurrency.Mutex
}

var _ Mutex = (*EtcdMutex)(nil)

func NewEtcdMutex(ctx context.Context, key string) (Mutex, error) {
	session, err := global.Etcd().Session(ctx)
	if err != nil {
		return nil, err
	}
	return &EtcdMutex{
		key:     key,
		session: session,
		mx:      concurrency.NewMutex(session, path.Join(EtcdPrefix, key)),
	}, nil
}

func (em *EtcdMutex) Key() string {
	return em.key
}

func (em *EtcdMutex) Lock(ctx context.Context) error {
	return em.mx.Lock(ctx)
}

// Unlock releases the key even when ctx is already canceled.
func (em *EtcdMutex) Unlock(ctx context.Context) error {
	return em.mx.Unlock(context.WithoutCancel(ctx))
}

func (em *EtcdMutex) Close() error {
	return em.session.Close()
}
