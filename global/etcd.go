package global

import (
	"sync"

	"github.com/ctfer-io/scenario-editor/pkg/services/etcd"
)

var (
	etcdManager *etcd.Manager
	etcdMu      sync.Mutex
)

// Etcd returns the process-wide etcd manager, built from Conf.Etcd upon
// first use.
func Etcd() *etcd.Manager {
	etcdMu.Lock()
	defer etcdMu.Unlock()

	if etcdManager == nil {
		etcdManager = etcd.NewManager(etcd.Config{
			Endpoint: Conf.Etcd.Endpoint,
			Username: Conf.Etcd.Username,
			Password: Conf.Etcd.Password,
			Logger:   Log().Sub.Named("etcd"),
		})
	}
	return etcdManager
}

// CloseEtcd closes the etcd manager if one was ever built, and forgets it.
func CloseEtcd() error {
	etcdMu.Lock()
	defer etcdMu.Unlock()

	if etcdManager == nil {
		return nil
	}
	err := etcdManager.Close()
	etcdManager = nil
	return err
}
