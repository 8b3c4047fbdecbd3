package etcd

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Config describes how to reach the etcd cluster backing the collection lock.
type Config struct {
	Endpoint string
	Username string
	Password string

	// SessionTTL is the lease duration of lock sessions, in seconds.
	// Defaults to DefaultSessionTTL.
	SessionTTL int
	// DialTimeout bounds the connection of a new client.
	// Defaults to DefaultDialTimeout.
	DialTimeout time.Duration

	Logger *zap.Logger
}

const (
	DefaultSessionTTL  = 30
	DefaultDialTimeout = 5 * time.Second
)

// Manager owns a single etcd client, dialed on first use and redialed when
// the cluster stops answering. Dials go through a circuit breaker, so an
// unreachable cluster makes edits fail fast.
type Manager struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker[*clientv3.Client]

	mu  sync.Mutex
	cli *clientv3.Client
}

func NewManager(cfg Config) *Manager {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	m := &Manager{cfg: cfg}
	m.breaker = gobreaker.NewCircuitBreaker[*clientv3.Client](gobreaker.Settings{
		Name: "etcd",
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("etcd circuit breaker state changed",
				zap.String("endpoint", cfg.Endpoint),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
	return m
}

// client returns a live client, redialing when the current one is gone.
func (m *Manager) client(ctx context.Context) (*clientv3.Client, error) {
	return m.breaker.Execute(func() (*clientv3.Client, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.cli != nil {
			if err := m.ping(ctx, m.cli); err == nil {
				return m.cli, nil
			}
			m.cfg.Logger.Info("etcd client stale, redialing", zap.String("endpoint", m.cfg.Endpoint))
			_ = m.cli.Close()
			m.cli = nil
		}

		cli, err := m.dial(ctx)
		if err != nil {
			return nil, err
		}
		m.cli = cli
		return cli, nil
	})
}

func (m *Manager) dial(ctx context.Context) (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{m.cfg.Endpoint},
		Username:    m.cfg.Username,
		Password:    m.cfg.Password,
		DialTimeout: m.cfg.DialTimeout,
		Logger:      m.cfg.Logger,
		// The client outlives the request it is created for
		Context: context.WithoutCancel(ctx),
		DialOptions: []grpc.DialOption{
			grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		},
	})
	if err != nil {
		return nil, err
	}
	if err := m.ping(ctx, cli); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return cli, nil
}

func (m *Manager) ping(ctx context.Context, cli *clientv3.Client) error {
	_, err := cli.Status(ctx, m.cfg.Endpoint)
	return err
}

// Session opens a lease-backed session to build mutexes upon.
// The lease expires SessionTTL seconds after the process stops renewing it,
// releasing any lock it held. The caller must close the session.
func (m *Manager) Session(ctx context.Context) (*concurrency.Session, error) {
	cli, err := m.client(ctx)
	if err != nil {
		return nil, err
	}
	return concurrency.NewSession(cli,
		concurrency.WithContext(ctx),
		concurrency.WithTTL(m.cfg.SessionTTL),
	)
}

// Healthcheck reports whether the cluster answers, dialing if needed.
func (m *Manager) Healthcheck(ctx context.Context) error {
	_, err := m.client(ctx)
	return err
}

// Close releases the current client, if any. It does not dial.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cli == nil {
		return nil
	}
	err := m.cli.Close()
	m.cli = nil
	return err
}
