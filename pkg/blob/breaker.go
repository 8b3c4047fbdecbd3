package blob

import (
	"context"
	"errors"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/ctfer-io/scenario-editor/global"
)

// Breaker wraps a remote Store with a circuit breaker: after consecutive
// failures it fails fast with gobreaker.ErrOpenState instead of waiting on an
// unreachable backend. A missing object is a valid answer and does not count
// as a failure.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker[[]byte]
}

var _ Store = (*Breaker)(nil)

// NewBreaker wraps the store. A zero settings value uses gobreaker defaults
// (trip after 5 consecutive failures, 60s open state).
func NewBreaker(store Store, st gobreaker.Settings) *Breaker {
	if st.Name == "" {
		st.Name = string(store.Driver()) + " blob circuit breaker"
	}
	if st.IsSuccessful == nil {
		st.IsSuccessful = func(err error) bool {
			return err == nil || errors.Is(err, ErrNotExist) || errors.Is(err, context.Canceled)
		}
	}
	if st.OnStateChange == nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			global.Log().Sub.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
	}
	return &Breaker{
		next: store,
		cb:   gobreaker.NewCircuitBreaker[[]byte](st),
	}
}

func (b *Breaker) Fetch(ctx context.Context, container, name string) ([]byte, error) {
	return b.cb.Execute(func() ([]byte, error) {
		return b.next.Fetch(ctx, container, name)
	})
}

func (b *Breaker) Store(ctx context.Context, container, name string, data []byte) error {
	_, err := b.cb.Execute(func() ([]byte, error) {
		return nil, b.next.Store(ctx, container, name, data)
	})
	return err
}

func (b *Breaker) Driver() Driver { return b.next.Driver() }

// State exposes the breaker state, for health checks.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
