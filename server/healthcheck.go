package server

import (
	"context"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v5"
	"go.uber.org/zap"

	"github.com/ctfer-io/scenario-editor/global"
)

// blobCheckTimeout bounds the fetch of the collection by the "blob" check.
const blobCheckTimeout = 5 * time.Second

// healthcheck reports the status of the blob store holding the collection,
// plus the extra checks (e.g. etcd) the server was configured with.
func (s *Server) healthcheck(ctx context.Context) (http.Handler, error) {
	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "scenario-editor",
			Version: global.Version,
		}),
		health.WithSystemInfo(),
	)
	if err != nil {
		return nil, err
	}

	checks := s.Checks
	if s.Repository != nil {
		checks = append([]health.Config{{
			Name:    "blob",
			Timeout: blobCheckTimeout,
			Check:   s.Repository.Ping,
		}}, checks...)
	}
	for _, c := range checks {
		if err := h.Register(c); err != nil {
			return nil, err
		}
		global.Log().Debug(ctx, "healthcheck registered",
			zap.String("check", c.Name),
			zap.Duration("timeout", c.Timeout),
		)
	}
	return h.Handler(), nil
}
